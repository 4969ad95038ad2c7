package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

const (
	roundLockTpl = "round:%s" // round:${round_id}
	eventLockTpl = "event:%s" // event:${event_id}
	pollInterval = 50 * time.Millisecond
)

// Locker serializes recomputations touching the same round or event.
type Locker interface {
	// Lock blocks until name is held, the wait budget runs out (ErrBusy) or
	// ctx is done. The returned func releases the lock.
	Lock(ctx context.Context, name string) (func() error, error)
	Close() error
}

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds locks as redis keys, so several server and CLI processes
// sharing one database also share the locks.
type RedisLocker struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(redis *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{redis: redis, prefix: prefix, ttl: ttl, wait: wait}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}

func (l *RedisLocker) Lock(ctx context.Context, name string) (func() error, error) {
	key := l.prefix + name
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("lock %s: %w", key, ErrBusy)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			released, runErr := releaseScript.Run(context.Background(), l.redis, []string{key}, token).Int()
			if runErr != nil {
				err = fmt.Errorf("failed to release lock %s: %w", key, runErr)
				return
			}
			if released == 0 {
				logger.Error.Printf("Lock %s expired before release, ttl %s is too short", key, l.ttl)
			}
		})
		return err
	}, nil
}

func (l *RedisLocker) Close() error {
	if l.redis != nil {
		return l.redis.Close()
	}
	return nil
}

// LocalLocker keeps locks in process memory, one slot per lock name.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{}), wait: wait}
}

func (l *LocalLocker) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

func (l *LocalLocker) Lock(ctx context.Context, name string) (func() error, error) {
	ch := l.slot(name)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
	case <-timer.C:
		return nil, fmt.Errorf("lock %s: %w", name, ErrBusy)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}

func (l *LocalLocker) Close() error {
	return nil
}

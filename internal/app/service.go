package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/blindtaste/internal/metrics"
	"github.com/shrimpsizemoose/blindtaste/internal/models"
	"github.com/shrimpsizemoose/blindtaste/internal/recompute"
	"github.com/shrimpsizemoose/blindtaste/internal/scoring"
	"github.com/shrimpsizemoose/blindtaste/internal/store"
)

var (
	ErrRoundClosed = errors.New("round is closed")
	ErrEventClosed = errors.New("event is closed")
	ErrOpenRounds  = errors.New("event still has open rounds")
	ErrBusy        = errors.New("another recomputation holds the lock")
	ErrNoOpenRound = fmt.Errorf("%w: no open round", store.ErrNotFound)
)

type Service struct {
	Config *Config
	Store  store.ScoreStore
	Locker Locker

	calculator *scoring.Calculator
	recomputer *recompute.Recomputer
	aggregator *recompute.Aggregator
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(store.DBConfig{
		DSN:           config.Database.DSN,
		MigrationsDir: config.Database.MigrationsDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	locker, err := NewLocker(config)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to init locks: %w", err)
	}

	service, err := New(config, st, locker)
	if err != nil {
		st.Close()
		locker.Close()
		return nil, err
	}
	return service, nil
}

// NewLocker picks redis locks when a redis url is configured.
func NewLocker(config *Config) (Locker, error) {
	if config.Locks.RedisURL == "" {
		logger.Info.Println("No redis configured, using in-process locks")
		return NewLocalLocker(config.LockWait()), nil
	}

	opt, err := redis.ParseURL(config.Locks.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisLocker(client, config.Locks.KeyPrefix, config.LockTTL(), config.LockWait()), nil
}

// New wires a service from already opened collaborators.
func New(config *Config, st store.ScoreStore, locker Locker) (*Service, error) {
	calculator, err := scoring.NewCalculator(config.Scoring.Weights)
	if err != nil {
		return nil, err
	}
	badges, err := scoring.NewBadgeClassifier(config.Scoring.Badges)
	if err != nil {
		return nil, err
	}

	return &Service{
		Config:     config,
		Store:      st,
		Locker:     locker,
		calculator: calculator,
		recomputer: recompute.NewRecomputer(calculator),
		aggregator: recompute.NewAggregator(badges),
	}, nil
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// withLocks takes the named locks in order, runs fn and releases them in
// reverse order.
func (s *Service) withLocks(ctx context.Context, names []string, fn func() error) error {
	var unlocks []func() error
	defer func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			if err := unlocks[i](); err != nil {
				logger.Error.Printf("Failed to release lock: %v", err)
			}
		}
	}()

	for _, name := range names {
		unlock, err := s.Locker.Lock(ctx, name)
		if err != nil {
			return err
		}
		unlocks = append(unlocks, unlock)
	}
	return fn()
}

func roundLocks(round *models.Round) []string {
	return []string{
		fmt.Sprintf(roundLockTpl, round.ID),
		fmt.Sprintf(eventLockTpl, round.EventID),
	}
}

func observe(kind string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, recompute.ErrNoAnswerKey):
		outcome = "no_answer_key"
	case err != nil:
		outcome = "error"
	}
	metrics.RecomputationsTotal.WithLabelValues(kind, outcome).Inc()
	metrics.RecomputeDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// recomputeRound rescores a round and then rebuilds its event totals, both
// through repo so the caller's transaction covers the two steps.
func (s *Service) recomputeRound(ctx context.Context, repo store.Repository, roundID uuid.UUID) (*recompute.RoundResult, error) {
	start := time.Now()
	result, err := s.recomputer.RecomputeRound(ctx, repo, roundID)
	observe("round", start, err)
	if err != nil {
		return nil, err
	}

	metrics.EvaluationsScored.Add(float64(result.Count()))
	for _, score := range result.Scores {
		metrics.EvaluationScore.Observe(float64(score))
	}

	if _, err := s.recomputeEvent(ctx, repo, result.EventID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) recomputeEvent(ctx context.Context, repo store.Repository, eventID uuid.UUID) (int, error) {
	start := time.Now()
	n, err := s.aggregator.RecomputeEventTotals(ctx, repo, eventID)
	observe("event", start, err)
	return n, err
}

func (s *Service) CreateEvent(ctx context.Context, event *models.Event) error {
	event.ID = uuid.Nil
	event.IsOpen = true
	if err := event.Validate(); err != nil {
		return err
	}
	return s.Store.CreateEvent(ctx, event)
}

func (s *Service) CreateRound(ctx context.Context, round *models.Round) error {
	round.ID = uuid.Nil
	round.IsOpen = true
	if err := round.Validate(); err != nil {
		return err
	}

	// CloseEvent holds the same lock while it checks for open rounds.
	return s.withLocks(ctx, []string{fmt.Sprintf(eventLockTpl, round.EventID)}, func() error {
		return s.Store.InTx(ctx, func(repo store.Repository) error {
			event, err := repo.GetEvent(ctx, round.EventID)
			if err != nil {
				return err
			}
			if !event.IsOpen {
				return fmt.Errorf("event %s: %w", event.ID, ErrEventClosed)
			}
			return repo.CreateRound(ctx, round)
		})
	})
}

func (s *Service) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	participant.ID = uuid.Nil
	if err := participant.Validate(); err != nil {
		return err
	}
	return s.Store.CreateParticipant(ctx, participant)
}

// SubmitEvaluation stores a participant evaluation or a round's answer key.
// Once a round has a key, every submission rescores the round and rebuilds
// the event totals in the same transaction.
func (s *Service) SubmitEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	evaluation.ID = uuid.Nil
	evaluation.Score = 0
	evaluation.ScoredAt = nil
	evaluation.SubmittedAt = time.Now().UTC()
	if err := evaluation.Validate(); err != nil {
		return err
	}

	round, err := s.Store.GetRound(ctx, evaluation.RoundID)
	if err != nil {
		return err
	}
	if !evaluation.IsAnswerKey {
		if _, err := s.Store.GetParticipant(ctx, evaluation.ParticipantID.UUID); err != nil {
			return err
		}
	}

	return s.withLocks(ctx, roundLocks(round), func() error {
		return s.Store.InTx(ctx, func(repo store.Repository) error {
			round, err := repo.GetRound(ctx, evaluation.RoundID)
			if err != nil {
				return err
			}
			event, err := repo.GetEvent(ctx, round.EventID)
			if err != nil {
				return err
			}
			if !event.IsOpen {
				return fmt.Errorf("event %s: %w", event.ID, ErrEventClosed)
			}
			if !evaluation.IsAnswerKey && !round.IsOpen {
				return fmt.Errorf("round %s: %w", round.ID, ErrRoundClosed)
			}

			if err := repo.CreateEvaluation(ctx, evaluation); err != nil {
				return err
			}

			key, err := repo.GetAnswerKey(ctx, round.ID)
			if err != nil || key == nil {
				return err
			}
			result, err := s.recomputeRound(ctx, repo, round.ID)
			if err != nil {
				return err
			}
			if evaluation.IsAnswerKey {
				evaluation.Score = result.KeyMaxScore
			} else {
				evaluation.Score = result.Scores[evaluation.ID]
			}
			logger.Info.Printf("Evaluation %s in round %s scored %d", evaluation.ID, round.ID, evaluation.Score)
			return nil
		})
	})
}

// CloseRound scores the round, rebuilds the event totals and closes the
// round, all or nothing. A round without an answer key stays open.
func (s *Service) CloseRound(ctx context.Context, roundID uuid.UUID) (*recompute.RoundResult, error) {
	round, err := s.Store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	var result *recompute.RoundResult
	err = s.withLocks(ctx, roundLocks(round), func() error {
		return s.Store.InTx(ctx, func(repo store.Repository) error {
			round, err := repo.GetRound(ctx, roundID)
			if err != nil {
				return err
			}
			if !round.IsOpen {
				return fmt.Errorf("round %s: %w", roundID, ErrRoundClosed)
			}

			result, err = s.recomputeRound(ctx, repo, roundID)
			if err != nil {
				return err
			}
			return repo.CloseRound(ctx, roundID)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Round %s closed, %d evaluations scored", roundID, result.Count())
	return result, nil
}

// RecalculateRound rescores a round whether it is open or closed.
func (s *Service) RecalculateRound(ctx context.Context, roundID uuid.UUID) (*recompute.RoundResult, error) {
	round, err := s.Store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	var result *recompute.RoundResult
	err = s.withLocks(ctx, roundLocks(round), func() error {
		return s.Store.InTx(ctx, func(repo store.Repository) error {
			result, err = s.recomputeRound(ctx, repo, roundID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Round %s recalculated, %d evaluations scored", roundID, result.Count())
	return result, nil
}

// RecalculateEvent rescores every round with an answer key and rebuilds the
// event totals. Rounds without a key are skipped.
func (s *Service) RecalculateEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	if _, err := s.Store.GetEvent(ctx, eventID); err != nil {
		return 0, err
	}
	rounds, err := s.Store.ListEventRounds(ctx, eventID)
	if err != nil {
		return 0, err
	}

	locks := make([]string, 0, len(rounds)+1)
	for _, r := range rounds {
		locks = append(locks, fmt.Sprintf(roundLockTpl, r.ID))
	}
	locks = append(locks, fmt.Sprintf(eventLockTpl, eventID))

	var updated int
	err = s.withLocks(ctx, locks, func() error {
		return s.Store.InTx(ctx, func(repo store.Repository) error {
			for _, r := range rounds {
				start := time.Now()
				result, err := s.recomputer.RecomputeRound(ctx, repo, r.ID)
				observe("round", start, err)
				if errors.Is(err, recompute.ErrNoAnswerKey) {
					logger.Debug.Printf("Round %s has no answer key, skipping", r.ID)
					continue
				}
				if err != nil {
					return err
				}
				metrics.EvaluationsScored.Add(float64(result.Count()))
			}

			updated, err = s.recomputeEvent(ctx, repo, eventID)
			return err
		})
	})
	if err != nil {
		return 0, err
	}

	logger.Info.Printf("Event %s recalculated, %d participant totals updated", eventID, updated)
	return updated, nil
}

// CloseEvent closes an event once all of its rounds are closed.
func (s *Service) CloseEvent(ctx context.Context, eventID uuid.UUID) error {
	return s.withLocks(ctx, []string{fmt.Sprintf(eventLockTpl, eventID)}, func() error {
		return s.Store.InTx(ctx, func(repo store.Repository) error {
			event, err := repo.GetEvent(ctx, eventID)
			if err != nil {
				return err
			}
			if !event.IsOpen {
				return fmt.Errorf("event %s: %w", eventID, ErrEventClosed)
			}

			rounds, err := repo.ListEventRounds(ctx, eventID)
			if err != nil {
				return err
			}
			for _, r := range rounds {
				if r.IsOpen {
					return fmt.Errorf("event %s, round %q: %w", eventID, r.Name, ErrOpenRounds)
				}
			}
			return repo.CloseEvent(ctx, eventID)
		})
	})
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Locker.Close(); err != nil {
		errs = append(errs, fmt.Errorf("locker: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}

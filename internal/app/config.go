package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/blindtaste/internal/scoring"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	API struct {
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Locks struct {
		// RedisURL switches locking to redis; empty means in-process locks.
		RedisURL    string `toml:"redis_url"`
		KeyPrefix   string `toml:"key_prefix"`
		TTLSeconds  int    `toml:"ttl_seconds"`
		WaitSeconds int    `toml:"wait_seconds"`
	} `toml:"locks"`

	Scoring struct {
		Weights scoring.Weights     `toml:"weights"`
		Badges  []scoring.BadgeTier `toml:"badges"`
	} `toml:"scoring"`
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Locks.TTLSeconds) * time.Second
}

func (c *Config) LockWait() time.Duration {
	return time.Duration(c.Locks.WaitSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return ParseConfig(path, data)
}

// ParseConfig decodes TOML, fills in defaults and validates the result.
func ParseConfig(name string, data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			name,
			err,
			string(data),
		)
	}

	config.applyDefaults()

	if config.Server.Port == "" {
		return nil, fmt.Errorf("%w: server port is not specified in config, use a value like :9999", scoring.ErrInvalidConfig)
	}
	if config.Database.DSN == "" {
		return nil, fmt.Errorf("%w: database dsn is not specified in config", scoring.ErrInvalidConfig)
	}
	if config.Locks.TTLSeconds <= 0 || config.Locks.WaitSeconds < 0 {
		return nil, fmt.Errorf("%w: lock ttl must be positive and wait not negative", scoring.ErrInvalidConfig)
	}
	if err := config.Scoring.Weights.Validate(); err != nil {
		return nil, err
	}
	if _, err := scoring.NewBadgeClassifier(config.Scoring.Badges); err != nil {
		return nil, err
	}

	logger.Debug.Printf("Loaded scoring config: %+v", config.Scoring)

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "./migrations"
	}
	if c.Locks.KeyPrefix == "" {
		c.Locks.KeyPrefix = "blindtaste:lock:"
	}
	if c.Locks.TTLSeconds == 0 {
		c.Locks.TTLSeconds = 30
	}
	if c.Locks.WaitSeconds == 0 {
		c.Locks.WaitSeconds = 10
	}
	if c.Scoring.Weights == (scoring.Weights{}) {
		c.Scoring.Weights = scoring.DefaultWeights
	}
	if len(c.Scoring.Badges) == 0 {
		c.Scoring.Badges = append([]scoring.BadgeTier(nil), scoring.DefaultBadgeTiers...)
	}
}

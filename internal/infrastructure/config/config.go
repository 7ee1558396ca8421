package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// ReconcileAPIKey guards the manual pass endpoint. Empty disables it.
	ReconcileAPIKey string `env:"RECONCILE_API_KEY"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Progress ProgressConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=parcel_tracker"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type ProgressConfig struct {
	Interval      time.Duration `env:"PROGRESS_INTERVAL,    default=60s"`
	Concurrency   int           `env:"PROGRESS_CONCURRENCY, default=16"`
	LockTTL       time.Duration `env:"PROGRESS_LOCK_TTL,    default=55s"`
	NotifyWorkers int           `env:"NOTIFY_WORKERS,       default=8"`
}

// PassTimeout is how long one reconciliation pass may run: never past the
// next tick nor past the pass lock's expiry.
func (p ProgressConfig) PassTimeout() time.Duration {
	if p.LockTTL < p.Interval {
		return p.LockTTL
	}
	return p.Interval
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// IsProduction reports whether logs should be emitted as plain JSON.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadWith(envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Progress.Interval <= 0 {
		return fmt.Errorf("PROGRESS_INTERVAL must be positive, got %s", c.Progress.Interval)
	}
	if c.Progress.LockTTL <= 0 {
		return fmt.Errorf("PROGRESS_LOCK_TTL must be positive, got %s", c.Progress.LockTTL)
	}
	if c.Progress.Concurrency <= 0 {
		return fmt.Errorf("PROGRESS_CONCURRENCY must be positive, got %d", c.Progress.Concurrency)
	}
	return nil
}

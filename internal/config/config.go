// Package config resolves runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all runtime configuration.
type Config struct {
	// DBPath is the SQLite database file. Empty means the default data
	// directory location.
	DBPath string

	// Store selects the progress backend: "sqlite" or "postgres".
	Store string

	// DatabaseURL is the PostgreSQL connection string, required when
	// Store is "postgres".
	DatabaseURL string

	// RedisURL enables the Redis user lock when set.
	RedisURL string

	LogMode  string // "dev" or "prod"
	LogLevel string // zap level name

	// CatalogPath is a YAML achievement catalog. Empty uses the embedded
	// default catalog.
	CatalogPath string

	// EventRetention is how long processed-event dedup rows are kept.
	// Default: 720h.
	EventRetention time.Duration

	// LockTTL bounds how long a Redis user lock is held. Default: 10s.
	LockTTL time.Duration

	// PruneInterval is how often the maintenance job runs. Default: 1h.
	PruneInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store:          StoreSQLite,
		LogMode:        "dev",
		LogLevel:       "info",
		EventRetention: 720 * time.Hour,
		LockTTL:        10 * time.Second,
		PruneInterval:  time.Hour,
	}
}

// LoadDotEnv loads variables from the given .env files, or from ./.env when
// none are given. Missing files are ignored; variables already set in the
// environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("FLASHFUNGI_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FLASHFUNGI_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("FLASHFUNGI_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("FLASHFUNGI_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("FLASHFUNGI_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := os.Getenv("FLASHFUNGI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLASHFUNGI_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"FLASHFUNGI_EVENT_RETENTION", &cfg.EventRetention},
		{"FLASHFUNGI_LOCK_TTL", &cfg.LockTTL},
		{"FLASHFUNGI_PRUNE_INTERVAL", &cfg.PruneInterval},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("FLASHFUNGI_DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store: %q", c.Store)
	}

	if c.EventRetention <= 0 {
		return fmt.Errorf("event retention must be positive, got %s", c.EventRetention)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("lock ttl must be positive, got %s", c.LockTTL)
	}
	if c.PruneInterval <= 0 {
		return fmt.Errorf("prune interval must be positive, got %s", c.PruneInterval)
	}
	return nil
}

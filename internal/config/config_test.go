package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("FLASHFUNGI_STORE", "postgres")
	t.Setenv("FLASHFUNGI_DATABASE_URL", "postgres://localhost/flashfungi")
	t.Setenv("FLASHFUNGI_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FLASHFUNGI_EVENT_RETENTION", "24h")
	t.Setenv("FLASHFUNGI_LOCK_TTL", "3s")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Store != StorePostgres {
		t.Errorf("Store = %q, want postgres", cfg.Store)
	}
	if cfg.EventRetention != 24*time.Hour {
		t.Errorf("EventRetention = %s, want 24h", cfg.EventRetention)
	}
	if cfg.LockTTL != 3*time.Second {
		t.Errorf("LockTTL = %s, want 3s", cfg.LockTTL)
	}
	if cfg.PruneInterval != time.Hour {
		t.Errorf("PruneInterval = %s, want default 1h", cfg.PruneInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestConfigFromEnvBadDuration(t *testing.T) {
	t.Setenv("FLASHFUNGI_LOCK_TTL", "soon")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"sqlite default", func(*Config) {}, false},
		{"postgres without url", func(c *Config) { c.Store = StorePostgres }, true},
		{"postgres with url", func(c *Config) {
			c.Store = StorePostgres
			c.DatabaseURL = "postgres://x"
		}, false},
		{"unknown store", func(c *Config) { c.Store = "mongo" }, true},
		{"zero retention", func(c *Config) { c.EventRetention = 0 }, true},
		{"negative ttl", func(c *Config) { c.LockTTL = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FLASHFUNGI_CATALOG=/tmp/catalog.yaml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FLASHFUNGI_CATALOG", "")
	os.Unsetenv("FLASHFUNGI_CATALOG")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CatalogPath != "/tmp/catalog.yaml" {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Scrape.MaxPages != 250 {
		t.Fatalf("expected default max_pages 250, got %d", cfg.Scrape.MaxPages)
	}
	if cfg.Audit.Concurrency != 5 || cfg.Audit.DelaySeconds != 3 {
		t.Fatalf("expected audit defaults 5/3, got %d/%d", cfg.Audit.Concurrency, cfg.Audit.DelaySeconds)
	}
	if got := cfg.AuditDelay(); got != 3*time.Second {
		t.Fatalf("expected audit delay 3s, got %v", got)
	}
	if got := cfg.RateLimitWindow(); got != 60*time.Second {
		t.Fatalf("expected rate limit window 60s, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
auth:
  jwt_secret: secret
  internal_token: hush
db:
  dsn: postgres://foghorn@localhost/foghorn
scrape:
  limit: 25
  concurrency: 3
  max_pages: 100
audit:
  limit: 50
  concurrency: 2
  delay_seconds: 1
  api_key: pagespeed-key
ratelimit:
  max: 5
  window_seconds: 30
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "secret" || cfg.Auth.InternalToken != "hush" {
		t.Fatalf("expected auth overrides to apply: %+v", cfg.Auth)
	}
	if cfg.Scrape.Concurrency != 3 || cfg.Scrape.MaxPages != 100 {
		t.Fatalf("expected scrape overrides to apply: %+v", cfg.Scrape)
	}
	if cfg.Audit.APIKey != "pagespeed-key" || cfg.Audit.DelaySeconds != 1 {
		t.Fatalf("expected audit overrides to apply: %+v", cfg.Audit)
	}
	if cfg.Logging.Development {
		t.Fatal("expected logging.development false")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"zero scrape concurrency", func(c *Config) { c.Scrape.Concurrency = 0 }},
		{"zero max pages", func(c *Config) { c.Scrape.MaxPages = 0 }},
		{"negative delay", func(c *Config) { c.Audit.DelaySeconds = -1 }},
		{"zero rate limit", func(c *Config) { c.RateLimit.Max = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

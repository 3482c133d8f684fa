// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MaxWorkerConcurrency is the hard ceiling on pipeline workers. The
// audit runner talks to a paid, rate-limited third-party API, so
// requested concurrency above this is clamped, never honored.
const MaxWorkerConcurrency = 5

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	DB        DBConfig        `mapstructure:"db"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Audit     AuditConfig     `mapstructure:"audit"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig holds token signing and internal-route secrets.
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	InternalToken string `mapstructure:"internal_token"`
}

// DBConfig controls access to the document store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// ScrapeConfig governs the sitemap scrape runner.
type ScrapeConfig struct {
	Limit       int `mapstructure:"limit"`
	Concurrency int `mapstructure:"concurrency"`
	MaxPages    int `mapstructure:"max_pages"`
}

// AuditConfig governs the audit runner.
type AuditConfig struct {
	Limit        int    `mapstructure:"limit"`
	Concurrency  int    `mapstructure:"concurrency"`
	DelaySeconds int    `mapstructure:"delay_seconds"`
	APIKey       string `mapstructure:"api_key"`
	Endpoint     string `mapstructure:"endpoint"`
}

// RateLimitConfig controls the fixed-window limiter on auth routes.
type RateLimitConfig struct {
	Max           int `mapstructure:"max"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FOGHORN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("scrape.limit", 10)
	v.SetDefault("scrape.concurrency", 5)
	v.SetDefault("scrape.max_pages", 250)
	v.SetDefault("audit.limit", 10)
	v.SetDefault("audit.concurrency", 5)
	v.SetDefault("audit.delay_seconds", 3)
	v.SetDefault("audit.endpoint", "https://www.googleapis.com/pagespeedonline/v5/runPagespeed")
	v.SetDefault("ratelimit.max", 10)
	v.SetDefault("ratelimit.window_seconds", 60)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scrape.Concurrency <= 0 {
		return fmt.Errorf("scrape.concurrency must be > 0")
	}
	if c.Scrape.MaxPages <= 0 {
		return fmt.Errorf("scrape.max_pages must be > 0")
	}
	if c.Audit.Concurrency <= 0 {
		return fmt.Errorf("audit.concurrency must be > 0")
	}
	if c.Audit.DelaySeconds < 0 {
		return fmt.Errorf("audit.delay_seconds must be >= 0")
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("ratelimit.max and ratelimit.window_seconds must be > 0")
	}
	return nil
}

// AuditDelay returns the per-worker inter-request delay.
func (c Config) AuditDelay() time.Duration {
	return time.Duration(c.Audit.DelaySeconds) * time.Second
}

// RateLimitWindow returns the limiter window as a duration.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

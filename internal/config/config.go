// Package config loads and validates runtime configuration at startup.
// Values come from an optional YAML file with environment overrides; a .env
// file in the working directory is loaded first when present.
// Fail-fast: callers validate the fields their binary needs before wiring.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds configuration shared by the skout CLI and the skout-api service.
type Config struct {
	LogLevel       string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogDevelopment bool   `yaml:"log_development" env:"LOG_DEVELOPMENT" env-default:"false"`

	DatabaseURL    string `yaml:"-" env:"DATABASE_URL"` // Secret - not in YAML
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	RedisURL       string `yaml:"-" env:"REDIS_URL"`

	Search  SearchConfig  `yaml:"search"`
	Auth    AuthConfig    `yaml:"auth"`
	API     APIConfig     `yaml:"api"`
	Network NetworkConfig `yaml:"network"`
}

// SearchConfig controls the client side of a coach search.
type SearchConfig struct {
	BaseURL string        `yaml:"base_url" env:"SKOUT_API_URL" env-default:"http://localhost:8000"`
	Timeout time.Duration `yaml:"timeout" env:"SKOUT_SEARCH_TIMEOUT" env-default:"120s"`

	// Cosmetic stage pacing; unrelated to real request progress.
	ExtractingAfter  time.Duration `yaml:"extracting_after" env:"SKOUT_STAGE_EXTRACTING_AFTER" env-default:"4s"`
	NormalizingAfter time.Duration `yaml:"normalizing_after" env:"SKOUT_STAGE_NORMALIZING_AFTER" env-default:"8s"`

	Async        bool          `yaml:"async" env:"SKOUT_SEARCH_ASYNC" env-default:"false"`
	PollInterval time.Duration `yaml:"poll_interval" env:"SKOUT_SEARCH_POLL_INTERVAL" env-default:"3s"`
}

// AuthConfig holds token settings. The secret is only needed by skout-api.
type AuthConfig struct {
	JWTSecret   string        `yaml:"-" env:"SKOUT_JWT_SECRET"`
	TokenTTL    time.Duration `yaml:"token_ttl" env:"SKOUT_TOKEN_TTL" env-default:"1h"`
	SessionFile string        `yaml:"session_file" env:"SKOUT_SESSION_FILE" env-default:""`
}

// APIConfig holds skout-api settings.
type APIConfig struct {
	Port             string        `yaml:"port" env:"SKOUT_API_PORT" env-default:"8000"`
	AgentURL         string        `yaml:"agent_url" env:"SKOUT_AGENT_URL"`
	AgentTimeout     time.Duration `yaml:"agent_timeout" env:"SKOUT_AGENT_TIMEOUT" env-default:"110s"`
	CacheWindow      time.Duration `yaml:"cache_window" env:"SKOUT_CACHE_WINDOW" env-default:"24h"`
	JobStaleAfter    time.Duration `yaml:"job_stale_after" env:"SKOUT_JOB_STALE_AFTER" env-default:"15m"`
	HousekeepingSpec string        `yaml:"housekeeping_spec" env:"SKOUT_HOUSEKEEPING_SPEC" env-default:"@every 1h"`
}

// NetworkConfig controls the client connectivity probe.
type NetworkConfig struct {
	ProbeSpec    string        `yaml:"probe_spec" env:"SKOUT_PROBE_SPEC" env-default:"@every 15s"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" env:"SKOUT_PROBE_TIMEOUT" env-default:"5s"`
}

// Load reads path (if it exists) with environment overrides. An empty path
// or a missing file falls back to environment variables alone.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			return cfg, cfg.validateCommon()
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return cfg, cfg.validateCommon()
}

func (c *Config) validateCommon() error {
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("SKOUT_SEARCH_TIMEOUT must be positive, got %s", c.Search.Timeout)
	}
	if c.Search.NormalizingAfter < c.Search.ExtractingAfter {
		return fmt.Errorf("SKOUT_STAGE_NORMALIZING_AFTER (%s) must not precede SKOUT_STAGE_EXTRACTING_AFTER (%s)",
			c.Search.NormalizingAfter, c.Search.ExtractingAfter)
	}
	return nil
}

// ValidateClient checks the fields the skout CLI needs.
func (c *Config) ValidateClient() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Search.BaseURL == "" {
		return fmt.Errorf("SKOUT_API_URL is required")
	}
	return nil
}

// ValidateAPI checks the fields skout-api needs.
func (c *Config) ValidateAPI() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("SKOUT_JWT_SECRET is required")
	}
	if c.API.AgentURL == "" {
		return fmt.Errorf("SKOUT_AGENT_URL is required")
	}
	if c.API.CacheWindow <= 0 {
		return fmt.Errorf("SKOUT_CACHE_WINDOW must be positive, got %s", c.API.CacheWindow)
	}
	return nil
}

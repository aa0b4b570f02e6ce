package catalogservice

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/illmade-knight/go-catalog/pkg/cachestore"
)

// Config holds the configuration for the catalog facade service. Values are
// read from a YAML file first, then overridden by environment variables.
type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	HTTPPort string `yaml:"http_port" env:"HTTP_PORT"`

	APIBaseURL string        `yaml:"api_base_url" env:"API_BASE_URL"`
	APITimeout time.Duration `yaml:"api_timeout" env:"API_TIMEOUT"`

	// RedisEnabled switches the cache store from the default in-memory
	// backend to Redis.
	RedisEnabled bool                   `yaml:"redis_enabled" env:"REDIS_ENABLED"`
	Redis        cachestore.RedisConfig `yaml:"redis"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		HTTPPort: ":8080",
	}
}

// LoadConfig reads configuration from the given YAML file (skipped when path
// is empty) and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must be set")
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("http_port must be set")
	}
	if c.RedisEnabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must be set when redis is enabled")
	}
	return nil
}

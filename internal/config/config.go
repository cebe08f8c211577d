// Package config defines configuration for the kfda-download CLI,
// merged from defaults, an optional YAML file, KFDA_* environment
// variables, and command-line flags (highest precedence).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the downloader CLI.
type Config struct {
	APIKey     string      `yaml:"api_key"`
	Output     string      `yaml:"output"`
	SQLite     string      `yaml:"sqlite"`
	IncludeAll bool        `yaml:"include_all"`
	LogLevel   string      `yaml:"log_level"`
	Pretty     bool        `yaml:"pretty"`
	Retry      RetryConfig `yaml:"retry"`
}

// RetryConfig defines the download loop's wait behavior.
type RetryConfig struct {
	Attempts      int           `yaml:"attempts"`
	Backoff       time.Duration `yaml:"backoff"`
	RateLimitWait time.Duration `yaml:"rate_limit_wait"`
	PageDelay     time.Duration `yaml:"page_delay"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Output:   "data/kfda_foods.json",
		LogLevel: "info",
		Retry: RetryConfig{
			Attempts:      3,
			Backoff:       5 * time.Second,
			RateLimitWait: 60 * time.Second,
			PageDelay:     200 * time.Millisecond,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	APIKey     string          `yaml:"api_key"`
	Output     string          `yaml:"output"`
	SQLite     string          `yaml:"sqlite"`
	IncludeAll bool            `yaml:"include_all"`
	LogLevel   string          `yaml:"log_level"`
	Pretty     bool            `yaml:"pretty"`
	Retry      yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts      int    `yaml:"attempts"`
	Backoff       string `yaml:"backoff"`
	RateLimitWait string `yaml:"rate_limit_wait"`
	PageDelay     string `yaml:"page_delay"`
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.APIKey != "" {
		cfg.APIKey = yc.APIKey
	}
	if yc.Output != "" {
		cfg.Output = yc.Output
	}
	if yc.SQLite != "" {
		cfg.SQLite = yc.SQLite
	}
	cfg.IncludeAll = yc.IncludeAll
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
	cfg.Pretty = yc.Pretty
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.RateLimitWait != "" {
		d, err := time.ParseDuration(yc.Retry.RateLimitWait)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.rate_limit_wait: %w", err)
		}
		cfg.Retry.RateLimitWait = d
	}
	if yc.Retry.PageDelay != "" {
		d, err := time.ParseDuration(yc.Retry.PageDelay)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.page_delay: %w", err)
		}
		cfg.Retry.PageDelay = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the KFDA_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("KFDA_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("KFDA_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("KFDA_SQLITE"); v != "" {
		c.SQLite = v
	}
	if v := os.Getenv("KFDA_INCLUDE_ALL"); v != "" {
		c.IncludeAll = v == "true" || v == "1"
	}
	if v := os.Getenv("KFDA_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("KFDA_PRETTY"); v != "" {
		c.Pretty = v == "true" || v == "1"
	}
	if v := os.Getenv("KFDA_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse KFDA_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("KFDA_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse KFDA_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("KFDA_RATE_LIMIT_WAIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse KFDA_RATE_LIMIT_WAIT: %w", err)
		}
		c.Retry.RateLimitWait = d
	}
	if v := os.Getenv("KFDA_PAGE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse KFDA_PAGE_DELAY: %w", err)
		}
		c.Retry.PageDelay = d
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("config: api key is required")
	}
	if c.Output == "" {
		return errors.New("config: output path is required")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry.attempts must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.APIKey != "" {
		c.APIKey = override.APIKey
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.SQLite != "" {
		c.SQLite = override.SQLite
	}
	if override.IncludeAll {
		c.IncludeAll = true
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if override.Pretty {
		c.Pretty = true
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.RateLimitWait != 0 {
		c.Retry.RateLimitWait = override.Retry.RateLimitWait
	}
	if override.Retry.PageDelay != 0 {
		c.Retry.PageDelay = override.Retry.PageDelay
	}
	return c
}

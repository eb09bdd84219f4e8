// Package config provides process configuration for tensd/tensctl.
//
// Grounded on axonops/internal/config's Load (YAML file + env var override +
// Validate) shape, scaled down to this module's much smaller configuration
// surface, plus fsnotify-driven reload (Watch) that hands each freshly
// parsed Config to a callback. tensd applies only the GC interval from a
// reloaded Config; the logger and store root are fixed at startup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration for tensd and tensctl.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// StoreConfig configures the TokenMemory on-disk root and GC cadence.
type StoreConfig struct {
	Root           string `yaml:"root"`
	GCIntervalSecs int    `yaml:"gc_interval_seconds"`
}

// TokenizerConfig configures the default model and context limit.
type TokenizerConfig struct {
	DefaultModel       string `yaml:"default_model"`
	MaxContextTokens   int    `yaml:"max_context_tokens"`
	WarmEncodingsAtBoot bool  `yaml:"warm_encodings_at_boot"`
}

// LoggingConfig configures slog output. It is read once when the logger is
// built; a config reload does not change it.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, text
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig configures the Prometheus /metrics listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns a Config with sane defaults for local/dev use.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Root:           "./tens-data",
			GCIntervalSecs: 3600,
		},
		Tokenizer: TokenizerConfig{
			DefaultModel:        "gpt-4o",
			MaxContextTokens:    0,
			WarmEncodingsAtBoot: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Load reads path (if non-empty) as YAML over the defaults, then applies
// TENS_*-prefixed environment variable overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TENS_STORE_ROOT"); v != "" {
		c.Store.Root = v
	}
	if v := os.Getenv("TENS_STORE_GC_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.GCIntervalSecs = n
		}
	}
	if v := os.Getenv("TENS_TOKENIZER_DEFAULT_MODEL"); v != "" {
		c.Tokenizer.DefaultModel = v
	}
	if v := os.Getenv("TENS_TOKENIZER_MAX_CONTEXT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Tokenizer.MaxContextTokens = n
		}
	}
	if v := os.Getenv("TENS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TENS_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("TENS_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
}

// Validate checks invariants Load must enforce before returning.
func (c *Config) Validate() error {
	if c.Store.Root == "" {
		return fmt.Errorf("store.root must not be empty")
	}
	if c.Store.GCIntervalSecs < 0 {
		return fmt.Errorf("store.gc_interval_seconds must be >= 0")
	}
	if c.Tokenizer.MaxContextTokens < 0 {
		return fmt.Errorf("tokenizer.max_context_tokens must be >= 0")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// Package config loads and validates the daemon configuration from a
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/actiond/actiond/internal/auth"
	"github.com/actiond/actiond/internal/tracing"
)

// Config is the complete daemon configuration.
type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	Backend  BackendConfig  `yaml:"backend"`
	Packs    PacksConfig    `yaml:"packs"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Tracing  tracing.Config `yaml:"tracing"`
}

// ListenConfig configures the HTTP listener.
type ListenConfig struct {
	// Addr is the TCP address to bind, e.g. "127.0.0.1:9101".
	// Environment: ACTIOND_LISTEN_ADDR
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// BackendConfig selects and configures the execution store.
type BackendConfig struct {
	// Type is "memory" or "sqlite".
	Type string `yaml:"type"`

	// Path is the SQLite database file, used when Type is "sqlite".
	// Environment: ACTIOND_DB_PATH
	Path string `yaml:"path,omitempty"`

	// WALMode enables SQLite write-ahead logging.
	WALMode bool `yaml:"wal_mode"`
}

// PacksConfig configures action pack loading.
type PacksConfig struct {
	// Dir is a directory of YAML action definitions loaded at startup.
	// Empty disables pack loading.
	Dir string `yaml:"dir,omitempty"`

	// Watch reloads actions when files in Dir change.
	Watch bool `yaml:"watch"`
}

// DispatchConfig configures the live action backend.
type DispatchConfig struct {
	// BaseURL is the execution backend's API root.
	// Environment: ACTIOND_DISPATCH_URL
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each dispatch call.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// AuthConfig configures API authentication and throttling.
type AuthConfig struct {
	// Token enables bearer authentication when non-empty.
	// Environment: ACTIOND_AUTH_TOKEN
	Token string `yaml:"token,omitempty"`

	// RateLimit throttles per-client request rates.
	RateLimit auth.RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level,omitempty"`

	// Format is json or text.
	Format string `yaml:"format,omitempty"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Addr:            "127.0.0.1:9101",
			ShutdownTimeout: 15 * time.Second,
		},
		Backend: BackendConfig{
			Type:    "memory",
			WALMode: true,
		},
		Dispatch: DispatchConfig{
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the config file at path, applies defaults and environment
// overrides and validates the result. An empty path skips the file and
// uses defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config. Environment
// wins over the file so deployments can override without editing it.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ACTIOND_LISTEN_ADDR"); v != "" {
		cfg.Listen.Addr = v
	}
	if v := os.Getenv("ACTIOND_DB_PATH"); v != "" {
		cfg.Backend.Type = "sqlite"
		cfg.Backend.Path = v
	}
	if v := os.Getenv("ACTIOND_PACKS_DIR"); v != "" {
		cfg.Packs.Dir = v
	}
	if v := os.Getenv("ACTIOND_DISPATCH_URL"); v != "" {
		cfg.Dispatch.BaseURL = v
	}
	if v := os.Getenv("ACTIOND_AUTH_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	if v := os.Getenv("ACTIOND_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ACTIOND_TRACING_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tracing.Enabled = enabled
		}
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.Backend.Type {
	case "memory":
	case "sqlite":
		if c.Backend.Path == "" {
			return fmt.Errorf("backend.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend type: %q", c.Backend.Type)
	}

	if c.Listen.Addr == "" {
		return fmt.Errorf("listen.addr is required")
	}
	if c.Dispatch.Timeout < 0 {
		return fmt.Errorf("dispatch.timeout must not be negative")
	}
	if c.Packs.Watch && c.Packs.Dir == "" {
		return fmt.Errorf("packs.watch requires packs.dir")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	return nil
}

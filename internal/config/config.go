// Package config loads service configuration from an optional TOML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full service configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Pricing  PricingConfig  `toml:"pricing"`
	Jobs     JobsConfig     `toml:"jobs"`
	Schedule ScheduleConfig `toml:"schedule"`
}

type ServerConfig struct {
	Port               string   `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"` // empty = any origin
	ShutdownTimeout    string   `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path     string `toml:"path"`
	LogLevel string `toml:"log_level"` // gorm logger: "silent", "error", "warn", "info"
}

type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "console" or "json"
}

// CatalogConfig configures the public card catalog API
type CatalogConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// PricingConfig configures the key-authenticated graded price API
type PricingConfig struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	Timeout         string `toml:"timeout"`
	RequestInterval string `toml:"request_interval"` // minimum gap between calls
	CacheSize       int    `toml:"cache_size"`       // product search results kept in memory
}

type JobsConfig struct {
	MaxReportedErrors int `toml:"max_reported_errors"`
	SlabDefaultLimit  int `toml:"slab_default_limit"`
}

// ScheduleConfig holds optional cron specs; an empty spec leaves that job unscheduled
type ScheduleConfig struct {
	Enabled    bool   `toml:"enabled"`
	Sets       string `toml:"sets"`
	Cards      string `toml:"cards"`
	SlabPrices string `toml:"slab_prices"`
	SetValues  string `toml:"set_values"`
}

// Default returns the configuration used when no file or env overrides are present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: "30s",
		},
		Database: DatabaseConfig{
			Path:     "./op_tracker.db",
			LogLevel: "warn",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Catalog: CatalogConfig{
			BaseURL: "https://optcgapi.com/api",
			Timeout: "30s",
		},
		Pricing: PricingConfig{
			BaseURL:         "https://www.pricecharting.com/api",
			Timeout:         "15s",
			RequestInterval: "500ms",
			CacheSize:       512,
		},
		Jobs: JobsConfig{
			MaxReportedErrors: 10,
			SlabDefaultLimit:  20,
		},
		Schedule: ScheduleConfig{
			Sets:       "0 3 * * *",
			Cards:      "30 3 * * *",
			SlabPrices: "0 5 * * 1",
			SetValues:  "0 6 * * *",
		},
	}
}

// Load reads the TOML file at path (if any) over the defaults and then applies env overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// defaults + env only
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("OPTCG_API_BASE"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("PRICECHARTING_API_BASE"); v != "" {
		c.Pricing.BaseURL = v
	}
	if v := os.Getenv("PRICECHARTING_API_KEY"); v != "" {
		c.Pricing.APIKey = v
	}
	if v := os.Getenv("PRICECHARTING_REQUEST_INTERVAL"); v != "" {
		c.Pricing.RequestInterval = v
	}
	if v := os.Getenv("SYNC_MAX_REPORTED_ERRORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Jobs.MaxReportedErrors = n
		}
	}
	if v := os.Getenv("SYNC_SCHEDULE_ENABLED"); v != "" {
		c.Schedule.Enabled = v == "true"
	}
}

// Validate checks values that would otherwise fail later at a less useful place.
// Missing API keys are not checked here: jobs that need them fail at invocation.
func (c *Config) Validate() error {
	for name, d := range map[string]string{
		"server.shutdown_timeout":  c.Server.ShutdownTimeout,
		"catalog.timeout":          c.Catalog.Timeout,
		"pricing.timeout":          c.Pricing.Timeout,
		"pricing.request_interval": c.Pricing.RequestInterval,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid duration for %s: %q", name, d)
		}
	}
	if c.Jobs.MaxReportedErrors <= 0 {
		return fmt.Errorf("jobs.max_reported_errors must be positive, got %d", c.Jobs.MaxReportedErrors)
	}
	if c.Jobs.SlabDefaultLimit <= 0 {
		return fmt.Errorf("jobs.slab_default_limit must be positive, got %d", c.Jobs.SlabDefaultLimit)
	}
	if c.Pricing.CacheSize <= 0 {
		return fmt.Errorf("pricing.cache_size must be positive, got %d", c.Pricing.CacheSize)
	}
	return nil
}

// Duration parses a duration that Validate has already checked
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

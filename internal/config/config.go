// Package config loads the TOML configuration file and applies defaults and
// validation. Everything runtime-tunable lives here; packages receive their
// section, never the whole config.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Export   ExportConfig   `toml:"export"`
	Weather  WeatherConfig  `toml:"weather"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	StaticDir      string   `toml:"static_dir"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ExportConfig holds export and report settings.
type ExportConfig struct {
	// MaxTelemetryPoints caps the series length served to the UI and
	// applied before chart-oriented exports. Full resolution is always
	// available by requesting zero.
	MaxTelemetryPoints int  `toml:"max_telemetry_points"`
	ImperialUnits      bool `toml:"imperial_units"`
}

// WeatherConfig holds the Open-Meteo client settings.
type WeatherConfig struct {
	Enabled               bool   `toml:"enabled"`
	APIBaseURL            string `toml:"api_base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	MaxRetries            int    `toml:"max_retries"`
	CacheExpiryHours      int    `toml:"cache_expiry_hours"`
}

// RequestTimeout returns the timeout as a duration.
func (c WeatherConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// CacheExpiry returns the cache TTL as a duration.
func (c WeatherConfig) CacheExpiry() time.Duration {
	return time.Duration(c.CacheExpiryHours) * time.Hour
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8420,
			StaticDir:      "web",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "skylog.db",
		},
		Export: ExportConfig{
			MaxTelemetryPoints: 5000,
		},
		Weather: WeatherConfig{
			Enabled:               true,
			APIBaseURL:            "https://archive-api.open-meteo.com",
			RequestTimeoutSeconds: 10,
			MaxRetries:            3,
			CacheExpiryHours:      24,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the TOML file at path, layered over the defaults. A missing
// file is not an error: the defaults run as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Export.MaxTelemetryPoints < 0 {
		return fmt.Errorf("max_telemetry_points must not be negative")
	}
	if c.Weather.Enabled {
		if c.Weather.APIBaseURL == "" {
			return fmt.Errorf("weather api_base_url must not be empty when weather is enabled")
		}
		if c.Weather.RequestTimeoutSeconds <= 0 {
			return fmt.Errorf("weather request_timeout_seconds must be positive")
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	return nil
}

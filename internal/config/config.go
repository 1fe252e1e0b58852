package config

import (
	"fmt"
	log "log/slog"
	"strings"
	"time"

	apperrors "github.com/axellelanca/portfolio/internal/errors"
	"github.com/spf13/viper"
)

// Supported database drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server ServerConfig `mapstructure:"server"`

	// Database configuration section for the durable store
	Database DatabaseConfig `mapstructure:"database"`

	// Metrics configuration for view/like recording
	Metrics struct {
		StoreTimeoutSeconds int `mapstructure:"store_timeout_seconds"` // Deadline of one store round trip
		ViewWindowMinutes   int `mapstructure:"view_window_minutes"`   // Views from the same visitor inside this window count once
	} `mapstructure:"metrics"`

	// Monitor configuration for the aggregate consistency audit
	Monitor struct {
		Enabled  bool   `mapstructure:"enabled"`
		Schedule string `mapstructure:"schedule"` // cron spec, e.g. "@every 15m"
		Workers  int    `mapstructure:"workers"`  // Slugs audited in parallel
		Repair   bool   `mapstructure:"repair"`   // Rewrite drifted aggregates from the log
	} `mapstructure:"monitor"`

	Content struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"content"`

	// Contact form throttle, per visitor key
	Contact struct {
		RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
		Burst             int     `mapstructure:"burst"`
	} `mapstructure:"contact"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // json or text
	} `mapstructure:"log"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Port                   int      `mapstructure:"port"`
	Mode                   string   `mapstructure:"mode"` // gin mode: debug, release, test
	TrustedProxies         []string `mapstructure:"trusted_proxies"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds"`
}

// DatabaseConfig holds the store connection settings
type DatabaseConfig struct {
	Driver                 string `mapstructure:"driver"` // sqlite or mysql
	Name                   string `mapstructure:"name"`   // SQLite database file name
	DSN                    string `mapstructure:"dsn"`    // MySQL data source name
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	BusyTimeoutMS          int    `mapstructure:"busy_timeout_ms"`
}

// StoreTimeout returns the per-operation store deadline.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Metrics.StoreTimeoutSeconds) * time.Second
}

// ViewWindow returns the view rate window.
func (c *Config) ViewWindow() time.Duration {
	return time.Duration(c.Metrics.ViewWindowMinutes) * time.Minute
}

// SetDefaults registers the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.name", "portfolio.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime_minutes", 30)
	v.SetDefault("database.busy_timeout_ms", 5000)
	v.SetDefault("metrics.store_timeout_seconds", 5)
	v.SetDefault("metrics.view_window_minutes", 60)
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.schedule", "@every 15m")
	v.SetDefault("monitor.workers", 4)
	v.SetDefault("monitor.repair", false)
	v.SetDefault("content.dir", "./content")
	v.SetDefault("contact.requests_per_minute", 5)
	v.SetDefault("contact.burst", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig loads the application configuration using Viper.
// It supports environment variable overrides and YAML configuration files.
// Returns a populated Config struct or an error if configuration loading fails.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// e.g., "server.port" becomes "SERVER_PORT"
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AddConfigPath("./configs")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Not fatal: defaults and environment still apply
			log.Debug("Config file not found, using default values")
		} else {
			// Any other error (permissions, malformed YAML, etc.) is fatal
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug("Configuration loaded",
		"port", cfg.Server.Port,
		"driver", cfg.Database.Driver,
		"view_window", cfg.ViewWindow(),
		"monitor_schedule", cfg.Monitor.Schedule)

	return &cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Name == "" {
			return fmt.Errorf("%w: database.name is required for sqlite", apperrors.ErrInvalidConfig)
		}
	case DriverMySQL:
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database.dsn is required for mysql", apperrors.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database.driver %q", apperrors.ErrInvalidConfig, c.Database.Driver)
	}
	if c.Metrics.StoreTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: metrics.store_timeout_seconds must be positive", apperrors.ErrInvalidConfig)
	}
	if c.Metrics.ViewWindowMinutes <= 0 {
		return fmt.Errorf("%w: metrics.view_window_minutes must be positive", apperrors.ErrInvalidConfig)
	}
	if c.Monitor.Workers <= 0 {
		c.Monitor.Workers = 1
	}
	return nil
}

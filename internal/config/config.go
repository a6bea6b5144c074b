// Package config loads sms-bridge configuration from an optional YAML file,
// a .env file and SMSBRIDGE_* environment variables, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	Inbox     InboxConfig     `mapstructure:"inbox"`
	Events    EventsConfig    `mapstructure:"events"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json; empty picks by env
}

// StoreConfig selects and configures the metadata store backend
type StoreConfig struct {
	Backend       string `mapstructure:"backend"` // memory, sqlite, redis, postgres
	Path          string `mapstructure:"path"`
	RedisURL      string `mapstructure:"redis_url"`
	PostgresURL   string `mapstructure:"postgres_url"`
	Namespace     string `mapstructure:"namespace"`
	WarnThreshold int    `mapstructure:"warn_threshold"`
	WatchSchedule string `mapstructure:"watch_schedule"`
}

// InboxConfig selects the device inbox source
type InboxConfig struct {
	Source     string `mapstructure:"source"` // sqlite, backup
	Path       string `mapstructure:"path"`
	Permission string `mapstructure:"permission"` // auto, granted, denied
}

// EventsConfig configures realtime event sinks
type EventsConfig struct {
	RedisURL  string `mapstructure:"redis_url"`
	Stream    string `mapstructure:"stream"`
	Autostart bool   `mapstructure:"autostart"`
}

// SchedulerConfig toggles background jobs
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Store backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Inbox sources
const (
	SourceSQLite = "sqlite"
	SourceBackup = "backup"
)

// Permission modes
const (
	PermissionAuto    = "auto"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// DefaultConfig returns a new configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Backend:       BackendSQLite,
			Path:          "./data/sms-bridge.db",
			Namespace:     "sms_sync_prefs",
			WarnThreshold: 1000,
			WatchSchedule: "@every 5m",
		},
		Inbox: InboxConfig{
			Source:     SourceSQLite,
			Path:       "/data/data/com.android.providers.telephony/databases/mmssms.db",
			Permission: PermissionAuto,
		},
		Events: EventsConfig{
			Stream:    "smsbridge:events",
			Autostart: true,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from file and environment. An empty configPath
// searches ./config.yaml and $HOME/.config/sms-bridge/config.yaml.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SMSBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sms-bridge")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis backend")
		}
	case BackendPostgres:
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("store.postgres_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be memory, sqlite, redis, or postgres)", c.Store.Backend)
	}

	if c.Store.Namespace == "" {
		return fmt.Errorf("store.namespace is required")
	}
	if c.Store.WarnThreshold < 0 {
		return fmt.Errorf("store.warn_threshold must not be negative")
	}

	if c.Inbox.Source != SourceSQLite && c.Inbox.Source != SourceBackup {
		return fmt.Errorf("invalid inbox source: %s (must be sqlite or backup)", c.Inbox.Source)
	}
	if c.Inbox.Path == "" {
		return fmt.Errorf("inbox.path is required")
	}

	switch c.Inbox.Permission {
	case PermissionAuto, PermissionGranted, PermissionDenied:
	default:
		return fmt.Errorf("invalid inbox permission: %s (must be auto, granted, or denied)", c.Inbox.Permission)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("env", defaults.Env)
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", defaults.Server.IdleTimeout)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("store.backend", defaults.Store.Backend)
	v.SetDefault("store.path", defaults.Store.Path)
	v.SetDefault("store.redis_url", defaults.Store.RedisURL)
	v.SetDefault("store.postgres_url", defaults.Store.PostgresURL)
	v.SetDefault("store.namespace", defaults.Store.Namespace)
	v.SetDefault("store.warn_threshold", defaults.Store.WarnThreshold)
	v.SetDefault("store.watch_schedule", defaults.Store.WatchSchedule)
	v.SetDefault("inbox.source", defaults.Inbox.Source)
	v.SetDefault("inbox.path", defaults.Inbox.Path)
	v.SetDefault("inbox.permission", defaults.Inbox.Permission)
	v.SetDefault("events.redis_url", defaults.Events.RedisURL)
	v.SetDefault("events.stream", defaults.Events.Stream)
	v.SetDefault("events.autostart", defaults.Events.Autostart)
	v.SetDefault("scheduler.enabled", defaults.Scheduler.Enabled)
}

// Package config loads the runtime configuration from the environment.
//
// Variables are read with the REPOKIT_ prefix; a double underscore
// separates nesting levels, so REPOKIT_DATABASE__MAX_OPEN_CONNS sets
// database.max_open_conns. A .env file in the working directory is
// loaded first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "REPOKIT_"

const (
	EnvLocal       = "local"
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the root of the runtime configuration.
type Config struct {
	Env      string         `koanf:"env" validate:"required,oneof=local development production"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Log      LogConfig      `koanf:"log" validate:"required"`
}

// DatabaseConfig describes the store to connect to. URI selects the
// driver by scheme: sqlite://, mysql://, postgres:// or postgresql://.
// Driver only applies to PostgreSQL URIs and picks between pgx and lib/pq.
type DatabaseConfig struct {
	URI             string        `koanf:"uri" validate:"required"`
	Driver          string        `koanf:"driver" validate:"omitempty,oneof=pgx postgres"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
	PingTimeout     time.Duration `koanf:"ping_timeout" validate:"gt=0"`
}

// LogConfig controls the level and content of the structured log.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`
	// Queries logs every SQL statement at debug level.
	Queries bool `koanf:"queries"`
}

// Option adjusts the loaded configuration before it is validated.
type Option func(*Config)

// WithDatabaseURI overrides database.uri when uri is not empty.
func WithDatabaseURI(uri string) Option {
	return func(c *Config) {
		if uri != "" {
			c.Database.URI = uri
		}
	}
}

// WithLogLevel overrides log.level when level is not empty.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		if level != "" {
			c.Log.Level = level
		}
	}
}

func defaults() *Config {
	return &Config{
		Env: EnvLocal,
		Database: DatabaseConfig{
			Driver:       "pgx",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
			PingTimeout:  10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the environment over the defaults, applies opts and
// validates the result.
func Load(opts ...Option) (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// IsLocal reports whether the process runs on a developer machine.
func (c *Config) IsLocal() bool { return c.Env == EnvLocal }

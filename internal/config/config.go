// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Store struct {
		Driver      string `mapstructure:"driver"`
		PostgresURL string `mapstructure:"postgres_url"`
		MaxConns    int32  `mapstructure:"max_conns"`
		SQLitePath  string `mapstructure:"sqlite_path"`
	} `mapstructure:"store"`

	Backfill struct {
		UpdateConcurrency int    `mapstructure:"update_concurrency"`
		CategoryTableFile string `mapstructure:"category_table_file"`
	} `mapstructure:"backfill"`

	Server struct {
		Addr                string `mapstructure:"addr"`
		ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	} `mapstructure:"server"`
}

// Load reads configuration from defaults, an optional config file and the
// environment. Env var overrides use prefix BACKFILL_ (e.g.
// BACKFILL_STORE_DRIVER). An explicit cfgFile must exist.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.expense-backfill")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("BACKFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("store.postgres_url", "BACKFILL_STORE_POSTGRES_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind DATABASE_URL: %w", err)
	}

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.postgres_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.sqlite_path", "./data/backfill.db")

	v.SetDefault("backfill.update_concurrency", 16)
	v.SetDefault("backfill.category_table_file", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 120)
}

func validate(cfg *Config) error {
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", cfg.Log.Format)
	}

	switch cfg.Store.Driver {
	case DriverPostgres:
		if cfg.Store.PostgresURL == "" {
			return fmt.Errorf("store.postgres_url (or DATABASE_URL) is required for the postgres driver")
		}
		if cfg.Store.MaxConns < 1 {
			return fmt.Errorf("store.max_conns must be positive, got: %d", cfg.Store.MaxConns)
		}
	case DriverSQLite:
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store driver: %s (must be '%s' or '%s')", cfg.Store.Driver, DriverPostgres, DriverSQLite)
	}

	if cfg.Backfill.UpdateConcurrency < 0 {
		return fmt.Errorf("backfill.update_concurrency must not be negative, got: %d", cfg.Backfill.UpdateConcurrency)
	}
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}

// LoadEnv loads environment variables from a .env file in the working
// directory if one exists. Variables already set are not overridden.
func LoadEnv() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

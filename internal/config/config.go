// Package config loads playersheet's settings from defaults, an optional
// YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kyzn-15/g-sheet-api/internal/logger"
	"github.com/kyzn-15/g-sheet-api/internal/paths"
	"github.com/kyzn-15/g-sheet-api/internal/store"
	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// AppConfig holds the complete configuration for the server.
type AppConfig struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	ServiceName string            `mapstructure:"service_name"`
	Server      ServerConfig      `mapstructure:"server"`
	Sheet       types.SheetConfig `mapstructure:"sheet"`
	Store       StoreConfig       `mapstructure:"store"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreConfig struct {
	RetryMaxAttempts int           `mapstructure:"retry_max_attempts"`
	SettleDelay      time.Duration `mapstructure:"settle_delay"`
}

// Load reads configuration from the file at path, if any, then the
// environment. A PORT variable replaces the port of server.addr.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "playersheet")
	v.SetDefault("server.addr", "127.0.0.1:5000")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("sheet.backend", types.BackendGoogle)
	v.SetDefault("sheet.spreadsheet_name", "Tugas Informatika")
	v.SetDefault("sheet.spreadsheet_id", "")
	v.SetDefault("sheet.worksheet", "Sheet1")
	v.SetDefault("sheet.credentials_file", "credentials.json")
	v.SetDefault("sheet.data_dir", "")
	v.SetDefault("store.retry_max_attempts", 2)
	v.SetDefault("store.settle_delay", time.Second)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("server.addr", "SERVER_ADDR")
	v.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")
	v.BindEnv("sheet.backend", "SHEET_BACKEND")
	v.BindEnv("sheet.spreadsheet_name", "SHEET_SPREADSHEET_NAME")
	v.BindEnv("sheet.spreadsheet_id", "SHEET_SPREADSHEET_ID")
	v.BindEnv("sheet.worksheet", "SHEET_WORKSHEET")
	v.BindEnv("sheet.credentials_file", "SHEET_CREDENTIALS_FILE")
	v.BindEnv("sheet.data_dir", "SHEET_DATA_DIR")
	v.BindEnv("store.retry_max_attempts", "STORE_RETRY_MAX_ATTEMPTS")
	v.BindEnv("store.settle_delay", "STORE_SETTLE_DELAY")
	v.BindEnv("port", "PORT")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if port := v.GetString("port"); port != "" {
		addr, err := withPort(config.Server.Addr, port)
		if err != nil {
			return nil, err
		}
		config.Server.Addr = addr
	}

	if config.Sheet.Backend == types.BackendSQLite {
		dir, err := paths.ResolveDataDir("", config.Sheet.DataDir)
		if err != nil {
			return nil, fmt.Errorf("resolving data dir: %w", err)
		}
		config.Sheet.DataDir = dir
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	if c.Store.RetryMaxAttempts < 1 {
		return errors.New("store.retry_max_attempts must be at least 1")
	}
	if c.Store.SettleDelay < 0 {
		return errors.New("store.settle_delay must not be negative")
	}
	if err := c.Sheet.Validate(); err != nil {
		return fmt.Errorf("sheet: %w", err)
	}
	return nil
}

// Logger returns the logger settings.
func (c *AppConfig) Logger() logger.Config {
	return logger.Config{
		Level:       c.LogLevel,
		Environment: c.Environment,
		ServiceName: c.ServiceName,
	}
}

// StoreOptions returns the row store settings.
func (c *AppConfig) StoreOptions() store.Options {
	return store.Options{
		RetryMaxAttempts: c.Store.RetryMaxAttempts,
		SettleDelay:      c.Store.SettleDelay,
	}
}

// withPort replaces the port of addr, keeping its host.
func withPort(addr, port string) (string, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("server.addr %q: %w", addr, err)
	}
	return net.JoinHostPort(host, port), nil
}

// Package config loads process configuration from the environment.
//
// An optional .env file in the working directory is read first; variables
// already set in the environment win over it. cmd/server flags override both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/nbot-engine/generic"
)

type Config struct {
	App       AppConfig
	Storage   StorageConfig
	Warehouse WarehouseConfig
	Rules     RulesConfig
	Refresh   RefreshConfig
	CORS      CORSConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// StorageConfig locates the SQLite store for imports and the run log.
type StorageConfig struct {
	Path string
}

// WarehouseConfig selects the analytical warehouse. An empty DSN means
// reports read from the SQLite store instead.
type WarehouseConfig struct {
	DSN   string
	Table string
}

type RulesConfig struct {
	File string
}

// RefreshConfig drives the scheduled weekly region refresh. No regions
// disables it. WeekAnchor is any date on which workweeks start; it also
// sets the default report period of the API.
type RefreshConfig struct {
	Regions    []string
	Interval   time.Duration
	WeekAnchor generic.TimePoint
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from .env and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.Storage = StorageConfig{
		Path: getEnv("DB_PATH", "./data/nbot.db"),
	}
	config.Warehouse = WarehouseConfig{
		DSN:   getEnv("WAREHOUSE_DSN", ""),
		Table: getEnv("WAREHOUSE_TABLE", ""),
	}
	config.Rules = RulesConfig{
		File: getEnv("RULES_FILE", ""),
	}

	interval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	anchor, err := generic.ParseDate(getEnv("WEEK_ANCHOR", "2024-01-01"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEEK_ANCHOR: %w", err)
	}
	config.Refresh = RefreshConfig{
		Regions:    getEnvSlice("REFRESH_REGIONS"),
		Interval:   interval,
		WeekAnchor: anchor,
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ORIGINS"),
	}
	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT out of range: %d", c.App.Port)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if len(c.Refresh.Regions) > 0 && c.Refresh.Interval < time.Minute {
		return fmt.Errorf("REFRESH_INTERVAL must be at least 1m, got %s", c.Refresh.Interval)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", c.App.LogLevel)
	}
	return level, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

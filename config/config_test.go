package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/nbot-engine/config"
)

var keys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "DB_PATH", "WAREHOUSE_DSN", "WAREHOUSE_TABLE",
	"RULES_FILE", "REFRESH_REGIONS", "REFRESH_INTERVAL", "WEEK_ANCHOR", "CORS_ORIGINS",
}

// clearEnv blanks every key for the test; getEnv treats empty as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "./data/nbot.db", cfg.Storage.Path)
	assert.Empty(t, cfg.Warehouse.DSN)
	assert.Empty(t, cfg.Refresh.Regions)
	assert.Equal(t, 24*time.Hour, cfg.Refresh.Interval)
	assert.Equal(t, "2024-01-01", cfg.Refresh.WeekAnchor.String())
	assert.Equal(t, time.Monday, cfg.Refresh.WeekAnchor.Weekday())
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.IsProduction())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_EnvironmentAndDotenv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REFRESH_REGIONS", "West, East ,,")
	t.Setenv("WEEK_ANCHOR", "2024-01-07")

	envFile := filepath.Join(t.TempDir(), ".env")
	// godotenv does not override variables already present, even when empty,
	// so the dotenv-only keys are unset first.
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	require.NoError(t, os.Unsetenv("RULES_FILE"))
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\nRULES_FILE=/etc/nbot/rules.json\nAPP_PORT=1\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("LOG_LEVEL")
		_ = os.Unsetenv("RULES_FILE")
	})

	cfg, err := config.LoadFile(envFile)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port, "environment wins over .env")
	assert.Equal(t, "/etc/nbot/rules.json", cfg.Rules.File)
	assert.Equal(t, []string{"West", "East"}, cfg.Refresh.Regions)
	assert.Equal(t, time.Sunday, cfg.Refresh.WeekAnchor.Weekday())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_Invalid(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port not a number", map[string]string{"APP_PORT": "http"}},
		{"port out of range", map[string]string{"APP_PORT": "70000"}},
		{"bad interval", map[string]string{"REFRESH_INTERVAL": "weekly"}},
		{"interval too short", map[string]string{"REFRESH_REGIONS": "West", "REFRESH_INTERVAL": "5s"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad week anchor", map[string]string{"WEEK_ANCHOR": "monday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadFile(missing)
			assert.Error(t, err)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./data/todoapp.db", cfg.DSN())
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.toml")
	content := `
http_addr = ":9000"
db_driver = "memory"
log_level = "debug"
read_timeout = "3s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("WRITE_TIMEOUT", "7s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 7*time.Second, cfg.WriteTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_InvalidEnvValuesFallBack(t *testing.T) {
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("TELEGRAM_DEBUG", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.False(t, cfg.TelegramDebug)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"memory", func(c *Config) { c.DBDriver = "memory" }, false},
		{"postgres without url", func(c *Config) { c.DBDriver = "postgres" }, true},
		{"postgres with url", func(c *Config) {
			c.DBDriver = "postgres"
			c.DatabaseURL = "postgres://localhost/tasks"
		}, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"empty addr", func(c *Config) { c.HTTPAddr = "" }, true},
		{"empty sqlite path", func(c *Config) { c.SQLitePath = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDSN_Postgres(t *testing.T) {
	cfg := Default()
	cfg.DBDriver = "postgres"
	cfg.DatabaseURL = "postgres://db/tasks"
	assert.Equal(t, "postgres://db/tasks", cfg.DSN())
}

package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OIDC_PROVIDER_URL", "https://id.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, SequencerMax, cfg.Sequencer)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, AuthOIDC, cfg.OIDC.Mode)
	assert.Empty(t, cfg.Sentry.DSN)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("QUEUE_SEQUENCER", "redis")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("RATE_LIMIT_MAX", "0")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, SequencerRedis, cfg.Sequencer)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, 100, cfg.RateLimit.Max, "non-positive limit falls back to default")
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "https://key@sentry.example/1", cfg.Sentry.DSN)
	assert.Equal(t, AuthDev, cfg.OIDC.Mode, "memory backend defaults to dev auth")
}

func TestLoadAuthMode(t *testing.T) {
	t.Run("postgres needs a provider", func(t *testing.T) {
		_, err := Load()
		assert.ErrorContains(t, err, "OIDC_PROVIDER_URL")
	})

	t.Run("explicit dev mode", func(t *testing.T) {
		t.Setenv("AUTH_MODE", "dev")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, StoragePostgres, cfg.Storage)
		assert.Equal(t, AuthDev, cfg.OIDC.Mode)
	})

	t.Run("memory backend with oidc", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "memory")
		t.Setenv("AUTH_MODE", "oidc")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadRejectsUnknownModes(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"storage", "STORAGE_BACKEND", "sqlite"},
		{"sequencer", "QUEUE_SEQUENCER", "global"},
		{"db port", "DB_PORT", "abc"},
		{"rate limit max", "RATE_LIMIT_MAX", "lots"},
		{"rate limit window", "RATE_LIMIT_WINDOW_SECONDS", "1m"},
		{"auth mode", "AUTH_MODE", "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OIDC_PROVIDER_URL", "https://id.example")
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	d := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())

	d.SSLRootCert = "/ca.pem"
	assert.Contains(t, d.DSN(), "sslrootcert=/ca.pem")
}

package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-tracker/internal/config"
	"media-tracker/internal/database"
	"media-tracker/internal/middleware"
	"media-tracker/internal/router"
	"media-tracker/internal/service"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")

	flag := root.PersistentFlags().Lookup("swagger")
	require.NotNil(t, flag)
	assert.Equal(t, "docs/swagger.yaml", flag.DefValue)
}

func memoryConfig(sequencer string) *config.Config {
	return &config.Config{
		Storage:   config.StorageMemory,
		Sequencer: sequencer,
		RateLimit: config.RateLimitConfig{Max: 100, WindowSeconds: 60},
		TMDB:      config.TMDBConfig{BaseURL: "https://tmdb.test/3"},
		OIDC:      config.OIDCConfig{Mode: config.AuthDev},
	}
}

func TestBuildDepsMemoryBackend(t *testing.T) {
	ctx := context.Background()

	cfg := memoryConfig(config.SequencerMax)
	cfg.MetricsEnabled = true
	deps, err := buildDeps(ctx, cfg, &database.Stores{})
	require.NoError(t, err)
	assert.IsType(t, &middleware.LocalRateLimiter{}, deps.RateLimiter)
	assert.NotNil(t, deps.Metrics)

	app := router.NewApp(deps)
	req := httptest.NewRequest("GET", router.APIPrefix+"/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRedisSequencerSelected(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig(config.SequencerRedis)
	cfg.Redis = config.RedisConfig{Addr: mr.Addr()}

	stores, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close(context.Background()) })

	b, err := newBackend(context.Background(), cfg, stores)
	require.NoError(t, err)
	_, ok := newSequencer(cfg, stores, b).(*service.RedisSequencer)
	assert.True(t, ok)

	deps, err := buildDeps(context.Background(), cfg, stores)
	require.NoError(t, err)
	assert.IsType(t, &middleware.RateLimiter{}, deps.RateLimiter)
	assert.Nil(t, deps.Metrics)
}

func TestSwaggerTitle(t *testing.T) {
	title, err := swaggerTitle([]byte("openapi: 3.0.3\ninfo:\n  title: Media Tracker API\n  version: 1.0.0\n"))
	require.NoError(t, err)
	assert.Equal(t, "Media Tracker API", title)

	_, err = swaggerTitle([]byte("info: [unclosed"))
	assert.Error(t, err)
}

func TestInitSentryDisabledWithoutDSN(t *testing.T) {
	enabled, err := initSentry(config.SentryConfig{})
	require.NoError(t, err)
	assert.False(t, enabled)
}

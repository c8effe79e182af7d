package database

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-tracker/internal/config"
)

func memoryConfig(redisAddr, sequencer string) *config.Config {
	return &config.Config{
		Storage:   config.StorageMemory,
		Sequencer: sequencer,
		Redis:     config.RedisConfig{Addr: redisAddr},
	}
}

func TestOpenMemoryWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := Open(ctx, memoryConfig(mr.Addr(), config.SequencerRedis))
	require.NoError(t, err)
	assert.Nil(t, s.SQL)
	assert.Nil(t, s.Mongo)
	require.NotNil(t, s.Redis)
	require.NoError(t, s.Redis.Set(ctx, "k", "v", 0).Err())

	require.NoError(t, s.Close(ctx))
}

func TestOpenWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	ctx := context.Background()

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	// Redis is optional for the max sequencer.
	s, err := Open(ctx, memoryConfig(addr, config.SequencerMax))
	require.NoError(t, err)
	assert.Nil(t, s.Redis)
	require.NoError(t, s.Close(ctx))

	// The caller picks the limiter fallback; Open only reports the outage.
	assert.Contains(t, logs.String(), "Redis unavailable, continuing without it")
	assert.NotContains(t, logs.String(), "rate limiting disabled")

	// The redis sequencer cannot run without it.
	_, err = Open(ctx, memoryConfig(addr, config.SequencerRedis))
	assert.ErrorContains(t, err, "redis sequencer")
}

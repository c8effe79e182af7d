package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-tracker/internal/models"
	"media-tracker/internal/repository/memory"
)

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	svc := NewSettingsService(memory.NewStore())
	ctx := context.Background()

	s, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultReadingSpeed, s.ReadingSpeed)
	assert.Equal(t, models.DefaultEpisodeRuntime, s.EpisodeRuntime)

	s, err = svc.Update(ctx, "alice", models.UpdateSettingsRequest{ReadingSpeed: 1.5})
	require.NoError(t, err)
	assert.Equal(t, 1.5, s.ReadingSpeed)
	assert.Equal(t, models.DefaultEpisodeRuntime, s.EpisodeRuntime)

	rate, err := svc.Rate(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1.5, rate.PagesPerMinute)
	assert.Equal(t, 30, rate.EpisodeRuntime)
}

func TestSettingsValidation(t *testing.T) {
	svc := NewSettingsService(memory.NewStore())

	for _, req := range []models.UpdateSettingsRequest{
		{ReadingSpeed: 0},
		{ReadingSpeed: -1},
		{ReadingSpeed: math.Inf(1)},
		{ReadingSpeed: 1, EpisodeRuntime: -5},
	} {
		_, err := svc.Update(context.Background(), "alice", req)
		assert.ErrorIs(t, err, ErrValidation, "%+v", req)
	}
}

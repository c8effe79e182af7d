package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"media-tracker/internal/models"
	"media-tracker/internal/progress"
)

// SettingsService manages per-user conversion settings.
type SettingsService struct {
	repo SettingsStore
}

func NewSettingsService(repo SettingsStore) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the user's settings, or the defaults when none are stored.
func (s *SettingsService) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings, err := s.repo.GetSettings(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return models.DefaultSettings(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, userID string, req models.UpdateSettingsRequest) (*models.UserSettings, error) {
	if req.ReadingSpeed <= 0 || math.IsNaN(req.ReadingSpeed) || math.IsInf(req.ReadingSpeed, 0) {
		return nil, invalid("readingSpeed must be greater than 0")
	}
	if req.EpisodeRuntime < 0 {
		return nil, invalid("episodeRuntime must not be negative")
	}
	runtime := req.EpisodeRuntime
	if runtime == 0 {
		runtime = models.DefaultEpisodeRuntime
	}

	saved, err := s.repo.UpsertSettings(ctx, &models.UserSettings{
		UserID:         userID,
		ReadingSpeed:   req.ReadingSpeed,
		EpisodeRuntime: runtime,
	})
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return saved, nil
}

// Rate returns the conversion rate for the user's settings.
func (s *SettingsService) Rate(ctx context.Context, userID string) (progress.Rate, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return progress.Rate{}, err
	}
	return progress.RateFor(settings), nil
}

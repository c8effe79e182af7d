package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"media-tracker/internal/models"
)

// SettingsRepository stores per-user conversion settings.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSettings returns the user's stored settings.
func (r *SettingsRepository) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var s models.UserSettings
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, reading_speed, episode_runtime, updated_at
		FROM user_settings WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.ReadingSpeed, &s.EpisodeRuntime, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

// UpsertSettings creates or replaces the user's settings.
func (r *SettingsRepository) UpsertSettings(ctx context.Context, s *models.UserSettings) (*models.UserSettings, error) {
	var out models.UserSettings
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_settings (user_id, reading_speed, episode_runtime, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			reading_speed = EXCLUDED.reading_speed,
			episode_runtime = EXCLUDED.episode_runtime,
			updated_at = NOW()
		RETURNING user_id, reading_speed, episode_runtime, updated_at
	`, s.UserID, s.ReadingSpeed, s.EpisodeRuntime).Scan(
		&out.UserID, &out.ReadingSpeed, &out.EpisodeRuntime, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert settings: %w", err)
	}
	return &out, nil
}

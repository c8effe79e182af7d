package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"media-tracker/internal/config"
)

// NewPostgres creates a new PostgreSQL connection.
func NewPostgres(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	slog.Info("connected to PostgreSQL", "db", cfg.DBName)
	return db, nil
}

// Migrate creates the relational schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS media_items (
			id VARCHAR(36) PRIMARY KEY,
			owner_id VARCHAR(255) NOT NULL,
			title VARCHAR(500) NOT NULL,
			category VARCHAR(255) NOT NULL,
			media_type VARCHAR(10) NOT NULL CHECK (media_type IN ('book', 'movie', 'tv', 'game')),
			duration INTEGER NOT NULL DEFAULT 0 CHECK (duration >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS progress (
			media_item_id VARCHAR(36) PRIMARY KEY REFERENCES media_items(id) ON DELETE CASCADE,
			user_id VARCHAR(255) NOT NULL,
			queue_number INTEGER NOT NULL,
			completed_duration INTEGER NOT NULL DEFAULT 0 CHECK (completed_duration >= 0),
			percent_complete INTEGER NOT NULL DEFAULT 0 CHECK (percent_complete BETWEEN 0 AND 100),
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id VARCHAR(36) PRIMARY KEY,
			media_item_id VARCHAR(36) NOT NULL REFERENCES media_items(id) ON DELETE CASCADE,
			author_id VARCHAR(255) NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS replies (
			id VARCHAR(36) PRIMARY KEY,
			comment_id VARCHAR(36) NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
			author_id VARCHAR(255) NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS friend_requests (
			id VARCHAR(36) PRIMARY KEY,
			sender_id VARCHAR(255) NOT NULL,
			receiver_id VARCHAR(255) NOT NULL,
			status VARCHAR(10) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'declined')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (sender_id <> receiver_id)
		)`,
		`CREATE TABLE IF NOT EXISTS friends (
			user_id VARCHAR(255) NOT NULL,
			friend_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, friend_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_settings (
			user_id VARCHAR(255) PRIMARY KEY,
			reading_speed DOUBLE PRECISION NOT NULL DEFAULT 1 CHECK (reading_speed > 0),
			episode_runtime INTEGER NOT NULL DEFAULT 30 CHECK (episode_runtime >= 0),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Indexes for common query patterns
		`CREATE INDEX IF NOT EXISTS idx_media_items_owner ON media_items(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_user_queue ON progress(user_id, queue_number)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_item ON comments(media_item_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_replies_comment ON replies(comment_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_receiver ON friend_requests(receiver_id, status)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_friend_requests_pending
			ON friend_requests(sender_id, receiver_id) WHERE status = 'pending'`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed")
	return nil
}

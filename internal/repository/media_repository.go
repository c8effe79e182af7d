package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"media-tracker/internal/models"
)

// MediaRepository handles database operations for media items and their
// progress records.
type MediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new MediaRepository.
func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

const selectItem = `
	SELECT m.id, m.owner_id, m.title, m.category, m.media_type, m.duration,
		p.completed_duration, p.percent_complete, p.queue_number, p.completed,
		m.created_at, p.updated_at
	FROM media_items m
	INNER JOIN progress p ON p.media_item_id = m.id`

// CreateItem inserts the item and its progress record in one transaction.
func (r *MediaRepository) CreateItem(ctx context.Context, item *models.MediaItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO media_items (id, owner_id, title, category, media_type, duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.OwnerID, item.Title, item.Category, string(item.MediaType), item.Duration, item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert media item: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO progress (media_item_id, user_id, queue_number, completed_duration,
			percent_complete, completed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.OwnerID, item.QueueNumber, item.CompletedDuration,
		item.PercentComplete, item.Completed, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}

	return tx.Commit()
}

// GetItem returns one of the owner's items.
func (r *MediaRepository) GetItem(ctx context.Context, ownerID, id string) (*models.MediaItem, error) {
	row := r.db.QueryRowContext(ctx, selectItem+` WHERE m.id = $1 AND m.owner_id = $2`, id, ownerID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media item: %w", err)
	}
	return item, nil
}

// ItemOwner returns the owner of an item regardless of who is asking.
func (r *MediaRepository) ItemOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM media_items WHERE id = $1`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get item owner: %w", err)
	}
	return owner, nil
}

// ListItems returns the owner's items ordered by queue number.
func (r *MediaRepository) ListItems(ctx context.Context, ownerID string) ([]models.MediaItem, error) {
	return r.queryItems(ctx, selectItem+`
		WHERE m.owner_id = $1
		ORDER BY p.queue_number, m.created_at`, ownerID)
}

// ListIncomplete returns the owner's items whose progress is not completed.
func (r *MediaRepository) ListIncomplete(ctx context.Context, ownerID string) ([]models.MediaItem, error) {
	return r.queryItems(ctx, selectItem+`
		WHERE p.user_id = $1 AND p.completed = FALSE
		ORDER BY p.queue_number, m.created_at`, ownerID)
}

// ListCategories returns the category of each of the owner's items in
// queue order. Duplicates are left to the caller.
func (r *MediaRepository) ListCategories(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.category
		FROM media_items m
		INNER JOIN progress p ON p.media_item_id = m.id
		WHERE m.owner_id = $1
		ORDER BY p.queue_number, m.created_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// MaxQueueNumber returns the highest queue number among the user's own
// progress records, or 0 when there are none.
func (r *MediaRepository) MaxQueueNumber(ctx context.Context, userID string) (int, error) {
	var maxQueue sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(queue_number) FROM progress WHERE user_id = $1`, userID,
	).Scan(&maxQueue)
	if err != nil {
		return 0, fmt.Errorf("query max queue number: %w", err)
	}
	return int(maxQueue.Int64), nil
}

// UpdateProgress stores the item's progress fields.
func (r *MediaRepository) UpdateProgress(ctx context.Context, item *models.MediaItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE progress
		SET completed_duration = $1, percent_complete = $2, completed = $3, updated_at = $4
		WHERE media_item_id = $5 AND user_id = $6
	`, item.CompletedDuration, item.PercentComplete, item.Completed, item.UpdatedAt, item.ID, item.OwnerID)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return expectOneRow(res)
}

// DeleteItem removes an item. Progress, comments and replies cascade.
func (r *MediaRepository) DeleteItem(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media_items WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete media item: %w", err)
	}
	return expectOneRow(res)
}

func (r *MediaRepository) queryItems(ctx context.Context, query string, args ...any) ([]models.MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media items: %w", err)
	}
	defer rows.Close()

	items := make([]models.MediaItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			slog.Error("failed to scan media item row", "error", err)
			continue
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.MediaItem, error) {
	var (
		item      models.MediaItem
		mediaType string
		updatedAt sql.NullTime
	)
	err := s.Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Category, &mediaType, &item.Duration,
		&item.CompletedDuration, &item.PercentComplete, &item.QueueNumber, &item.Completed,
		&item.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.MediaType = models.MediaType(mediaType)
	item.UpdatedAt = updatedAt.Time
	if !updatedAt.Valid {
		item.UpdatedAt = item.CreatedAt
	}
	return &item, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func now() time.Time { return time.Now().UTC() }

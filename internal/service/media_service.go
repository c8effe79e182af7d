package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"media-tracker/internal/models"
	"media-tracker/internal/progress"
)

// GoalAdvancer receives the progress an item update earned.
type GoalAdvancer interface {
	AdvanceKeys(ctx context.Context, ownerID string, keys []string, delta models.LockProgress) error
}

// MediaService handles business logic for media items.
type MediaService struct {
	repo     MediaStore
	seq      Sequencer
	settings *SettingsService
	goals    GoalAdvancer
	events   Events
}

// NewMediaService creates a new MediaService. goals may be nil.
func NewMediaService(repo MediaStore, seq Sequencer, settings *SettingsService, goals GoalAdvancer) *MediaService {
	return &MediaService{
		repo:     repo,
		seq:      seq,
		settings: settings,
		goals:    goals,
		events:   noEvents{},
	}
}

// WithEvents routes item events to e.
func (s *MediaService) WithEvents(e Events) *MediaService {
	s.events = e
	return s
}

// Create validates and stores a new item at the end of the owner's queue.
func (s *MediaService) Create(ctx context.Context, ownerID string, req models.CreateMediaItemRequest) (*models.MediaItem, error) {
	title := strings.TrimSpace(req.Title)
	category := strings.TrimSpace(req.Category)
	if title == "" {
		return nil, invalid("title is required")
	}
	if category == "" {
		return nil, invalid("category is required")
	}
	mediaType, err := models.ParseMediaType(req.MediaType)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if req.Duration < 0 || req.Episodes < 0 {
		return nil, invalid("duration and episodes must not be negative")
	}
	if req.Episodes > 0 && !mediaType.Episodic() {
		return nil, invalid("episodes only apply to tv items")
	}

	duration := req.Duration
	if duration == 0 && req.Episodes > 0 {
		rate, err := s.settings.Rate(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		duration = progress.TVDurationMinutes(req.Episodes, rate.EpisodeRuntime)
	}

	queueNumber, err := s.seq.Next(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("assign queue number: %w", err)
	}

	now := time.Now().UTC()
	item := &models.MediaItem{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Category:    category,
		MediaType:   mediaType,
		Duration:    duration,
		QueueNumber: queueNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create media item: %w", err)
	}
	s.events.ItemCreated(item.MediaType)
	slog.Info("media item created", "user_id", ownerID, "item_id", item.ID, "queue_number", queueNumber)
	return item, nil
}

func (s *MediaService) Get(ctx context.Context, ownerID, id string) (*models.MediaItem, error) {
	item, err := s.repo.GetItem(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get media item: %w", err)
	}
	return item, nil
}

// List returns the owner's items in queue order.
func (s *MediaService) List(ctx context.Context, ownerID string) ([]models.MediaItem, error) {
	items, err := s.repo.ListItems(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list media items: %w", err)
	}
	return items, nil
}

// Incomplete returns the owner's unfinished items in queue order.
func (s *MediaService) Incomplete(ctx context.Context, ownerID string) ([]models.MediaItem, error) {
	items, err := s.repo.ListIncomplete(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list incomplete media items: %w", err)
	}
	return items, nil
}

// Categories returns the owner's distinct categories in first-seen queue order.
func (s *MediaService) Categories(ctx context.Context, ownerID string) ([]string, error) {
	raw, err := s.repo.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	seen := make(map[string]bool, len(raw))
	categories := make([]string, 0, len(raw))
	for _, c := range raw {
		if seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
	}
	return categories, nil
}

// NextQueueNumber reports the number the owner's next item would get.
func (s *MediaService) NextQueueNumber(ctx context.Context, ownerID string) (int, error) {
	n, err := s.seq.Peek(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("peek queue number: %w", err)
	}
	return n, nil
}

// Delete removes an item together with its comments and replies.
func (s *MediaService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteItem(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete media item: %w", err)
	}
	return nil
}

// UpdateProgress records a progress entry against an item. Entries add to
// the completed amount unless Reset is set, in which case the entry
// replaces it. Completed units are capped at the item's duration. Any gain
// is forwarded to the owner's goal locks for the item, its category and
// its media type.
func (s *MediaService) UpdateProgress(ctx context.Context, ownerID, id string, entry models.ProgressEntry) (*models.ProgressResponse, error) {
	if entry.Pages < 0 || entry.Minutes < 0 || entry.Episodes < 0 {
		return nil, invalid("progress values must not be negative")
	}

	item, err := s.repo.GetItem(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get media item: %w", err)
	}
	rate, err := s.settings.Rate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	units := progress.Completed(item.MediaType, entry, rate)
	before := item.CompletedDuration
	after := before + units
	if entry.Reset {
		after = units
	}
	if item.Duration > 0 {
		after = min(after, item.Duration)
	}

	item.CompletedDuration = after
	item.PercentComplete = progress.Percent(after, item.Duration)
	item.Completed = item.Duration > 0 && after >= item.Duration
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateProgress(ctx, item); err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}
	s.events.ProgressRecorded(item.MediaType)

	if s.goals != nil {
		delta := progress.Delta(item.MediaType, before, after, rate)
		keys := []string{item.ID, item.Category, string(item.MediaType)}
		if err := s.goals.AdvanceKeys(ctx, ownerID, keys, delta); err != nil {
			slog.Error("failed to forward progress to goals", "user_id", ownerID, "item_id", item.ID, "error", err)
		}
	}

	return &models.ProgressResponse{
		Item:     item,
		Progress: progress.Snapshot(item.MediaType, item.Duration, after, rate),
	}, nil
}

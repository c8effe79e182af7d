package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"media-tracker/internal/models"
	"media-tracker/internal/progress"
)

// LockResult is the outcome of a progress update on a lock. Cleared is set
// when the update completed the goal and the lock was cleared.
type LockResult struct {
	Lock    *models.LockedItem
	Cleared *models.ClearedItem
}

// errAlreadyCleared means a concurrent clear recorded the lock first.
var errAlreadyCleared = errors.New("lock already cleared")

// LockService runs the goal lock lifecycle: unlocked, locked, cleared.
type LockService struct {
	store  LockStore
	events Events
	now    func() time.Time
}

func NewLockService(store LockStore) *LockService {
	return &LockService{
		store:  store,
		events: noEvents{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithEvents routes goal events to e.
func (s *LockService) WithEvents(e Events) *LockService {
	s.events = e
	return s
}

// Lookup returns the owner's lock for keyParent. A missing lock is reported
// through Found, not as an error.
func (s *LockService) Lookup(ctx context.Context, ownerID, keyParent string) (models.LockLookup, error) {
	keyParent = strings.TrimSpace(keyParent)
	if keyParent == "" {
		return models.LockLookup{}, invalid("keyParent is required")
	}
	lock, err := s.store.FindLock(ctx, ownerID, keyParent)
	return lookup(keyParent, lock, err)
}

// LookupItem returns the owner's lock keyed by itemID or targeting it.
func (s *LockService) LookupItem(ctx context.Context, ownerID, itemID string) (models.LockLookup, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return models.LockLookup{}, invalid("itemId is required")
	}
	lock, err := s.store.FindLockForItem(ctx, ownerID, itemID)
	return lookup(itemID, lock, err)
}

func lookup(key string, lock *models.LockedItem, err error) (models.LockLookup, error) {
	if errors.Is(err, ErrNotFound) {
		return models.LockLookup{KeyParent: key}, nil
	}
	if err != nil {
		return models.LockLookup{}, fmt.Errorf("find lock: %w", err)
	}
	return models.LockLookup{KeyParent: lock.KeyParent, Found: true, Item: lock}, nil
}

// List returns the owner's active locks.
func (s *LockService) List(ctx context.Context, ownerID string) ([]models.LockedItem, error) {
	locks, err := s.store.ListLocks(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	return locks, nil
}

// Create sets a new goal. An existing lock for the same key is a conflict;
// it has to be cleared first.
func (s *LockService) Create(ctx context.Context, ownerID string, req models.CreateLockRequest) (*models.LockedItem, error) {
	itemID := strings.TrimSpace(req.TargetItemID())
	keyParent := strings.TrimSpace(req.KeyParent)
	if keyParent == "" {
		keyParent = itemID
	}
	if keyParent == "" {
		return nil, invalid("keyParent is required")
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"goalTime", req.GoalTime},
		{"goalPages", req.GoalPages},
		{"goalEpisodes", req.GoalEpisodes},
		{"timeComplete", req.TimeComplete},
		{"pagesComplete", req.PagesComplete},
		{"episodesComplete", req.EpisodesComplete},
		{"percentComplete", req.PercentComplete},
	} {
		if f.v < 0 {
			return nil, invalid("%s must not be negative", f.name)
		}
	}
	if req.GoalTime == 0 && req.GoalPages == 0 && req.GoalEpisodes == 0 {
		return nil, invalid("at least one goal must be set")
	}

	now := s.now()
	lock := &models.LockedItem{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		KeyParent:        keyParent,
		ItemID:           itemID,
		Locked:           true,
		GoalTime:         req.GoalTime,
		GoalPages:        req.GoalPages,
		GoalEpisodes:     req.GoalEpisodes,
		TimeComplete:     req.TimeComplete,
		PagesComplete:    req.PagesComplete,
		EpisodesComplete: req.EpisodesComplete,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	lock.PercentComplete = min(max(req.PercentComplete, goalPercent(lock)), 100)

	if err := s.store.InsertLock(ctx, lock); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("%w: a goal is already locked for %q", ErrConflict, keyParent)
		}
		return nil, fmt.Errorf("create lock: %w", err)
	}
	s.events.GoalLocked()
	slog.Info("goal locked", "user_id", ownerID, "key_parent", keyParent)
	return lock, nil
}

// Advance adds delta to the lock's progress. Negative amounts are ignored,
// delta.PercentComplete adds to the stored percentage, and the percentage
// never decreases. The lock is cleared once it reaches 100.
func (s *LockService) Advance(ctx context.Context, ownerID, keyParent string, delta models.LockProgress) (*LockResult, error) {
	delta = nonNegative(delta)

	var (
		lock *models.LockedItem
		err  error
	)
	if delta.Minutes > 0 || delta.Pages > 0 || delta.Episodes > 0 {
		lock, err = s.store.IncrementProgress(ctx, ownerID, keyParent, delta)
	} else {
		lock, err = s.store.FindLock(ctx, ownerID, keyParent)
	}
	if err != nil {
		return nil, fmt.Errorf("advance lock: %w", err)
	}

	pct := min(max(goalPercent(lock), lock.PercentComplete+delta.PercentComplete), 100)
	return s.raisePercent(ctx, lock, pct)
}

// SetProgress raises each progress field to at least the supplied value.
// Stored values above the supplied ones are kept.
func (s *LockService) SetProgress(ctx context.Context, ownerID, keyParent string, floor models.LockProgress) (*LockResult, error) {
	floor = nonNegative(floor)
	floor.PercentComplete = min(floor.PercentComplete, 100)

	lock, err := s.store.RaiseProgress(ctx, ownerID, keyParent, floor)
	if err != nil {
		return nil, fmt.Errorf("set lock progress: %w", err)
	}
	return s.raisePercent(ctx, lock, goalPercent(lock))
}

func (s *LockService) raisePercent(ctx context.Context, lock *models.LockedItem, pct int) (*LockResult, error) {
	if pct > lock.PercentComplete {
		raised, err := s.store.RaiseProgress(ctx, lock.OwnerID, lock.KeyParent, models.LockProgress{PercentComplete: pct})
		if err != nil {
			return nil, fmt.Errorf("raise lock percent: %w", err)
		}
		lock = raised
	}
	if lock.PercentComplete < 100 {
		return &LockResult{Lock: lock}, nil
	}

	cleared, err := s.clear(ctx, lock)
	if errors.Is(err, errAlreadyCleared) {
		return &LockResult{Lock: lock}, nil
	}
	if err != nil {
		return nil, err
	}
	return &LockResult{Lock: lock, Cleared: cleared}, nil
}

// AdvanceKeys forwards delta to every lock of the owner keyed by one of
// keys. Keys without a lock are skipped.
func (s *LockService) AdvanceKeys(ctx context.Context, ownerID string, keys []string, delta models.LockProgress) error {
	if delta.IsZero() {
		return nil
	}
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if _, err := s.Advance(ctx, ownerID, key, delta); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// Clear moves the owner's lock for keyParent into the cleared log.
func (s *LockService) Clear(ctx context.Context, ownerID, keyParent string) (*models.ClearedItem, error) {
	keyParent = strings.TrimSpace(keyParent)
	if keyParent == "" {
		return nil, invalid("keyParent is required")
	}
	lock, err := s.store.FindLock(ctx, ownerID, keyParent)
	if err != nil {
		return nil, fmt.Errorf("find lock: %w", err)
	}
	cleared, err := s.clear(ctx, lock)
	if errors.Is(err, errAlreadyCleared) {
		return nil, fmt.Errorf("%w: goal %q was already cleared", ErrNotFound, keyParent)
	}
	return cleared, err
}

// clear copies the lock into the cleared log, then deletes it by id. A
// failed copy leaves the lock in place. Each lock is recorded once: when a
// concurrent clear got there first, clear finishes its delete and returns
// errAlreadyCleared.
func (s *LockService) clear(ctx context.Context, lock *models.LockedItem) (*models.ClearedItem, error) {
	cleared := &models.ClearedItem{
		ID:               uuid.NewString(),
		LockID:           lock.ID,
		OwnerID:          lock.OwnerID,
		KeyParent:        lock.KeyParent,
		ItemID:           lock.ItemID,
		GoalTime:         lock.GoalTime,
		GoalPages:        lock.GoalPages,
		GoalEpisodes:     lock.GoalEpisodes,
		TimeComplete:     lock.TimeComplete,
		PagesComplete:    lock.PagesComplete,
		EpisodesComplete: lock.EpisodesComplete,
		PercentComplete:  lock.PercentComplete,
		CreatedAt:        lock.CreatedAt,
		ClearedAt:        s.now(),
	}
	err := s.store.InsertCleared(ctx, cleared)
	duplicate := errors.Is(err, ErrConflict)
	if err != nil && !duplicate {
		return nil, fmt.Errorf("record cleared lock: %w", err)
	}
	if err := s.store.DeleteLock(ctx, lock.OwnerID, lock.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("delete cleared lock: %w", err)
	}
	if duplicate {
		return nil, errAlreadyCleared
	}
	s.events.GoalCleared()
	slog.Info("goal cleared", "user_id", lock.OwnerID, "key_parent", lock.KeyParent, "percent", lock.PercentComplete)
	return cleared, nil
}

// History returns the owner's cleared goals, newest first.
func (s *LockService) History(ctx context.Context, ownerID string) ([]models.ClearedItem, error) {
	items, err := s.store.ListCleared(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list cleared locks: %w", err)
	}
	return items, nil
}

// goalPercent is the least complete of the lock's non-zero goals, rounded
// down so that 100 means every goal is met.
func goalPercent(l *models.LockedItem) int {
	pct := -1
	for _, g := range [][2]int{
		{l.TimeComplete, l.GoalTime},
		{l.PagesComplete, l.GoalPages},
		{l.EpisodesComplete, l.GoalEpisodes},
	} {
		if g[1] <= 0 {
			continue
		}
		if p := progress.FloorPercent(g[0], g[1]); pct < 0 || p < pct {
			pct = p
		}
	}
	return max(pct, 0)
}

func nonNegative(p models.LockProgress) models.LockProgress {
	return models.LockProgress{
		Minutes:         max(p.Minutes, 0),
		Pages:           max(p.Pages, 0),
		Episodes:        max(p.Episodes, 0),
		PercentComplete: max(p.PercentComplete, 0),
	}
}

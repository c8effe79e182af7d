package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-tracker/internal/models"
	"media-tracker/internal/repository/memory"
)

func TestLockLookupUnlockedDefault(t *testing.T) {
	svc := NewLockService(memory.NewStore())

	l, err := svc.Lookup(context.Background(), "alice", "fiction")
	require.NoError(t, err)
	assert.False(t, l.Found)
	assert.Nil(t, l.Item)
	assert.Equal(t, models.UnlockedDefault{KeyParent: "fiction"}, l.View())

	_, err = svc.Lookup(context.Background(), "alice", " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLockCreate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.CreateLockRequest
		wantErr error
		wantKey string
		wantPct int
	}{
		{
			name:    "key parent",
			req:     models.CreateLockRequest{KeyParent: "fiction", GoalPages: 300},
			wantKey: "fiction",
		},
		{
			name:    "item id becomes key",
			req:     models.CreateLockRequest{LockedItem: "item-1", GoalTime: 120},
			wantKey: "item-1",
		},
		{
			name:    "initial progress sets percent",
			req:     models.CreateLockRequest{KeyParent: "movie", GoalTime: 200, TimeComplete: 50},
			wantKey: "movie",
			wantPct: 25,
		},
		{
			name:    "missing key",
			req:     models.CreateLockRequest{GoalPages: 10},
			wantErr: ErrValidation,
		},
		{
			name:    "negative goal",
			req:     models.CreateLockRequest{KeyParent: "k", GoalPages: -1},
			wantErr: ErrValidation,
		},
		{
			name:    "no goal",
			req:     models.CreateLockRequest{KeyParent: "k"},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLockService(memory.NewStore())
			lock, err := svc.Create(ctx, "alice", tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, lock.Locked)
			assert.Equal(t, tt.wantKey, lock.KeyParent)
			assert.Equal(t, tt.wantPct, lock.PercentComplete)
			assert.NotEmpty(t, lock.ID)
		})
	}
}

func TestLockCreateConflictsUntilCleared(t *testing.T) {
	svc := NewLockService(memory.NewStore())
	ctx := context.Background()
	req := models.CreateLockRequest{KeyParent: "fiction", GoalPages: 300}

	_, err := svc.Create(ctx, "alice", req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "alice", req)
	assert.ErrorIs(t, err, ErrConflict)

	// Other users have their own keys.
	_, err = svc.Create(ctx, "bob", req)
	require.NoError(t, err)

	_, err = svc.Clear(ctx, "alice", "fiction")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "alice", req)
	require.NoError(t, err)
}

func TestLockAdvanceUsesLeastCompleteGoal(t *testing.T) {
	svc := NewLockService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "book", GoalPages: 200, GoalTime: 100})
	require.NoError(t, err)

	res, err := svc.Advance(ctx, "alice", "book", models.LockProgress{Pages: 100, Minutes: 20})
	require.NoError(t, err)
	assert.Nil(t, res.Cleared)
	assert.Equal(t, 100, res.Lock.PagesComplete)
	assert.Equal(t, 20, res.Lock.TimeComplete)
	assert.Equal(t, 20, res.Lock.PercentComplete)

	// Negative deltas are ignored.
	res, err = svc.Advance(ctx, "alice", "book", models.LockProgress{Pages: -50, Minutes: 30})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Lock.PagesComplete)
	assert.Equal(t, 50, res.Lock.TimeComplete)
	assert.Equal(t, 50, res.Lock.PercentComplete)
}

func TestLockAdvanceClearsAtHundred(t *testing.T) {
	store := memory.NewStore()
	svc := NewLockService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "tv", GoalEpisodes: 4})
	require.NoError(t, err)

	res, err := svc.Advance(ctx, "alice", "tv", models.LockProgress{Episodes: 5})
	require.NoError(t, err)
	require.NotNil(t, res.Cleared)
	assert.Equal(t, 100, res.Cleared.PercentComplete)
	assert.Equal(t, 5, res.Cleared.EpisodesComplete)
	assert.Equal(t, res.Lock.ID, res.Cleared.LockID)

	l, err := svc.Lookup(ctx, "alice", "tv")
	require.NoError(t, err)
	assert.False(t, l.Found)

	history, err := svc.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "tv", history[0].KeyParent)
}

func TestLockAdvanceClearsOnlyWhenGoalMet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		req         models.CreateLockRequest
		delta       models.LockProgress
		wantPct     int
		wantCleared bool
	}{
		{
			name:    "one page short of 200",
			req:     models.CreateLockRequest{KeyParent: "fiction", GoalPages: 200},
			delta:   models.LockProgress{Pages: 199},
			wantPct: 99,
		},
		{
			name:    "one minute short of 400",
			req:     models.CreateLockRequest{KeyParent: "movie", GoalTime: 400},
			delta:   models.LockProgress{Minutes: 398},
			wantPct: 99,
		},
		{
			name:    "second goal unmet",
			req:     models.CreateLockRequest{KeyParent: "book", GoalPages: 100, GoalTime: 200},
			delta:   models.LockProgress{Pages: 100, Minutes: 199},
			wantPct: 99,
		},
		{
			name:        "goal met exactly",
			req:         models.CreateLockRequest{KeyParent: "fiction", GoalPages: 200},
			delta:       models.LockProgress{Pages: 200},
			wantPct:     100,
			wantCleared: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLockService(memory.NewStore())
			_, err := svc.Create(ctx, "alice", tt.req)
			require.NoError(t, err)

			res, err := svc.Advance(ctx, "alice", tt.req.KeyParent, tt.delta)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPct, res.Lock.PercentComplete)
			if !tt.wantCleared {
				assert.Nil(t, res.Cleared)
				l, err := svc.Lookup(ctx, "alice", tt.req.KeyParent)
				require.NoError(t, err)
				assert.True(t, l.Found)
				return
			}
			require.NotNil(t, res.Cleared)
			assert.Equal(t, tt.req.KeyParent, res.Cleared.KeyParent)
		})
	}
}

func TestLockPercentNeverDecreases(t *testing.T) {
	svc := NewLockService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "k", GoalTime: 100, PercentComplete: 60})
	require.NoError(t, err)

	res, err := svc.Advance(ctx, "alice", "k", models.LockProgress{Minutes: 10})
	require.NoError(t, err)
	assert.Equal(t, 60, res.Lock.PercentComplete)

	res, err = svc.Advance(ctx, "alice", "k", models.LockProgress{PercentComplete: 15})
	require.NoError(t, err)
	assert.Equal(t, 75, res.Lock.PercentComplete)
}

func TestLockSetProgressIsMonotone(t *testing.T) {
	svc := NewLockService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "k", GoalPages: 100, GoalTime: 100})
	require.NoError(t, err)

	res, err := svc.SetProgress(ctx, "alice", "k", models.LockProgress{Pages: 80, Minutes: 40})
	require.NoError(t, err)
	assert.Equal(t, 80, res.Lock.PagesComplete)
	assert.Equal(t, 40, res.Lock.PercentComplete)

	res, err = svc.SetProgress(ctx, "alice", "k", models.LockProgress{Pages: 10, Minutes: 60})
	require.NoError(t, err)
	assert.Equal(t, 80, res.Lock.PagesComplete)
	assert.Equal(t, 60, res.Lock.TimeComplete)
	assert.Equal(t, 60, res.Lock.PercentComplete)

	res, err = svc.SetProgress(ctx, "alice", "k", models.LockProgress{PercentComplete: 250})
	require.NoError(t, err)
	require.NotNil(t, res.Cleared)
	assert.Equal(t, 100, res.Cleared.PercentComplete)
}

func TestLockProgressMissingLock(t *testing.T) {
	svc := NewLockService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.Advance(ctx, "alice", "nope", models.LockProgress{Pages: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.SetProgress(ctx, "alice", "nope", models.LockProgress{Pages: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Clear(ctx, "alice", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

// failingCleared makes the cleared log unwritable.
type failingCleared struct {
	*memory.Store
}

var errClearedDown = errors.New("cleared log unavailable")

func (failingCleared) InsertCleared(context.Context, *models.ClearedItem) error {
	return errClearedDown
}

func TestLockClearKeepsLockWhenCopyFails(t *testing.T) {
	store := memory.NewStore()
	svc := NewLockService(failingCleared{store})
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "k", GoalPages: 10})
	require.NoError(t, err)

	_, err = svc.Clear(ctx, "alice", "k")
	assert.ErrorIs(t, err, errClearedDown)

	l, err := svc.Lookup(ctx, "alice", "k")
	require.NoError(t, err)
	assert.True(t, l.Found)
}

func TestLockClearRecordsEachLockOnce(t *testing.T) {
	store := memory.NewStore()
	svc := NewLockService(store)
	ctx := context.Background()

	first, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "k", GoalPages: 10})
	require.NoError(t, err)

	cleared, err := svc.clear(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.ID, cleared.LockID)

	// A new goal under the same key.
	second, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "k", GoalPages: 20})
	require.NoError(t, err)

	// A late clear of the first lock records nothing and leaves the new one.
	_, err = svc.clear(ctx, first)
	assert.ErrorIs(t, err, errAlreadyCleared)

	l, err := svc.Lookup(ctx, "alice", "k")
	require.NoError(t, err)
	require.True(t, l.Found)
	assert.Equal(t, second.ID, l.Item.ID)

	history, err := svc.History(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestLockConcurrentClears(t *testing.T) {
	store := memory.NewStore()
	svc := NewLockService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "k", GoalPages: 10})
	require.NoError(t, err)

	const workers = 20
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Clear(ctx, "alice", "k")
			if err == nil {
				succeeded.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrNotFound)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	history, err := svc.History(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestLockLookupItem(t *testing.T) {
	svc := NewLockService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "weekend", ItemID: "item-9", GoalTime: 90})
	require.NoError(t, err)

	l, err := svc.LookupItem(ctx, "alice", "item-9")
	require.NoError(t, err)
	require.True(t, l.Found)
	assert.Equal(t, "weekend", l.KeyParent)

	l, err = svc.LookupItem(ctx, "alice", "item-10")
	require.NoError(t, err)
	assert.False(t, l.Found)
	assert.Equal(t, "item-10", l.KeyParent)
}

func TestLockAdvanceKeysSkipsUnlocked(t *testing.T) {
	svc := NewLockService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", models.CreateLockRequest{KeyParent: "fiction", GoalPages: 100})
	require.NoError(t, err)

	err = svc.AdvanceKeys(ctx, "alice", []string{"item-1", "fiction", "fiction", "book"}, models.LockProgress{Pages: 10, Minutes: 10})
	require.NoError(t, err)

	l, err := svc.Lookup(ctx, "alice", "fiction")
	require.NoError(t, err)
	assert.Equal(t, 10, l.Item.PagesComplete)
	assert.Equal(t, 10, l.Item.PercentComplete)

	locks, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, locks, 1)
}

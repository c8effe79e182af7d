package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-tracker/internal/models"
)

// barrierMax holds every caller after its read until n callers have read,
// forcing concurrent sequencer calls to interleave.
type barrierMax struct {
	QueueMax
	wg *sync.WaitGroup
}

func (b barrierMax) MaxQueueNumber(ctx context.Context, userID string) (int, error) {
	n, err := b.QueueMax.MaxQueueNumber(ctx, userID)
	b.wg.Done()
	b.wg.Wait()
	return n, err
}

func TestMaxSequencerFirstAndNext(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	n, err := ts.media.NextQueueNumber(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for i, title := range []string{"a", "b", "c"} {
		item := ts.createItem(t, "alice", title, "fiction", "book", 100)
		assert.Equal(t, i+1, item.QueueNumber)
	}

	n, err = ts.media.NextQueueNumber(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Peeking does not consume.
	n, err = ts.media.NextQueueNumber(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Queues are per user.
	n, err = ts.media.NextQueueNumber(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMaxSequencerConcurrentCreatesShareNumber(t *testing.T) {
	ts := newTestServices(t)
	for _, title := range []string{"a", "b", "c"} {
		ts.createItem(t, "alice", title, "fiction", "book", 100)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	seq := NewMaxSequencer(barrierMax{QueueMax: ts.store, wg: &wg})
	media := NewMediaService(ts.store, seq, ts.settings, nil)

	var (
		mu      sync.Mutex
		numbers []int
		done    sync.WaitGroup
	)
	for _, title := range []string{"d", "e"} {
		done.Add(1)
		go func(title string) {
			defer done.Done()
			item, err := media.Create(context.Background(), "alice", models.CreateMediaItemRequest{
				Title: title, Category: "fiction", MediaType: "book", Duration: 100,
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers = append(numbers, item.QueueNumber)
			mu.Unlock()
		}(title)
	}
	done.Wait()

	assert.Equal(t, []int{4, 4}, numbers)

	items, err := ts.media.List(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func newRedisSequencer(t *testing.T, store QueueMax) (*RedisSequencer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisSequencer(rdb, store), mr
}

func TestRedisSequencerSeedsFromStoredMax(t *testing.T) {
	ts := newTestServices(t)
	for _, title := range []string{"a", "b", "c"} {
		ts.createItem(t, "alice", title, "fiction", "book", 100)
	}
	seq, mr := newRedisSequencer(t, ts.store)
	ctx := context.Background()

	n, err := seq.Peek(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = seq.Next(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = seq.Next(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = seq.Peek(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	got, err := mr.Get("queue:alice")
	require.NoError(t, err)
	assert.Equal(t, "5", got)
}

func TestRedisSequencerConcurrentCreatesAreDistinct(t *testing.T) {
	ts := newTestServices(t)
	ts.createItem(t, "alice", "a", "fiction", "book", 100)

	const callers = 8
	var wg sync.WaitGroup
	wg.Add(callers)
	seq, _ := newRedisSequencer(t, barrierMax{QueueMax: ts.store, wg: &wg})

	var (
		mu      sync.Mutex
		numbers []int
		done    sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			n, err := seq.Next(context.Background(), "alice")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers = append(numbers, n)
			mu.Unlock()
		}()
	}
	done.Wait()

	sort.Ints(numbers)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9}, numbers)
}

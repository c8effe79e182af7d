package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Sequencer hands out per-user queue numbers.
type Sequencer interface {
	// Next consumes and returns the next queue number for userID.
	Next(ctx context.Context, userID string) (int, error)
	// Peek returns the number Next would return, without consuming it.
	Peek(ctx context.Context, userID string) (int, error)
}

// QueueMax reports the highest queue number a user's items already hold.
type QueueMax interface {
	MaxQueueNumber(ctx context.Context, userID string) (int, error)
}

// MaxSequencer derives the next number from the current maximum. Two
// concurrent Next calls for the same user can return the same number.
type MaxSequencer struct {
	store QueueMax
}

// NewMaxSequencer creates a MaxSequencer reading from store.
func NewMaxSequencer(store QueueMax) *MaxSequencer {
	return &MaxSequencer{store: store}
}

func (s *MaxSequencer) Next(ctx context.Context, userID string) (int, error) {
	return s.Peek(ctx, userID)
}

func (s *MaxSequencer) Peek(ctx context.Context, userID string) (int, error) {
	maxQueue, err := s.store.MaxQueueNumber(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read max queue number: %w", err)
	}
	return maxQueue + 1, nil
}

// RedisSequencer keeps an atomic counter per user in Redis. The counter is
// seeded from the stored maximum and never falls behind it.
type RedisSequencer struct {
	rdb   redis.Cmdable
	store QueueMax
}

// NewRedisSequencer creates a RedisSequencer.
func NewRedisSequencer(rdb redis.Cmdable, store QueueMax) *RedisSequencer {
	return &RedisSequencer{rdb: rdb, store: store}
}

// KEYS[1] counter, ARGV[1] stored max.
var nextQueueScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if cur < floor then
	cur = floor
end
cur = cur + 1
redis.call("SET", KEYS[1], cur)
return cur
`)

func queueKey(userID string) string {
	return "queue:" + userID
}

func (s *RedisSequencer) Next(ctx context.Context, userID string) (int, error) {
	maxQueue, err := s.store.MaxQueueNumber(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read max queue number: %w", err)
	}
	n, err := nextQueueScript.Run(ctx, s.rdb, []string{queueKey(userID)}, maxQueue).Int()
	if err != nil {
		return 0, fmt.Errorf("increment queue counter: %w", err)
	}
	return n, nil
}

func (s *RedisSequencer) Peek(ctx context.Context, userID string) (int, error) {
	maxQueue, err := s.store.MaxQueueNumber(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read max queue number: %w", err)
	}
	cur, err := s.rdb.Get(ctx, queueKey(userID)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("read queue counter: %w", err)
	}
	return max(cur, maxQueue) + 1, nil
}

package middleware

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter is a Redis-backed fixed window limiter. Windows are counted
// per authenticated user, or per client IP when no user is known.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit requests every
// windowSec seconds. A nil client disables limiting.
func NewRateLimiter(rdb *redis.Client, limit, windowSec int) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: time.Duration(windowSec) * time.Second,
	}
}

// KEYS[1] window counter, ARGV[1] window in milliseconds.
// Returns {count, remaining ttl in ms}.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

func rateLimitKey(subject string) string {
	return "ratelimit:" + subject
}

// Handler returns the Fiber middleware. It lets requests through when Redis
// cannot be reached.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		if rl.rdb == nil {
			return c.Next()
		}

		subject := UserID(c)
		if subject == "" {
			subject = "ip:" + c.IP()
		}

		res, err := hitScript.Run(c.Context(), rl.rdb, []string{rateLimitKey(subject)}, rl.window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			slog.Warn("rate limiter unavailable, allowing request", "error", err)
			return c.Next()
		}
		count, resetSec := res[0], (res[1]+999)/1000

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(rl.limit)-count), 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetSec, 10))

		if count > int64(rl.limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(resetSec, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":      "rate limit exceeded",
				"retryAfter": resetSec,
			})
		}
		return c.Next()
	}
}

// Limiter is a request-limiting middleware.
type Limiter interface {
	Handler() fiber.Handler
}

// maxLocalSubjects bounds the per-subject limiter map of LocalRateLimiter.
const maxLocalSubjects = 10000

// LocalRateLimiter is a per-process token bucket limiter, used when Redis
// is not available. Limits are not shared between instances.
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

// NewLocalRateLimiter allows bursts of limit requests per subject,
// refilled evenly over windowSec seconds.
func NewLocalRateLimiter(limit, windowSec int) *LocalRateLimiter {
	return &LocalRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(time.Duration(windowSec) * time.Second / time.Duration(max(limit, 1))),
		burst:    limit,
	}
}

func (rl *LocalRateLimiter) limiter(subject string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[subject]
	if !ok {
		if len(rl.limiters) >= maxLocalSubjects {
			clear(rl.limiters)
		}
		l = rate.NewLimiter(rl.every, rl.burst)
		rl.limiters[subject] = l
	}
	return l
}

// Handler returns the Fiber middleware.
func (rl *LocalRateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		subject := UserID(c)
		if subject == "" {
			subject = "ip:" + c.IP()
		}

		l := rl.limiter(subject)
		r := l.Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			retry := int64((delay + time.Second - 1) / time.Second)
			c.Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			c.Set("X-RateLimit-Remaining", "0")
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retry, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":      "rate limit exceeded",
				"retryAfter": retry,
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, int(l.Tokens()))))
		return c.Next()
	}
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLimit  = 5
	defaultWindow = time.Minute
	keyPrefix     = "ratelimit:"
)

// AttemptLimiter counts attempts per key in fixed windows backed by Redis.
// Key format: ratelimit:<key>
type AttemptLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewAttemptLimiter allows limit attempts per key within each window.
// Non-positive values fall back to 5 attempts per minute.
func NewAttemptLimiter(client *redis.Client, limit int, window time.Duration) *AttemptLimiter {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &AttemptLimiter{client: client, limit: limit, window: window}
}

// Limit reports the effective attempts per window, after defaults.
func (l *AttemptLimiter) Limit() int { return l.limit }

// Allow increments the counter for key. The first attempt in a window starts
// its expiry; later attempts leave it untouched.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, int, time.Duration, error) {
	k := keyPrefix + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, l.window)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}

	allowed, remaining, reset := l.evaluate(incr.Val(), ttl.Val())
	return allowed, remaining, reset, nil
}

func (l *AttemptLimiter) evaluate(count int64, ttl time.Duration) (bool, int, time.Duration) {
	if ttl <= 0 {
		ttl = l.window
	}
	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(l.limit), remaining, ttl
}

package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a window counter backed by Redis INCR.
type RateLimiter struct {
	client *redis.Client
	prefix string
}

// NewRateLimiter creates a limiter sharing the adapter's connection pool.
func NewRateLimiter(adapter *RedisAdapter, prefix string) *RateLimiter {
	return &RateLimiter{client: adapter.Client(), prefix: prefix}
}

// Allow increments the key and starts its window on the first hit.
// Later hits leave the TTL alone so the window closes on schedule.
// Returns (allowed, currentCount).
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	k := rl.prefix + key
	n, err := rl.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	if n == 1 {
		if err := rl.client.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, errors.Wrap(err, "redis ratelimit expire")
		}
	}
	return n <= limit, n, nil
}

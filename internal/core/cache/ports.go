package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache miss")

// Cache defines the byte-level caching operations used by feature stores.
type Cache interface {
	// Get retrieves a value by key. Returns ErrMiss when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the specified TTL. TTL of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Ping checks if the cache service is reachable.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}

// Limiter counts hits against a key inside a fixed window.
type Limiter interface {
	// Allow registers one hit and reports whether the key is still under limit.
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"container-tracker/internal/core/cache"
	"container-tracker/internal/core/logger"
	"container-tracker/internal/features/tracking/domain"

	"go.uber.org/zap"
)

// DefaultCacheTTL is the freshness window of a stored result.
const DefaultCacheTTL = 2 * time.Hour

type cachedEntry struct {
	Result   *domain.TrackingResult `json:"result"`
	StoredAt time.Time              `json:"stored_at"`
}

// RedisCacheStore implements ports.CacheStore on top of the byte cache.
type RedisCacheStore struct {
	cache  cache.Cache
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewRedisCacheStore creates a cache store. A non-positive ttl uses DefaultCacheTTL.
func NewRedisCacheStore(c cache.Cache, ttl time.Duration) *RedisCacheStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCacheStore{
		cache:  c,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Get(),
	}
}

func cacheKey(trackingNumber, scopeID string) string {
	return fmt.Sprintf("tracking:cache:%s:%s", scopeID, trackingNumber)
}

// Lookup returns the stored result when it is fresh and successful.
func (s *RedisCacheStore) Lookup(ctx context.Context, trackingNumber, scopeID string) (*domain.TrackingResult, error) {
	if scopeID == "" {
		return nil, nil
	}

	key := cacheKey(trackingNumber, scopeID)
	data, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached result: %w", err)
	}

	var entry cachedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("Discarding unreadable cache entry",
			zap.String("tracking_number", trackingNumber),
			zap.String("scope_id", scopeID),
			zap.Error(err),
		)
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to evict unreadable cache entry", zap.String("key", key), zap.Error(err))
		}
		return nil, nil
	}
	if entry.Result == nil || !entry.Result.Success {
		return nil, nil
	}
	if s.now().Sub(entry.StoredAt) > s.ttl {
		return nil, nil
	}
	return entry.Result.Normalize(), nil
}

// Upsert overwrites the stored result for the number and scope.
func (s *RedisCacheStore) Upsert(ctx context.Context, trackingNumber, scopeID string, result *domain.TrackingResult) error {
	if scopeID == "" {
		s.logger.Debug("Skipping cache write without scope", zap.String("tracking_number", trackingNumber))
		return nil
	}
	if result == nil {
		return nil
	}

	data, err := json.Marshal(cachedEntry{Result: result, StoredAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := s.cache.Set(ctx, cacheKey(trackingNumber, scopeID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to write cached result: %w", err)
	}
	return nil
}

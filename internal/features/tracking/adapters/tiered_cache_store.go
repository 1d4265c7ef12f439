package adapter

import (
	"context"
	"errors"

	"container-tracker/internal/features/tracking/domain"
	"container-tracker/internal/features/tracking/ports"
)

// TieredCacheStore reads from the first store holding a fresh result and
// writes to every store, e.g. Redis in front of Postgres.
type TieredCacheStore struct {
	tiers []ports.CacheStore
}

// NewTieredCacheStore creates a store over tiers, fastest first.
func NewTieredCacheStore(tiers ...ports.CacheStore) *TieredCacheStore {
	return &TieredCacheStore{tiers: tiers}
}

// Lookup returns the first hit. Tier errors are returned only when no tier hits.
func (s *TieredCacheStore) Lookup(ctx context.Context, trackingNumber, scopeID string) (*domain.TrackingResult, error) {
	var errs []error
	for _, t := range s.tiers {
		r, err := t.Lookup(ctx, trackingNumber, scopeID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if r != nil {
			return r, nil
		}
	}
	return nil, errors.Join(errs...)
}

// Upsert writes to every tier and joins their errors.
func (s *TieredCacheStore) Upsert(ctx context.Context, trackingNumber, scopeID string, result *domain.TrackingResult) error {
	var errs []error
	for _, t := range s.tiers {
		if err := t.Upsert(ctx, trackingNumber, scopeID, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package ports

import (
	"context"
	"time"

	"container-tracker/internal/features/tracking/domain"
)

// CarrierScraper is a Layer 1 source bound to one carrier.
type CarrierScraper interface {
	// Validate is a pure format check. It never performs I/O.
	Validate(trackingNumber string) bool
	// Track looks the number up. It never returns nil and never panics:
	// every failure is reported through the result's Success and Error fields.
	Track(ctx context.Context, trackingNumber string) *domain.TrackingResult
	// CarrierCode returns the registry key, e.g. "msc".
	CarrierCode() string
	// CarrierName returns the display name.
	CarrierName() string
}

// FallbackSource is a multi-carrier API used when scraping does not succeed.
type FallbackSource interface {
	// Track resolves the number. carrierHint may be empty.
	Track(ctx context.Context, trackingNumber, carrierHint string) *domain.TrackingResult
}

// CacheStore persists resolved results per tenant scope.
type CacheStore interface {
	// Lookup returns a fresh result, or nil when absent or stale.
	Lookup(ctx context.Context, trackingNumber, scopeID string) (*domain.TrackingResult, error)
	// Upsert overwrites the stored result. An empty scopeID is a logged no-op.
	Upsert(ctx context.Context, trackingNumber, scopeID string, result *domain.TrackingResult) error
}

// RequestLogger records one entry per layer attempt.
type RequestLogger interface {
	Append(ctx context.Context, entry domain.RequestLogEntry) error
}

// ResultPublisher announces freshly resolved results.
type ResultPublisher interface {
	Publish(ctx context.Context, scopeID string, result *domain.OrchestratorResult) error
}

// RateLimiter guards expensive sources.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Resolver is the single entry point for tracking resolution.
type Resolver interface {
	Resolve(ctx context.Context, trackingNumber string, opts domain.ResolveOptions) *domain.OrchestratorResult
}

// StaleRecord identifies a stored result due for refresh.
type StaleRecord struct {
	TrackingNumber string
	ScopeID        string
	Carrier        string
	UpdatedAt      time.Time
}

// StaleLister lists stored, non-final results older than a cutoff.
type StaleLister interface {
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]StaleRecord, error)
}

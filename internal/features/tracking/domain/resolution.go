package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Provider names the layer that produced an OrchestratorResult.
type Provider string

const (
	ProviderCache        Provider = "cache"
	ProviderWebScraping  Provider = "web_scraping"
	ProviderSecondaryAPI Provider = "secondary_api"
	ProviderVendorAPI    Provider = "vendor_api"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderCache, ProviderWebScraping, ProviderSecondaryAPI, ProviderVendorAPI:
		return true
	}
	return false
}

// ParsePreferredProvider maps a caller-supplied provider hint to the path it
// selects. Empty and "auto" run every layer. ok is false for anything else.
func ParsePreferredProvider(raw string) (p Provider, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return "", true
	case "web_scraping", "scraping":
		return ProviderWebScraping, true
	case "vendor_api", "vendor":
		return ProviderVendorAPI, true
	}
	return "", false
}

// ResolveOptions tunes a single resolution.
type ResolveOptions struct {
	// Carrier overrides carrier detection.
	Carrier string
	// ForceRefresh skips the cache lookup.
	ForceRefresh bool
	// ScopeID partitions cache and logs per tenant.
	ScopeID string
	// PreferredProvider restricts the path: ProviderWebScraping means scraping
	// only, ProviderVendorAPI means vendor API only. Empty runs every layer.
	PreferredProvider Provider
}

// OrchestratorResult is a TrackingResult plus resolution metadata.
// Stores receive the embedded TrackingResult only.
type OrchestratorResult struct {
	TrackingResult

	Provider     Provider      `json:"provider"`
	FallbackUsed bool          `json:"fallback_used"`
	ResponseTime time.Duration `json:"-"`
	Cached       bool          `json:"cached"`
}

// MarshalJSON renders the response time in milliseconds.
func (r OrchestratorResult) MarshalJSON() ([]byte, error) {
	type alias OrchestratorResult
	return json.Marshal(struct {
		alias
		ResponseTimeMs int64 `json:"response_time_ms"`
	}{
		alias:          alias(r),
		ResponseTimeMs: r.ResponseTime.Milliseconds(),
	})
}

// LogStatus is the outcome recorded for one layer attempt.
type LogStatus string

const (
	LogStatusSuccess      LogStatus = "success"
	LogStatusFailed       LogStatus = "failed"
	LogStatusFallbackUsed LogStatus = "fallback_used"
)

// RequestLogEntry records one layer attempt.
type RequestLogEntry struct {
	TrackingNumber  string
	Provider        Provider
	Status          LogStatus
	ResponseTime    time.Duration
	DetectedCarrier string
	ScopeID         string
	Error           string
}

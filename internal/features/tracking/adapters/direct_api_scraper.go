package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"container-tracker/internal/core/retry"
	"container-tracker/internal/features/tracking/domain"
)

const (
	apiTimeout      = 15 * time.Second
	apiAttempts     = 3
	maxResponseSize = 4 << 20
)

// APIProfile is the carrier specific part of a direct API integration.
type APIProfile struct {
	// RequestBody builds the JSON payload for a tracking number.
	RequestBody func(trackingNumber string) any
	// Decode maps the response body onto a result. It must tolerate missing optional fields.
	Decode func(body []byte) (*domain.TrackingResult, error)
	// APIKeyHeader sends the key in this header instead of a bearer token.
	APIKeyHeader string
}

// DirectAPIScraper calls a carrier JSON API with one POST per attempt.
type DirectAPIScraper struct {
	baseScraper
	client  *http.Client
	profile APIProfile
}

// NewDirectAPIScraper creates a scraper for a carrier JSON API.
func NewDirectAPIScraper(cfg domain.ScraperConfig, profile APIProfile, client *http.Client, patterns []*regexp.Regexp, opts ...Option) *DirectAPIScraper {
	cfg = cfg.WithDefaults(apiTimeout, apiAttempts)
	if profile.RequestBody == nil {
		profile.RequestBody = func(n string) any { return map[string]string{"trackingNumber": n} }
	}
	return &DirectAPIScraper{
		baseScraper: newBaseScraper(cfg, patterns, opts),
		client:      client,
		profile:     profile,
	}
}

// Track resolves the number through the carrier API.
func (s *DirectAPIScraper) Track(ctx context.Context, trackingNumber string) *domain.TrackingResult {
	return s.track(ctx, trackingNumber, s.fetch)
}

func (s *DirectAPIScraper) fetch(ctx context.Context, trackingNumber string) (*domain.TrackingResult, error) {
	if s.cfg.BaseURL == "" {
		return nil, retry.Permanent(fmt.Errorf("%s API %w", s.cfg.CarrierName, domain.ErrNotConfigured))
	}

	payload, err := json.Marshal(s.profile.RequestBody(trackingNumber))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	if s.cfg.APIKey != "" {
		if s.profile.APIKeyHeader != "" {
			req.Header.Set(s.profile.APIKeyHeader, s.cfg.APIKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s API request failed: %w", s.cfg.CarrierName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s API response: %w", s.cfg.CarrierName, err)
	}

	if err := classifyStatus(s.cfg.CarrierName+" API", resp.StatusCode); err != nil {
		return nil, err
	}

	result, err := s.profile.Decode(body)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode %s API response: %w", s.cfg.CarrierName, err))
	}
	if json.Valid(body) {
		result.RawData = json.RawMessage(body)
	}
	return result, nil
}

// classifyStatus turns non-2xx responses into errors. 404 and other client
// errors are permanent, except 408 and 429 which are worth retrying.
func classifyStatus(source string, code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	err := fmt.Errorf("%s returned HTTP %d", source, code)
	switch {
	case code == http.StatusNotFound:
		return retry.Permanent(fmt.Errorf("%w: %w", domain.ErrTrackingNotFound, err))
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return err
	case code >= 400 && code < 500:
		return retry.Permanent(err)
	default:
		return err
	}
}

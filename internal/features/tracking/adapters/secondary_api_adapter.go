package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"container-tracker/internal/core/retry"
	"container-tracker/internal/features/tracking/domain"
)

const (
	fallbackTimeout  = 20 * time.Second
	fallbackAttempts = 2
)

// errSecondaryNotConfigured is reported when no aggregator endpoint is set.
var errSecondaryNotConfigured = fmt.Errorf("secondary aggregator %w", domain.ErrNotConfigured)

type secondaryResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    *secondaryData `json:"data"`
}

type secondaryData struct {
	Carrier         string           `json:"carrier"`
	Status          string           `json:"status"`
	ContainerNumber string           `json:"container_number"`
	Origin          string           `json:"origin"`
	Destination     string           `json:"destination"`
	Vessel          string           `json:"vessel"`
	Voyage          string           `json:"voyage"`
	ETA             string           `json:"eta"`
	Events          []secondaryEvent `json:"events"`
}

type secondaryEvent struct {
	Date        string `json:"date"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Vessel      string `json:"vessel"`
	Voyage      string `json:"voyage"`
}

// SecondaryAPISource is the Layer 2 multi-carrier aggregator client.
type SecondaryAPISource struct {
	baseScraper
	client *http.Client
}

// NewSecondaryAPISource creates the aggregator client. An empty baseURL
// yields a source that always fails with a configuration error.
func NewSecondaryAPISource(baseURL, apiKey string, client *http.Client, opts ...Option) *SecondaryAPISource {
	cfg := domain.ScraperConfig{
		CarrierName: "secondary aggregator",
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
	}.WithDefaults(fallbackTimeout, fallbackAttempts)
	return &SecondaryAPISource{
		baseScraper: newBaseScraper(cfg, nil, opts),
		client:      client,
	}
}

// Track implements ports.FallbackSource.
func (s *SecondaryAPISource) Track(ctx context.Context, trackingNumber, carrierHint string) *domain.TrackingResult {
	n := normalizeNumber(trackingNumber)
	result := s.run(ctx, n, func(ctx context.Context, n string) (*domain.TrackingResult, error) {
		return s.fetch(ctx, n, carrierHint)
	})
	if result.Carrier == "" {
		result.Carrier = carrierHint
	}
	return result
}

func (s *SecondaryAPISource) fetch(ctx context.Context, trackingNumber, carrierHint string) (*domain.TrackingResult, error) {
	if s.cfg.BaseURL == "" {
		return nil, retry.Permanent(errSecondaryNotConfigured)
	}

	q := url.Values{}
	q.Set("apiKey", s.cfg.APIKey)
	q.Set("code", trackingNumber)
	if carrierHint != "" {
		q.Set("carrier", carrierHint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/tracking?"+q.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("secondary aggregator request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read secondary aggregator response: %w", err)
	}
	if err := classifyStatus("secondary aggregator", resp.StatusCode); err != nil {
		return nil, err
	}

	var payload secondaryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode secondary aggregator response: %w", err))
	}
	if payload.Status != "ok" {
		msg := payload.Message
		if msg == "" {
			msg = "status " + payload.Status
		}
		return nil, retry.Permanent(errors.New("secondary aggregator error: " + msg))
	}
	if payload.Data == nil {
		return nil, retry.Permanent(errors.New("secondary aggregator returned no data"))
	}

	result := payload.Data.toResult()
	result.RawData = json.RawMessage(body)
	return result, nil
}

func (d *secondaryData) toResult() *domain.TrackingResult {
	result := &domain.TrackingResult{
		Carrier:         strings.ToLower(d.Carrier),
		ContainerNumber: optString(d.ContainerNumber),
		Status:          domain.Status(d.Status),
		Voyage:          optString(d.Voyage),
		ETA:             parseTime(d.ETA),
		Events:          make([]domain.TrackingEvent, 0, len(d.Events)),
	}
	if d.Origin != "" {
		result.Origin = &domain.Location{Port: d.Origin}
	}
	if d.Destination != "" {
		result.Destination = &domain.Location{Port: d.Destination}
	}
	if d.Vessel != "" {
		result.Vessel = &domain.Vessel{Name: d.Vessel}
	}
	for _, ev := range d.Events {
		te := domain.TrackingEvent{
			Location:    ev.Location,
			Status:      domain.Status(ev.Status),
			Description: ev.Description,
			Vessel:      ev.Vessel,
			Voyage:      ev.Voyage,
		}
		if ts := parseTime(ev.Date); ts != nil {
			te.Timestamp = *ts
		}
		result.Events = append(result.Events, te)
	}
	sortNewestFirst(result.Events)
	return result
}

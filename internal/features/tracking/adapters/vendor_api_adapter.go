package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"container-tracker/internal/core/retry"
	"container-tracker/internal/features/tracking/domain"
)

type vendorRequest struct {
	TrackingNumber string `json:"tracking_number"`
	CarrierCode    string `json:"carrier_code"`
}

type vendorResponse struct {
	Data *vendorData `json:"data"`
}

type vendorPlace struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type vendorData struct {
	CarrierName          string        `json:"carrier_name"`
	CarrierCode          string        `json:"carrier_code"`
	Status               string        `json:"status"`
	ContainerNumber      string        `json:"container_number"`
	Origin               *vendorPlace  `json:"origin"`
	Destination          *vendorPlace  `json:"destination"`
	Vessel               *vendorVessel `json:"vessel"`
	EstimatedArrivalTime string        `json:"estimated_arrival_time"`
	Events               []vendorEvent `json:"events"`
}

type vendorVessel struct {
	Name   string `json:"name"`
	IMO    string `json:"imo"`
	Voyage string `json:"voyage"`
}

type vendorEvent struct {
	Timestamp   string `json:"timestamp"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// VendorAPISource is the Layer 3 commercial tracking API client.
type VendorAPISource struct {
	baseScraper
	client *http.Client
}

// NewVendorAPISource creates the vendor client. The key is checked on use so
// a missing key surfaces as a tracking failure, not a startup error.
func NewVendorAPISource(baseURL, apiKey string, client *http.Client, opts ...Option) *VendorAPISource {
	cfg := domain.ScraperConfig{
		CarrierName: "vendor API",
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
	}.WithDefaults(fallbackTimeout, fallbackAttempts)
	return &VendorAPISource{
		baseScraper: newBaseScraper(cfg, nil, opts),
		client:      client,
	}
}

// Track implements ports.FallbackSource. The vendor detects the carrier itself.
func (s *VendorAPISource) Track(ctx context.Context, trackingNumber, carrierHint string) *domain.TrackingResult {
	result := s.run(ctx, normalizeNumber(trackingNumber), s.fetch)
	if result.Carrier == "" {
		result.Carrier = carrierHint
	}
	return result
}

func (s *VendorAPISource) fetch(ctx context.Context, trackingNumber string) (*domain.TrackingResult, error) {
	if s.cfg.APIKey == "" || s.cfg.BaseURL == "" {
		return nil, retry.Permanent(fmt.Errorf("vendor API key %w", domain.ErrNotConfigured))
	}

	payload, err := json.Marshal(vendorRequest{TrackingNumber: trackingNumber, CarrierCode: "auto"})
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/track", bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vendor API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor API response: %w", err)
	}
	if err := classifyStatus("vendor API", resp.StatusCode); err != nil {
		return nil, err
	}

	var parsed vendorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode vendor API response: %w", err))
	}
	if parsed.Data == nil {
		return nil, retry.Permanent(errors.New("no data received"))
	}

	result := mapVendorResponseToDomain(parsed.Data)
	result.RawData = json.RawMessage(body)
	return result, nil
}

func mapVendorResponseToDomain(d *vendorData) *domain.TrackingResult {
	carrierCode := strings.ToLower(d.CarrierCode)
	if carrierCode == "" {
		carrierCode = d.CarrierName
	}
	result := &domain.TrackingResult{
		Carrier:         carrierCode,
		ContainerNumber: optString(d.ContainerNumber),
		Status:          domain.Status(d.Status),
		ETA:             parseTime(d.EstimatedArrivalTime),
		Events:          make([]domain.TrackingEvent, 0, len(d.Events)),
	}
	if d.Origin != nil && d.Origin.Name != "" {
		result.Origin = &domain.Location{Port: d.Origin.Name, Country: d.Origin.Country}
	}
	if d.Destination != nil && d.Destination.Name != "" {
		result.Destination = &domain.Location{Port: d.Destination.Name, Country: d.Destination.Country}
	}
	if d.Vessel != nil && d.Vessel.Name != "" {
		result.Vessel = &domain.Vessel{Name: d.Vessel.Name, IMO: d.Vessel.IMO}
		result.Voyage = optString(d.Vessel.Voyage)
	}
	for _, ev := range d.Events {
		te := domain.TrackingEvent{
			Location:    ev.Location,
			Status:      domain.Status(ev.Status),
			Description: ev.Description,
		}
		if ts := parseTime(ev.Timestamp); ts != nil {
			te.Timestamp = *ts
		}
		result.Events = append(result.Events, te)
	}
	sortNewestFirst(result.Events)
	return result
}

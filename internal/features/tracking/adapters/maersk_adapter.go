package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"container-tracker/internal/features/tracking/domain"
)

type maerskResponse struct {
	Containers  []maerskContainer `json:"containers"`
	Origin      *maerskLocation   `json:"origin"`
	Destination *maerskLocation   `json:"destination"`
}

type maerskContainer struct {
	ContainerNum string           `json:"container_num"`
	Status       string           `json:"status"`
	ETAFinal     string           `json:"eta_final_delivery"`
	Locations    []maerskLocation `json:"locations"`
}

type maerskLocation struct {
	City        string        `json:"city"`
	Terminal    string        `json:"terminal"`
	CountryCode string        `json:"country_code"`
	Events      []maerskEvent `json:"events"`
}

type maerskEvent struct {
	Activity   string `json:"activity"`
	EventTime  string `json:"event_time"`
	VesselName string `json:"vessel_name"`
	VoyageNum  string `json:"voyage_num"`
	Actual     bool   `json:"actfor"`
}

// NewMaerskScraper creates the Maersk track and trace API client.
func NewMaerskScraper(cfg domain.ScraperConfig, client *http.Client, opts ...Option) *DirectAPIScraper {
	cfg.CarrierCode = "maersk"
	if cfg.CarrierName == "" {
		cfg.CarrierName = "Maersk"
	}
	profile := APIProfile{
		RequestBody: func(n string) any {
			return map[string]string{"trackingNumber": n}
		},
		Decode:       mapMaerskResponseToDomain,
		APIKeyHeader: "Consumer-Key",
	}
	return NewDirectAPIScraper(cfg, profile, client, containerPatterns("maersk"), opts...)
}

// mapMaerskResponseToDomain maps the Maersk payload. Only the first container is used.
func mapMaerskResponseToDomain(body []byte) (*domain.TrackingResult, error) {
	var resp maerskResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Maersk response: %w", err)
	}
	if len(resp.Containers) == 0 {
		return nil, fmt.Errorf("%w: no containers in Maersk response", domain.ErrTrackingNotFound)
	}

	c := resp.Containers[0]
	result := &domain.TrackingResult{
		Carrier:         "maersk",
		ContainerNumber: optString(c.ContainerNum),
		Status:          domain.Status(c.Status),
		ETA:             parseTime(c.ETAFinal),
		Origin:          maerskToLocation(resp.Origin),
		Destination:     maerskToLocation(resp.Destination),
		Events:          []domain.TrackingEvent{},
	}

	for _, loc := range c.Locations {
		place := joinNonEmpty(", ", loc.City, loc.CountryCode)
		for _, ev := range loc.Events {
			ts := parseTime(ev.EventTime)
			if ts == nil {
				continue
			}
			result.Events = append(result.Events, domain.TrackingEvent{
				Timestamp:   *ts,
				Location:    place,
				Status:      domain.Status(ev.Activity),
				Description: ev.Activity,
				Vessel:      ev.VesselName,
				Voyage:      ev.VoyageNum,
			})
		}
	}
	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].Timestamp.After(result.Events[j].Timestamp)
	})

	for _, ev := range result.Events {
		if ev.Vessel != "" {
			result.Vessel = &domain.Vessel{Name: ev.Vessel}
			result.Voyage = optString(ev.Voyage)
			break
		}
	}
	if result.Status == "" && len(result.Events) > 0 {
		result.Status = result.Events[0].Status
	}
	return result, nil
}

func maerskToLocation(l *maerskLocation) *domain.Location {
	if l == nil || l.City == "" {
		return nil
	}
	return &domain.Location{Port: l.City, Terminal: l.Terminal, Country: l.CountryCode}
}

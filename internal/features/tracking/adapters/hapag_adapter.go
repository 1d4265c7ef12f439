package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"container-tracker/internal/features/tracking/domain"
)

// hapagEvent is a DCSA track and trace event.
type hapagEvent struct {
	EventType          string `json:"eventType"`
	EventDateTime      string `json:"eventDateTime"`
	EventClassifier    string `json:"eventClassifierCode"`
	TransportEventType string `json:"transportEventTypeCode"`
	EquipmentEventType string `json:"equipmentEventTypeCode"`
	EquipmentReference string `json:"equipmentReference"`
	TransportCall      struct {
		Location struct {
			LocationName string `json:"locationName"`
			UNLocCode    string `json:"UNLocationCode"`
		} `json:"location"`
		Vessel struct {
			VesselName string `json:"vesselName"`
			VesselIMO  string `json:"vesselIMONumber"`
			VesselFlag string `json:"vesselFlag"`
		} `json:"vessel"`
		ExportVoyageNumber string `json:"exportVoyageNumber"`
	} `json:"transportCall"`
}

var dcsaEventCodes = map[string]string{
	"DEPA": "departed",
	"ARRI": "arrived",
	"LOAD": "loaded",
	"DISC": "discharged",
	"GTIN": "gate in",
	"GTOT": "gate out",
}

// NewHapagScraper creates the Hapag-Lloyd DCSA API client.
func NewHapagScraper(cfg domain.ScraperConfig, client *http.Client, opts ...Option) *DirectAPIScraper {
	cfg.CarrierCode = "hapag"
	if cfg.CarrierName == "" {
		cfg.CarrierName = "Hapag-Lloyd"
	}
	profile := APIProfile{
		RequestBody: func(n string) any {
			return map[string]string{"equipmentReference": n}
		},
		Decode:       mapHapagResponseToDomain,
		APIKeyHeader: "X-IBM-Client-Id",
	}
	return NewDirectAPIScraper(cfg, profile, client, containerPatterns("hapag"), opts...)
}

// mapHapagResponseToDomain maps a DCSA event list. Planned and estimated
// events feed ETA/ETD; only actual events enter the history.
func mapHapagResponseToDomain(body []byte) (*domain.TrackingResult, error) {
	var events []hapagEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to parse Hapag-Lloyd response: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no events in Hapag-Lloyd response", domain.ErrTrackingNotFound)
	}

	result := &domain.TrackingResult{
		Carrier: "hapag",
		Events:  []domain.TrackingEvent{},
	}

	for _, ev := range events {
		ts := parseTime(ev.EventDateTime)
		if ts == nil {
			continue
		}
		code := ev.TransportEventType
		if code == "" {
			code = ev.EquipmentEventType
		}
		desc, ok := dcsaEventCodes[code]
		if !ok {
			desc = strings.ToLower(code)
		}
		if result.ContainerNumber == nil {
			result.ContainerNumber = optString(ev.EquipmentReference)
		}

		if ev.EventClassifier != "ACT" {
			switch {
			case code == "ARRI" && result.ETA == nil:
				result.ETA = ts
			case code == "DEPA" && result.ETD == nil:
				result.ETD = ts
			}
			continue
		}

		loc := ev.TransportCall.Location.LocationName
		if loc == "" {
			loc = ev.TransportCall.Location.UNLocCode
		}
		result.Events = append(result.Events, domain.TrackingEvent{
			Timestamp:   *ts,
			Location:    loc,
			Status:      domain.Status(desc),
			Description: desc,
			Vessel:      ev.TransportCall.Vessel.VesselName,
			Voyage:      ev.TransportCall.ExportVoyageNumber,
		})
		if result.Vessel == nil && ev.TransportCall.Vessel.VesselName != "" {
			result.Vessel = &domain.Vessel{
				Name: ev.TransportCall.Vessel.VesselName,
				IMO:  ev.TransportCall.Vessel.VesselIMO,
				Flag: ev.TransportCall.Vessel.VesselFlag,
			}
			result.Voyage = optString(ev.TransportCall.ExportVoyageNumber)
		}
	}

	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].Timestamp.After(result.Events[j].Timestamp)
	})
	if n := len(result.Events); n > 0 {
		result.Status = result.Events[0].Status
		if first := result.Events[n-1].Location; first != "" {
			result.Origin = &domain.Location{Port: first}
		}
	}
	return result, nil
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

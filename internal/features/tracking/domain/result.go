package domain

import (
	"encoding/json"
	"time"
)

// Location is a port or place on the shipment route.
type Location struct {
	Port     string `json:"port"`
	Terminal string `json:"terminal,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Vessel identifies the ship carrying the container.
type Vessel struct {
	Name string `json:"name"`
	IMO  string `json:"imo,omitempty"`
	Flag string `json:"flag,omitempty"`
}

// TrackingEvent is one milestone in a shipment's history.
// Producers supply events newest-first.
type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	Status      Status    `json:"status"`
	Description string    `json:"description"`
	Vessel      string    `json:"vessel,omitempty"`
	Voyage      string    `json:"voyage,omitempty"`
}

// TrackingResult is the canonical output of any resolution attempt.
type TrackingResult struct {
	Success        bool   `json:"success"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`

	ContainerNumber *string `json:"container_number,omitempty"`
	BillOfLading    *string `json:"bill_of_lading,omitempty"`
	BookingNumber   *string `json:"booking_number,omitempty"`

	Status Status `json:"status"`

	Origin      *Location `json:"origin,omitempty"`
	Destination *Location `json:"destination,omitempty"`
	Vessel      *Vessel   `json:"vessel,omitempty"`
	Voyage      *string   `json:"voyage,omitempty"`

	ETD *time.Time `json:"etd,omitempty"`
	ATD *time.Time `json:"atd,omitempty"`
	ETA *time.Time `json:"eta,omitempty"`
	ATA *time.Time `json:"ata,omitempty"`

	Events  []TrackingEvent `json:"events"`
	RawData json.RawMessage `json:"raw_data,omitempty"`

	ScrapedAt  time.Time  `json:"scraped_at"`
	CacheUntil *time.Time `json:"cache_until,omitempty"`
	Error      *string    `json:"error,omitempty"`
}

// Failure builds a failed result for the given tracking number and carrier.
func Failure(trackingNumber, carrier, message string) *TrackingResult {
	r := &TrackingResult{
		TrackingNumber: trackingNumber,
		Carrier:        carrier,
		Error:          &message,
		ScrapedAt:      time.Now().UTC(),
	}
	return r.Normalize()
}

// Normalize enforces the result invariants in place and returns r:
// failures carry an error and no domain fields, events are never nil,
// and status is mapped onto the normalized vocabulary.
func (r *TrackingResult) Normalize() *TrackingResult {
	if r.ScrapedAt.IsZero() {
		r.ScrapedAt = time.Now().UTC()
	}

	if !r.Success {
		msg := "unknown error"
		if r.Error != nil && *r.Error != "" {
			msg = *r.Error
		}
		r.Error = &msg
		r.ContainerNumber = nil
		r.BillOfLading = nil
		r.BookingNumber = nil
		r.Status = StatusUnknown
		r.Origin = nil
		r.Destination = nil
		r.Vessel = nil
		r.Voyage = nil
		r.ETD, r.ATD, r.ETA, r.ATA = nil, nil, nil, nil
		r.Events = []TrackingEvent{}
		r.CacheUntil = nil
		return r
	}

	r.Error = nil
	r.Status = NormalizeStatus(string(r.Status))
	if r.Events == nil {
		r.Events = []TrackingEvent{}
	}
	for i := range r.Events {
		if r.Events[i].Status == "" {
			r.Events[i].Status = NormalizeStatus(r.Events[i].Description)
		} else {
			r.Events[i].Status = NormalizeStatus(string(r.Events[i].Status))
		}
	}
	return r
}

// ErrorMessage returns the error text or an empty string.
func (r *TrackingResult) ErrorMessage() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return *r.Error
}

// Clone returns a copy that shares no slices or pointers with r.
func (r *TrackingResult) Clone() *TrackingResult {
	if r == nil {
		return nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		c := *r
		return &c
	}
	var c TrackingResult
	if err := json.Unmarshal(data, &c); err != nil {
		c = *r
	}
	return &c
}

// Ptr returns a pointer to v. Handy for optional result fields.
func Ptr[T any](v T) *T {
	return &v
}

package domain

import "strings"

// Status is the normalized shipment status vocabulary shared by every source.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusInTransit Status = "in_transit"
	StatusAtPort    Status = "at_port"
	StatusLoaded    Status = "loaded"
	StatusBooked    Status = "booked"
	StatusEmpty     Status = "empty"
	StatusUnknown   Status = "unknown"
)

// statusKeywords is checked top to bottom; the first status with a matching
// keyword wins, so a raw "delivered after transit" resolves to delivered.
var statusKeywords = []struct {
	status   Status
	keywords []string
}{
	{StatusDelivered, []string{"delivered", "delivery completed", "consignee"}},
	{StatusInTransit, []string{"in transit", "in_transit", "sailing", "departed", "departure", "transshipment", "transit", "en route"}},
	{StatusAtPort, []string{"discharged", "discharge", "arrived", "arrival", "at port", "at_port", "gate in", "in terminal", "gate out"}},
	{StatusLoaded, []string{"loaded", "load on", "laden"}},
	{StatusBooked, []string{"booked", "booking", "confirmed"}},
	{StatusEmpty, []string{"empty"}},
}

// NormalizeStatus maps a raw source status to the normalized vocabulary using
// case-insensitive substring matching. Unmatched input yields StatusUnknown.
func NormalizeStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StatusUnknown
	}
	for _, entry := range statusKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(s, kw) {
				return entry.status
			}
		}
	}
	return StatusUnknown
}

// IsFinal reports whether no further movement is expected.
func (s Status) IsFinal() bool {
	return s == StatusDelivered || s == StatusEmpty
}

package adapter

import (
	"sort"
	"strings"
	"time"

	"container-tracker/internal/features/tracking/domain"
)

var defaultTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-Jan-2006 15:04",
	"02-Jan-2006",
	"Jan 02, 2006 15:04",
	"Jan 02, 2006",
	"Mon 02 Jan 2006 15:04",
	"2 Jan 2006",
}

// parseTime tries each layout in order and returns nil when none fits.
func parseTime(raw string, layouts ...string) *time.Time {
	raw = strings.Join(strings.Fields(raw), " ")
	if raw == "" {
		return nil
	}
	if len(layouts) == 0 {
		layouts = defaultTimeLayouts
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// optString returns nil for blank input.
func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// cleanText collapses whitespace, including non-breaking spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}

// sortNewestFirst orders events by timestamp, newest first. Undated events
// keep their relative order at the end.
func sortNewestFirst(events []domain.TrackingEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

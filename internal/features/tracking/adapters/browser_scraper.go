package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"container-tracker/internal/core/browser"
	"container-tracker/internal/core/retry"
	"container-tracker/internal/features/tracking/domain"
)

const (
	browserTimeout  = 45 * time.Second
	browserAttempts = 2
)

// Strategy reads one field from the page. Parse may reject or clean the raw
// text; a nil Parse accepts any non-empty text.
type Strategy struct {
	Selector string
	Parse    func(raw string) (string, bool)
}

// RowStrategy reads history rows from a table-like structure. Column indexes
// are zero based; a negative index means the column is absent.
type RowStrategy struct {
	RowSelector    string
	CellSelector   string
	DateCol        int
	LocationCol    int
	DescriptionCol int
	VesselCol      int
}

// BrowserPlan holds everything carrier specific about a browser scrape.
// New carriers are added as data, not branches.
type BrowserPlan struct {
	// SearchURL is the page to open. A %s verb is replaced by the tracking number.
	SearchURL string
	// InputSelector and SubmitSelector drive the search form. Empty skips the form.
	InputSelector  string
	SubmitSelector string
	// SettleIdle is how long the page must be quiet after submitting.
	SettleIdle time.Duration
	// NotFoundPhrases short-circuit to a permanent failure when found in the page text.
	NotFoundPhrases []string

	Status      []Strategy
	Vessel      []Strategy
	Voyage      []Strategy
	Origin      []Strategy
	Destination []Strategy
	ETA         []Strategy
	Events      []RowStrategy

	// TimeLayouts parse event dates and the ETA. Empty uses common layouts.
	TimeLayouts []string
}

var defaultNotFoundPhrases = []string{"not found", "invalid", "no results"}

// BrowserScraper drives a headless browser for carriers whose sites defeat plain HTTP.
type BrowserScraper struct {
	baseScraper
	launcher browser.Launcher
	plan     BrowserPlan
}

// NewBrowserScraper creates a scraper that opens one browser session per attempt.
func NewBrowserScraper(cfg domain.ScraperConfig, plan BrowserPlan, launcher browser.Launcher, patterns []*regexp.Regexp, opts ...Option) *BrowserScraper {
	cfg = cfg.WithDefaults(browserTimeout, browserAttempts)
	if plan.SearchURL == "" {
		plan.SearchURL = cfg.BaseURL
	}
	if plan.SettleIdle <= 0 {
		plan.SettleIdle = 2 * time.Second
	}
	if plan.NotFoundPhrases == nil {
		plan.NotFoundPhrases = defaultNotFoundPhrases
	}
	return &BrowserScraper{
		baseScraper: newBaseScraper(cfg, patterns, opts),
		launcher:    launcher,
		plan:        plan,
	}
}

// Track resolves the number through the carrier's public tracking page.
func (s *BrowserScraper) Track(ctx context.Context, trackingNumber string) *domain.TrackingResult {
	return s.track(ctx, trackingNumber, s.fetch)
}

func (s *BrowserScraper) fetch(ctx context.Context, trackingNumber string) (*domain.TrackingResult, error) {
	return browser.WithSession(ctx, s.launcher, func(sess browser.Session) (*domain.TrackingResult, error) {
		return s.scrape(sess, trackingNumber)
	})
}

func (s *BrowserScraper) scrape(sess browser.Session, trackingNumber string) (*domain.TrackingResult, error) {
	target := s.plan.SearchURL
	if strings.Contains(target, "%s") {
		target = fmt.Sprintf(target, trackingNumber)
	}

	if err := sess.Navigate(target); err != nil {
		return nil, err
	}

	if s.plan.InputSelector != "" {
		if err := sess.Fill(s.plan.InputSelector, trackingNumber); err != nil {
			return nil, err
		}
		if err := sess.Click(s.plan.SubmitSelector); err != nil {
			return nil, err
		}
	}

	if err := sess.Settle(s.plan.SettleIdle); err != nil {
		return nil, err
	}

	body, err := sess.Text("body")
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	lower := strings.ToLower(body)
	for _, phrase := range s.plan.NotFoundPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return nil, retry.Permanent(fmt.Errorf("%w: %s page says %q", domain.ErrTrackingNotFound, s.cfg.CarrierName, phrase))
		}
	}

	result := &domain.TrackingResult{
		ContainerNumber: optString(trackingNumber),
		Status:          domain.StatusUnknown,
		Events:          []domain.TrackingEvent{},
	}

	if status, ok := tryFirstMatch(sess, s.plan.Status); ok {
		result.Status = domain.Status(status)
	}
	if name, ok := tryFirstMatch(sess, s.plan.Vessel); ok {
		result.Vessel = &domain.Vessel{Name: name}
	}
	if voyage, ok := tryFirstMatch(sess, s.plan.Voyage); ok {
		result.Voyage = &voyage
	}
	if port, ok := tryFirstMatch(sess, s.plan.Origin); ok {
		result.Origin = &domain.Location{Port: port}
	}
	if port, ok := tryFirstMatch(sess, s.plan.Destination); ok {
		result.Destination = &domain.Location{Port: port}
	}
	if eta, ok := tryFirstMatch(sess, s.plan.ETA); ok {
		result.ETA = parseTime(eta, s.plan.TimeLayouts...)
	}

	result.Events = s.extractEvents(sess)
	if result.Status == domain.StatusUnknown && len(result.Events) > 0 {
		result.Status = domain.Status(result.Events[0].Description)
	}

	return result, nil
}

// tryFirstMatch returns the first strategy value that is visible and accepted.
func tryFirstMatch(sess browser.Session, strategies []Strategy) (string, bool) {
	for _, st := range strategies {
		raw, ok := sess.VisibleText(st.Selector)
		if !ok {
			continue
		}
		raw = cleanText(raw)
		if st.Parse == nil {
			if raw != "" {
				return raw, true
			}
			continue
		}
		if v, ok := st.Parse(raw); ok {
			return v, true
		}
	}
	return "", false
}

// extractEvents uses the first row strategy that yields rows. Events are
// returned newest-first; rows without a parsable date keep page order at the end.
func (s *BrowserScraper) extractEvents(sess browser.Session) []domain.TrackingEvent {
	for _, rs := range s.plan.Events {
		rows, err := sess.Rows(rs.RowSelector, rs.CellSelector)
		if err != nil || len(rows) == 0 {
			continue
		}

		events := make([]domain.TrackingEvent, 0, len(rows))
		for _, cells := range rows {
			desc := cell(cells, rs.DescriptionCol)
			if desc == "" {
				continue
			}
			ev := domain.TrackingEvent{
				Location:    cell(cells, rs.LocationCol),
				Description: desc,
				Vessel:      cell(cells, rs.VesselCol),
			}
			if ts := parseTime(cell(cells, rs.DateCol), s.plan.TimeLayouts...); ts != nil {
				ev.Timestamp = *ts
			}
			events = append(events, ev)
		}
		if len(events) == 0 {
			continue
		}

		sortNewestFirst(events)
		return events
	}
	return []domain.TrackingEvent{}
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cleanText(cells[i])
}

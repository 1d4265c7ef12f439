package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"container-tracker/internal/core/browser"
	"container-tracker/internal/features/tracking/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession is a scripted browser page.
type fakeSession struct {
	mu sync.Mutex

	body    string
	visible map[string]string
	rows    map[string][][]string
	navErr  error
	panicOn string
	closes  int
	visited []string
	filled  map[string]string
	clicked []string
	settled time.Duration
}

func (s *fakeSession) Navigate(url string) error {
	s.visited = append(s.visited, url)
	return s.navErr
}

func (s *fakeSession) Fill(selector, value string) error {
	if s.filled == nil {
		s.filled = map[string]string{}
	}
	s.filled[selector] = value
	return nil
}

func (s *fakeSession) Click(selector string) error {
	s.clicked = append(s.clicked, selector)
	return nil
}

func (s *fakeSession) Settle(idle time.Duration) error {
	s.settled = idle
	return nil
}

func (s *fakeSession) Text(selector string) (string, error) {
	return s.body, nil
}

func (s *fakeSession) VisibleText(selector string) (string, bool) {
	if s.panicOn != "" && selector == s.panicOn {
		panic("unexpected DOM shape")
	}
	v, ok := s.visible[selector]
	return v, ok
}

func (s *fakeSession) Rows(rowSelector, cellSelector string) ([][]string, error) {
	return s.rows[rowSelector], nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// fakeLauncher hands out sessions built by newSession.
type fakeLauncher struct {
	newSession func() *fakeSession
	openErr    error
	opened     []*fakeSession
}

func (l *fakeLauncher) Open(ctx context.Context) (browser.Session, error) {
	if l.openErr != nil {
		return nil, l.openErr
	}
	s := l.newSession()
	l.opened = append(l.opened, s)
	return s, nil
}

func mscResultsPage() *fakeSession {
	return &fakeSession{
		body: "Tracking results for MEDU7905689",
		visible: map[string]string{
			"[data-test-id='tracking-status']":                                               "  SAILING ",
			".msc-flow-tracking__step--current .msc-flow-tracking__cell--vessel .data-value": "MSC GULSUN / FA412W",
			".msc-flow-tracking__details .data-value--pol":                                   "VALENCIA, ES",
			".msc-flow-tracking__details .data-value--pod":                                   "ROTTERDAM, NL",
			".msc-flow-tracking__details .data-value--eta":                                   "14/03/2024",
		},
		rows: map[string][][]string{
			"table.tracking-events tbody tr": {
				{"01/03/2024", "VALENCIA, ES", "Export Loaded on Vessel"},
				{"03/03/2024", "VALENCIA, ES", "Vessel Departure"},
				{"", "", ""},
			},
		},
	}
}

func newTestMSCScraper(l browser.Launcher) *BrowserScraper {
	return NewMSCScraper(domain.ScraperConfig{
		BaseURL:  "https://msc.test/track",
		CacheTTL: time.Hour,
		Timeout:  5 * time.Second,
	}, l, WithRetryDelay(time.Millisecond))
}

// TestBrowserScraper_Track_Success verifies extraction, normalization and teardown.
func TestBrowserScraper_Track_Success(t *testing.T) {
	l := &fakeLauncher{newSession: mscResultsPage}
	s := newTestMSCScraper(l)

	before := time.Now()
	res := s.Track(context.Background(), " medu7905689")

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "MEDU7905689", res.TrackingNumber)
	assert.Equal(t, "msc", res.Carrier)
	assert.Equal(t, domain.StatusInTransit, res.Status)
	require.NotNil(t, res.Vessel)
	assert.Equal(t, "MSC GULSUN", res.Vessel.Name)
	assert.Equal(t, "FA412W", *res.Voyage)
	assert.Equal(t, "VALENCIA, ES", res.Origin.Port)
	assert.Equal(t, "ROTTERDAM, NL", res.Destination.Port)
	require.NotNil(t, res.ETA)
	assert.Equal(t, 2024, res.ETA.Year())

	require.Len(t, res.Events, 2)
	assert.Equal(t, "Vessel Departure", res.Events[0].Description)
	assert.Equal(t, domain.StatusInTransit, res.Events[0].Status)
	assert.Equal(t, domain.StatusLoaded, res.Events[1].Status)

	require.NotNil(t, res.CacheUntil)
	assert.WithinDuration(t, before.Add(time.Hour), *res.CacheUntil, 5*time.Second)

	require.Len(t, l.opened, 1)
	sess := l.opened[0]
	assert.Equal(t, 1, sess.closes)
	assert.Equal(t, []string{"https://msc.test/track"}, sess.visited)
	assert.Equal(t, "MEDU7905689", sess.filled["#trackingNumber"])
	assert.Len(t, sess.clicked, 1)
}

// TestBrowserScraper_Track_InvalidNumber verifies no browser is opened for a bad format.
func TestBrowserScraper_Track_InvalidNumber(t *testing.T) {
	l := &fakeLauncher{newSession: mscResultsPage}
	s := newTestMSCScraper(l)

	res := s.Track(context.Background(), "MSKU1234567")

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), domain.ErrInvalidTrackingNumber.Error())
	assert.Empty(t, l.opened)
}

// TestBrowserScraper_Track_NotFoundPage verifies negative phrases stop without retry.
func TestBrowserScraper_Track_NotFoundPage(t *testing.T) {
	l := &fakeLauncher{newSession: func() *fakeSession {
		return &fakeSession{body: "Sorry, No Results Found for your search"}
	}}
	s := newTestMSCScraper(l)

	res := s.Track(context.Background(), "MEDU7905689")

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "not found")
	assert.Empty(t, res.Events)
	require.Len(t, l.opened, 1)
	assert.Equal(t, 1, l.opened[0].closes)
}

// TestBrowserScraper_Track_ParsePanic verifies the session closes exactly once when parsing panics.
func TestBrowserScraper_Track_ParsePanic(t *testing.T) {
	l := &fakeLauncher{newSession: func() *fakeSession {
		s := mscResultsPage()
		s.panicOn = "[data-test-id='tracking-status']"
		return s
	}}
	s := newTestMSCScraper(l)

	res := s.Track(context.Background(), "MEDU7905689")

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "scraper panic")
	require.Len(t, l.opened, 1)
	assert.Equal(t, 1, l.opened[0].closes)
	assert.Equal(t, []string{"https://msc.test/track"}, l.opened[0].visited)
}

// TestBrowserScraper_Track_NavigationRetried verifies transient failures use both attempts.
func TestBrowserScraper_Track_NavigationRetried(t *testing.T) {
	l := &fakeLauncher{newSession: func() *fakeSession {
		return &fakeSession{navErr: errors.New("net::ERR_CONNECTION_RESET")}
	}}
	s := newTestMSCScraper(l)

	res := s.Track(context.Background(), "MEDU7905689")

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "ERR_CONNECTION_RESET")
	require.Len(t, l.opened, 2)
	for _, sess := range l.opened {
		assert.Equal(t, 1, sess.closes)
	}
}

// TestBrowserScraper_Track_DegradedPage verifies missing fields default instead of failing.
func TestBrowserScraper_Track_DegradedPage(t *testing.T) {
	l := &fakeLauncher{newSession: func() *fakeSession {
		return &fakeSession{body: "Shipment details"}
	}}
	s := newTestMSCScraper(l)

	res := s.Track(context.Background(), "MEDU7905689")

	require.True(t, res.Success)
	assert.Equal(t, domain.StatusUnknown, res.Status)
	assert.Empty(t, res.Events)
	assert.Nil(t, res.Vessel)
}

// TestBrowserScraper_Track_StatusFromLatestEvent verifies the newest event fills a missing status.
func TestBrowserScraper_Track_StatusFromLatestEvent(t *testing.T) {
	l := &fakeLauncher{newSession: func() *fakeSession {
		s := mscResultsPage()
		delete(s.visible, "[data-test-id='tracking-status']")
		return s
	}}
	s := newTestMSCScraper(l)

	res := s.Track(context.Background(), "MEDU7905689")

	require.True(t, res.Success)
	assert.Equal(t, domain.StatusInTransit, res.Status)
}

// TestBrowserScraper_Track_LauncherFailure verifies a missing browser is a failure result.
func TestBrowserScraper_Track_LauncherFailure(t *testing.T) {
	l := &fakeLauncher{openErr: errors.New("chromium not found")}
	s := newTestMSCScraper(l)

	res := s.Track(context.Background(), "MEDU7905689")

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "chromium not found")
}

// TestONEScraper_QueryURL verifies the number goes into the query string.
func TestONEScraper_QueryURL(t *testing.T) {
	l := &fakeLauncher{newSession: func() *fakeSession {
		return &fakeSession{
			body:    "Cargo tracking",
			visible: map[string]string{"#cargo-tracking-result .status-latest": "Discharged at POD"},
		}
	}}
	s := NewONEScraper(domain.ScraperConfig{BaseURL: "https://one.test/cargo-tracking"}, l, WithRetryDelay(time.Millisecond))

	res := s.Track(context.Background(), "ONEU1234567")

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, domain.StatusAtPort, res.Status)
	assert.Equal(t, "one", s.CarrierCode())
	assert.Equal(t, "Ocean Network Express", s.CarrierName())
	assert.Equal(t, []string{"https://one.test/cargo-tracking?ctrack-field=ONEU1234567"}, l.opened[0].visited)
	assert.Empty(t, l.opened[0].filled)
}

// TestBrowserScraper_Validate verifies format checks are pure and deterministic.
func TestBrowserScraper_Validate(t *testing.T) {
	l := &fakeLauncher{newSession: mscResultsPage}
	s := newTestMSCScraper(l)

	for _, n := range []string{"MEDU7905689", "MSCU1234567", "MEDUAB123456", "medu7905689"} {
		assert.True(t, s.Validate(n), n)
		assert.Equal(t, s.Validate(n), s.Validate(n))
	}
	for _, n := range []string{"", "MEDU12", "MSKU1234567", "ZZZZ0000000"} {
		assert.False(t, s.Validate(n), n)
	}
	assert.Empty(t, l.opened)
}

// TestTryFirstMatch verifies ordered strategies and parser rejection.
func TestTryFirstMatch(t *testing.T) {
	sess := &fakeSession{visible: map[string]string{
		".a": "ignored",
		".b": "MSC GULSUN",
	}}

	v, ok := tryFirstMatch(sess, []Strategy{
		{Selector: ".missing"},
		{Selector: ".a", Parse: func(string) (string, bool) { return "", false }},
		{Selector: ".b"},
	})
	require.True(t, ok)
	assert.Equal(t, "MSC GULSUN", v)

	_, ok = tryFirstMatch(sess, []Strategy{{Selector: ".missing"}})
	assert.False(t, ok)
}

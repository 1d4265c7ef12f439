package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"container-tracker/internal/core/proxy"
	"container-tracker/internal/core/retry"
	"container-tracker/internal/features/tracking/domain"

	"github.com/gocolly/colly/v2"
)

const (
	formTimeout  = 30 * time.Second
	formAttempts = 3
)

var evergreenTimeLayouts = []string{"Jan-02-2006", "Jan-02-2006 15:04", "2006/01/02", "2006/01/02 15:04", "Jan 02, 2006"}

// EvergreenScraper posts the ShipmentLink cargo tracking form and reads the
// static HTML result. No browser is needed.
type EvergreenScraper struct {
	baseScraper
	proxy     proxy.Settings
	transport http.RoundTripper
}

// NewEvergreenScraper creates the Evergreen form scraper. transport may be nil,
// in which case settings configure the collector's own proxy.
func NewEvergreenScraper(cfg domain.ScraperConfig, settings proxy.Settings, transport http.RoundTripper, opts ...Option) *EvergreenScraper {
	cfg.CarrierCode = "evergreen"
	if cfg.CarrierName == "" {
		cfg.CarrierName = "Evergreen Line"
	}
	cfg = cfg.WithDefaults(formTimeout, formAttempts)
	return &EvergreenScraper{
		baseScraper: newBaseScraper(cfg, containerPatterns("evergreen", `^EGLV\d{9,12}$`), opts),
		proxy:       settings,
		transport:   transport,
	}
}

// Track submits the form for the number.
func (s *EvergreenScraper) Track(ctx context.Context, trackingNumber string) *domain.TrackingResult {
	return s.track(ctx, trackingNumber, s.fetch)
}

type evergreenPage struct {
	fields   map[string]string
	events   []domain.TrackingEvent
	notFound bool
	status   int
}

func (s *EvergreenScraper) fetch(ctx context.Context, trackingNumber string) (*domain.TrackingResult, error) {
	if s.cfg.BaseURL == "" {
		return nil, retry.Permanent(fmt.Errorf("%s %w", s.cfg.CarrierName, domain.ErrNotConfigured))
	}

	c := colly.NewCollector(
		colly.UserAgent(s.cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.cfg.Timeout)
	// A shared transport already routes through the proxy. colly's SetProxy
	// would swap it for a bare http.Transport.
	if s.transport != nil {
		c.WithTransport(s.transport)
	} else if s.proxy.HasProxy() {
		if err := c.SetProxy(s.proxy.FullURL()); err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to set proxy: %w", err))
		}
	}

	page := &evergreenPage{fields: map[string]string{}}

	c.OnResponse(func(r *colly.Response) {
		page.status = r.StatusCode
		if bytes.Contains(bytes.ToLower(r.Body), []byte("no data found")) {
			page.notFound = true
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			page.status = r.StatusCode
		}
	})

	c.OnHTML("table.ec-table", func(e *colly.HTMLElement) {
		e.ForEach("tr", func(_ int, row *colly.HTMLElement) {
			heads := row.DOM.Find("th")
			cells := row.DOM.Find("td")
			for i := 0; i < heads.Length() && i < cells.Length(); i++ {
				key := strings.ToLower(cleanText(heads.Eq(i).Text()))
				page.fields[key] = cleanText(cells.Eq(i).Text())
			}
		})
	})

	c.OnHTML("table.ec-table-event", func(e *colly.HTMLElement) {
		e.ForEach("tr", func(_ int, row *colly.HTMLElement) {
			cells := row.DOM.Find("td")
			if cells.Length() < 3 {
				return
			}
			ts := parseTime(cleanText(cells.Eq(0).Text()), evergreenTimeLayouts...)
			if ts == nil {
				return
			}
			ev := domain.TrackingEvent{
				Timestamp:   *ts,
				Description: cleanText(cells.Eq(1).Text()),
				Location:    cleanText(cells.Eq(2).Text()),
			}
			if cells.Length() > 3 {
				ev.Vessel, ev.Voyage = splitVesselVoyage(cleanText(cells.Eq(3).Text()))
			}
			page.events = append(page.events, ev)
		})
	})

	form := map[string]string{
		"TYPE": "CNTR",
		"NO":   trackingNumber,
		"SEL":  "s_cntr",
	}
	if err := c.Post(s.cfg.BaseURL, form); err != nil {
		if page.status != 0 {
			if statusErr := classifyStatus(s.cfg.CarrierName, page.status); statusErr != nil {
				return nil, statusErr
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%s form request failed: %w", s.cfg.CarrierName, err)
	}

	if page.notFound {
		return nil, retry.Permanent(fmt.Errorf("%w: %s reported no data", domain.ErrTrackingNotFound, s.cfg.CarrierName))
	}
	if len(page.fields) == 0 && len(page.events) == 0 {
		return nil, errors.New("result page contained no tracking data")
	}
	return page.toResult(trackingNumber), nil
}

func (p *evergreenPage) toResult(trackingNumber string) *domain.TrackingResult {
	result := &domain.TrackingResult{
		Carrier:         "evergreen",
		ContainerNumber: &trackingNumber,
		Status:          domain.Status(p.fields["container status"]),
		ETA:             parseTime(p.fields["estimated date of arrival"], evergreenTimeLayouts...),
		Events:          p.events,
	}
	if pol := p.fields["port of loading"]; pol != "" {
		result.Origin = &domain.Location{Port: pol}
	}
	if pod := p.fields["port of discharge"]; pod != "" {
		result.Destination = &domain.Location{Port: pod}
	}
	if vv := p.fields["vessel voyage"]; vv != "" {
		name, voyage := splitVesselVoyage(vv)
		if name != "" {
			result.Vessel = &domain.Vessel{Name: name}
		}
		result.Voyage = optString(voyage)
	}

	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].Timestamp.After(result.Events[j].Timestamp)
	})
	if result.Status == "" && len(result.Events) > 0 {
		result.Status = domain.Status(result.Events[0].Description)
	}
	return result
}

// splitVesselVoyage splits "EVER ACE 0123-045W" at the last space.
func splitVesselVoyage(s string) (string, string) {
	i := strings.LastIndex(s, " ")
	if i < 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
}

package adapter

import (
	"container-tracker/internal/core/browser"
	"container-tracker/internal/features/tracking/domain"
)

// onePlan targets the Ocean Network Express cargo tracking page, which takes
// the number in the query string.
var onePlan = BrowserPlan{
	NotFoundPhrases: []string{"no data found", "not found", "invalid"},
	Status: []Strategy{
		{Selector: "#cargo-tracking-result .status-latest"},
		{Selector: "[class*='CargoTracking_status']"},
	},
	Vessel: []Strategy{
		{Selector: "#cargo-tracking-result .vessel-name"},
		{Selector: "[class*='CargoTracking_vessel'] span:first-child"},
	},
	Voyage: []Strategy{
		{Selector: "#cargo-tracking-result .voyage-no"},
	},
	Origin: []Strategy{
		{Selector: "#cargo-tracking-result .por-name"},
		{Selector: "#cargo-tracking-result .pol-name"},
	},
	Destination: []Strategy{
		{Selector: "#cargo-tracking-result .pod-name"},
		{Selector: "#cargo-tracking-result .del-name"},
	},
	ETA: []Strategy{
		{Selector: "#cargo-tracking-result .eta-date"},
	},
	Events: []RowStrategy{
		{RowSelector: "#detail-events tbody tr", CellSelector: "td", DateCol: 3, LocationCol: 2, DescriptionCol: 1, VesselCol: -1},
	},
	TimeLayouts: []string{"2006-01-02 15:04", "2006-01-02"},
}

// NewONEScraper creates the Ocean Network Express browser scraper.
func NewONEScraper(cfg domain.ScraperConfig, launcher browser.Launcher, opts ...Option) *BrowserScraper {
	cfg.CarrierCode = "one"
	if cfg.CarrierName == "" {
		cfg.CarrierName = "Ocean Network Express"
	}
	plan := onePlan
	if cfg.BaseURL != "" {
		plan.SearchURL = cfg.BaseURL + "?ctrack-field=%s"
	}
	return NewBrowserScraper(cfg, plan, launcher, containerPatterns("one", `^ONEY[A-Z0-9]{8,12}$`), opts...)
}

package adapter

import (
	"strings"

	"container-tracker/internal/core/browser"
	"container-tracker/internal/features/tracking/domain"
)

// mscPlan targets the MSC "Track a shipment" page.
var mscPlan = BrowserPlan{
	InputSelector:   "#trackingNumber",
	SubmitSelector:  "form.msc-search-autocomplete button[type='submit']",
	NotFoundPhrases: []string{"no results found", "not found", "invalid tracking number"},
	Status: []Strategy{
		{Selector: ".msc-flow-tracking__step--current .msc-flow-tracking__step-title"},
		{Selector: "[data-test-id='tracking-status']"},
		{Selector: ".msc-flow-tracking__details .data-value--status"},
	},
	Vessel: []Strategy{
		{Selector: ".msc-flow-tracking__step--current .msc-flow-tracking__cell--vessel .data-value", Parse: vesselName},
		{Selector: "[data-test-id='vessel-name']"},
	},
	Voyage: []Strategy{
		{Selector: ".msc-flow-tracking__step--current .msc-flow-tracking__cell--vessel .data-value", Parse: voyageNumber},
	},
	Origin: []Strategy{
		{Selector: ".msc-flow-tracking__details .data-value--pol"},
		{Selector: "[data-test-id='port-of-load']"},
	},
	Destination: []Strategy{
		{Selector: ".msc-flow-tracking__details .data-value--pod"},
		{Selector: "[data-test-id='port-of-discharge']"},
	},
	ETA: []Strategy{
		{Selector: ".msc-flow-tracking__details .data-value--eta"},
		{Selector: "[data-test-id='final-pod-eta']"},
	},
	Events: []RowStrategy{
		{RowSelector: ".msc-flow-tracking__step", CellSelector: ".data-value", DateCol: 0, LocationCol: 1, DescriptionCol: 2, VesselCol: 3},
		{RowSelector: "table.tracking-events tbody tr", CellSelector: "td", DateCol: 0, LocationCol: 1, DescriptionCol: 2, VesselCol: -1},
	},
	TimeLayouts: []string{"02/01/2006", "02/01/2006 15:04", "2006-01-02"},
}

// NewMSCScraper creates the MSC browser scraper. MSC accepts container numbers
// and MEDU bills of lading.
func NewMSCScraper(cfg domain.ScraperConfig, launcher browser.Launcher, opts ...Option) *BrowserScraper {
	cfg.CarrierCode = "msc"
	if cfg.CarrierName == "" {
		cfg.CarrierName = "Mediterranean Shipping Company"
	}
	return NewBrowserScraper(cfg, mscPlan, launcher, containerPatterns("msc", `^MEDU[A-Z0-9]{8}$`), opts...)
}

// vesselName keeps the part before " / " in "MSC GULSUN / FA412W".
func vesselName(raw string) (string, bool) {
	name, _, _ := strings.Cut(raw, "/")
	name = strings.TrimSpace(name)
	return name, name != ""
}

// voyageNumber keeps the part after " / " in "MSC GULSUN / FA412W".
func voyageNumber(raw string) (string, bool) {
	_, voyage, ok := strings.Cut(raw, "/")
	voyage = strings.TrimSpace(voyage)
	return voyage, ok && voyage != ""
}

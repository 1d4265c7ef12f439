package domain

import "time"

// ScraperConfig is the static configuration of one scraper instance.
// It is passed by value and never modified after construction.
type ScraperConfig struct {
	CarrierCode string
	CarrierName string
	BaseURL     string
	APIKey      string
	CacheTTL    time.Duration
	Timeout     time.Duration
	Attempts    int
	UserAgent   string
}

// DefaultUserAgent is sent by scrapers that do not configure their own.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// WithDefaults fills zero fields with the given fallbacks.
func (c ScraperConfig) WithDefaults(timeout time.Duration, attempts int) ScraperConfig {
	if c.Timeout <= 0 {
		c.Timeout = timeout
	}
	if c.Attempts <= 0 {
		c.Attempts = attempts
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 2 * time.Hour
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.CarrierName == "" {
		c.CarrierName = c.CarrierCode
	}
	return c
}

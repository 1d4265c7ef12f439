package carrier

import (
	"errors"
	"fmt"
	"sort"

	"container-tracker/internal/features/tracking/ports"
)

// ErrDuplicateScraper is returned when two scrapers claim the same carrier code.
var ErrDuplicateScraper = errors.New("duplicate scraper for carrier")

// Registry is the static carrier code to scraper map built at startup.
type Registry struct {
	scrapers map[string]ports.CarrierScraper
}

// NewRegistry indexes scrapers by CarrierCode.
func NewRegistry(scrapers ...ports.CarrierScraper) (*Registry, error) {
	r := &Registry{scrapers: make(map[string]ports.CarrierScraper, len(scrapers))}
	for _, s := range scrapers {
		code := s.CarrierCode()
		if _, ok := r.scrapers[code]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScraper, code)
		}
		r.scrapers[code] = s
	}
	return r, nil
}

// Lookup returns the scraper registered for code.
func (r *Registry) Lookup(code string) (ports.CarrierScraper, bool) {
	s, ok := r.scrapers[code]
	return s, ok
}

// Codes lists registered carrier codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.scrapers))
	for code := range r.scrapers {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

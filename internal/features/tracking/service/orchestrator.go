package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"container-tracker/internal/core/logger"
	"container-tracker/internal/features/tracking/domain"
	"container-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// CarrierDetector maps a tracking number to a carrier code.
type CarrierDetector interface {
	Detect(trackingNumber string) (string, bool)
}

// ScraperRegistry finds the Layer 1 scraper for a carrier code.
type ScraperRegistry interface {
	Lookup(code string) (ports.CarrierScraper, bool)
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithPublisher announces fresh successful resolutions.
func WithPublisher(p ports.ResultPublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

// WithScrapeLimit caps Layer 1 calls per carrier per minute. A limited call
// counts as a scraping failure.
func WithScrapeLimit(l ports.RateLimiter, perMinute int64) Option {
	return func(o *Orchestrator) {
		o.limiter = l
		o.scrapeLimit = perMinute
	}
}

// Orchestrator resolves tracking numbers through cache, carrier scrapers and
// the fallback APIs, in that order. It holds no per-request state.
type Orchestrator struct {
	cache     ports.CacheStore
	logs      ports.RequestLogger
	detector  CarrierDetector
	registry  ScraperRegistry
	secondary ports.FallbackSource
	vendor    ports.FallbackSource

	publisher   ports.ResultPublisher
	limiter     ports.RateLimiter
	scrapeLimit int64

	logger *zap.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	cache ports.CacheStore,
	logs ports.RequestLogger,
	detector CarrierDetector,
	registry ScraperRegistry,
	secondary ports.FallbackSource,
	vendor ports.FallbackSource,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		cache:     cache,
		logs:      logs,
		detector:  detector,
		registry:  registry,
		secondary: secondary,
		vendor:    vendor,
		logger:    logger.Get().Named("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// resolution carries the state of one Resolve call.
type resolution struct {
	number  string
	carrier string
	opts    domain.ResolveOptions
	start   time.Time
	errs    []string
}

// Resolve returns a result for the number. It never returns nil and never
// panics; source failures are reported in the result.
func (o *Orchestrator) Resolve(ctx context.Context, trackingNumber string, opts domain.ResolveOptions) (out *domain.OrchestratorResult) {
	r := &resolution{
		number: strings.ToUpper(strings.TrimSpace(trackingNumber)),
		opts:   opts,
		start:  time.Now(),
	}

	defer func() {
		if p := recover(); p != nil {
			o.logger.Error("Resolution panicked",
				zap.String("tracking_number", r.number),
				zap.Any("panic", p),
			)
			out = o.wrap(r, domain.Failure(r.number, r.carrier, fmt.Sprintf("internal error: %v", p)), "", false)
		}
	}()

	if r.number == "" {
		return o.wrap(r, domain.Failure("", "", "tracking number is required"), "", false)
	}

	if !opts.ForceRefresh {
		if cached := o.lookup(ctx, r); cached != nil {
			out := o.wrap(r, cached, domain.ProviderCache, false)
			out.Cached = true
			return out
		}
	}

	r.carrier = strings.ToLower(strings.TrimSpace(opts.Carrier))
	if r.carrier == "" {
		r.carrier, _ = o.detector.Detect(r.number)
	}

	if opts.PreferredProvider == domain.ProviderVendorAPI {
		return o.vendorLayer(ctx, r)
	}

	if out := o.scrapeLayer(ctx, r); out != nil {
		return out
	}
	if out := o.secondaryLayer(ctx, r); out != nil {
		return out
	}
	return o.vendorLayer(ctx, r)
}

// scrapeLayer returns a final result, or nil to continue with the fallbacks.
func (o *Orchestrator) scrapeLayer(ctx context.Context, r *resolution) *domain.OrchestratorResult {
	scrapingOnly := r.opts.PreferredProvider == domain.ProviderWebScraping

	scraper, ok := o.registry.Lookup(r.carrier)
	if !ok {
		label := r.carrier
		if label == "" {
			label = "unknown"
		}
		msg := fmt.Sprintf("no scraper available for carrier %s", label)
		if scrapingOnly {
			return o.wrap(r, domain.Failure(r.number, r.carrier, msg+"; switch to automatic mode"), domain.ProviderWebScraping, false)
		}
		r.errs = append(r.errs, fmt.Sprintf("%s: %s", domain.ProviderWebScraping, msg))
		return nil
	}

	layerStart := time.Now()
	result := o.scrape(ctx, scraper, r)
	if result.Success {
		o.record(ctx, r, domain.ProviderWebScraping, domain.LogStatusSuccess, result, layerStart)
		return o.finish(ctx, r, result, domain.ProviderWebScraping, false)
	}

	o.record(ctx, r, domain.ProviderWebScraping, domain.LogStatusFailed, result, layerStart)
	if scrapingOnly {
		return o.wrap(r, result, domain.ProviderWebScraping, false)
	}
	r.errs = append(r.errs, fmt.Sprintf("%s: %s", domain.ProviderWebScraping, result.ErrorMessage()))
	return nil
}

func (o *Orchestrator) scrape(ctx context.Context, scraper ports.CarrierScraper, r *resolution) *domain.TrackingResult {
	if o.limiter != nil && o.scrapeLimit > 0 {
		allowed, _, err := o.limiter.Allow(ctx, "scrape:"+r.carrier, o.scrapeLimit, time.Minute)
		switch {
		case err != nil:
			o.logger.Warn("Rate limiter unavailable, scraping anyway",
				zap.String("carrier", r.carrier),
				zap.Error(err),
			)
		case !allowed:
			return domain.Failure(r.number, r.carrier, fmt.Sprintf("%s for %s scraping", domain.ErrRateLimited, r.carrier))
		}
	}
	return o.safeTrack(r, func() *domain.TrackingResult {
		return scraper.Track(ctx, r.number)
	})
}

// secondaryLayer returns a final result on success, or nil to continue.
func (o *Orchestrator) secondaryLayer(ctx context.Context, r *resolution) *domain.OrchestratorResult {
	if o.secondary == nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: secondary aggregator %s", domain.ProviderSecondaryAPI, domain.ErrNotConfigured))
		return nil
	}

	layerStart := time.Now()
	result := o.safeTrack(r, func() *domain.TrackingResult {
		return o.secondary.Track(ctx, r.number, r.carrier)
	})
	if result.Success {
		o.record(ctx, r, domain.ProviderSecondaryAPI, domain.LogStatusFallbackUsed, result, layerStart)
		return o.finish(ctx, r, result, domain.ProviderSecondaryAPI, true)
	}

	o.record(ctx, r, domain.ProviderSecondaryAPI, domain.LogStatusFailed, result, layerStart)
	r.errs = append(r.errs, fmt.Sprintf("%s: %s", domain.ProviderSecondaryAPI, result.ErrorMessage()))
	return nil
}

// vendorLayer is the last resort. Its outcome is stored and logged either way.
func (o *Orchestrator) vendorLayer(ctx context.Context, r *resolution) *domain.OrchestratorResult {
	layerStart := time.Now()
	var result *domain.TrackingResult
	if o.vendor == nil {
		result = domain.Failure(r.number, r.carrier, fmt.Sprintf("vendor API %s", domain.ErrNotConfigured))
	} else {
		result = o.safeTrack(r, func() *domain.TrackingResult {
			return o.vendor.Track(ctx, r.number, r.carrier)
		})
	}

	if result.Success {
		o.record(ctx, r, domain.ProviderVendorAPI, domain.LogStatusFallbackUsed, result, layerStart)
		return o.finish(ctx, r, result, domain.ProviderVendorAPI, true)
	}

	o.record(ctx, r, domain.ProviderVendorAPI, domain.LogStatusFailed, result, layerStart)
	if len(r.errs) > 0 {
		msg := strings.Join(append(r.errs, fmt.Sprintf("%s: %s", domain.ProviderVendorAPI, result.ErrorMessage())), "; ")
		result.Error = &msg
	}
	o.store(ctx, r, result)
	return o.wrap(r, result, domain.ProviderVendorAPI, true)
}

// safeTrack contains panics from a source and normalizes a private copy of its result.
func (o *Orchestrator) safeTrack(r *resolution, call func() *domain.TrackingResult) (result *domain.TrackingResult) {
	defer func() {
		if p := recover(); p != nil {
			o.logger.Error("Source panicked",
				zap.String("tracking_number", r.number),
				zap.String("carrier", r.carrier),
				zap.Any("panic", p),
			)
			result = domain.Failure(r.number, r.carrier, fmt.Sprintf("source panic: %v", p))
		}
	}()

	res := call()
	if res == nil {
		return domain.Failure(r.number, r.carrier, "source returned no result")
	}
	res = res.Clone()
	if res.TrackingNumber == "" {
		res.TrackingNumber = r.number
	}
	if res.Carrier == "" {
		res.Carrier = r.carrier
	}
	return res.Normalize()
}

// finish stores and publishes a fresh success.
func (o *Orchestrator) finish(ctx context.Context, r *resolution, result *domain.TrackingResult, provider domain.Provider, fallback bool) *domain.OrchestratorResult {
	o.store(ctx, r, result)
	out := o.wrap(r, result, provider, fallback)
	o.publish(ctx, r, out)
	return out
}

func (o *Orchestrator) wrap(r *resolution, result *domain.TrackingResult, provider domain.Provider, fallback bool) *domain.OrchestratorResult {
	return &domain.OrchestratorResult{
		TrackingResult: *result,
		Provider:       provider,
		FallbackUsed:   fallback,
		ResponseTime:   time.Since(r.start),
	}
}

func (o *Orchestrator) lookup(ctx context.Context, r *resolution) *domain.TrackingResult {
	if o.cache == nil {
		return nil
	}
	cached, err := o.cache.Lookup(ctx, r.number, r.opts.ScopeID)
	if err != nil {
		o.logger.Warn("Cache lookup failed",
			zap.String("tracking_number", r.number),
			zap.String("scope_id", r.opts.ScopeID),
			zap.Error(err),
		)
		return nil
	}
	if cached == nil {
		return nil
	}
	return cached.Clone().Normalize()
}

func (o *Orchestrator) store(ctx context.Context, r *resolution, result *domain.TrackingResult) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Upsert(ctx, r.number, r.opts.ScopeID, result.Clone()); err != nil {
		o.logger.Warn("Cache write failed",
			zap.String("tracking_number", r.number),
			zap.String("scope_id", r.opts.ScopeID),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) record(ctx context.Context, r *resolution, provider domain.Provider, status domain.LogStatus, result *domain.TrackingResult, layerStart time.Time) {
	if o.logs == nil {
		return
	}
	entry := domain.RequestLogEntry{
		TrackingNumber:  r.number,
		Provider:        provider,
		Status:          status,
		ResponseTime:    time.Since(layerStart),
		DetectedCarrier: r.carrier,
		ScopeID:         r.opts.ScopeID,
		Error:           result.ErrorMessage(),
	}
	if err := o.logs.Append(ctx, entry); err != nil {
		o.logger.Warn("Request log write failed",
			zap.String("tracking_number", r.number),
			zap.String("provider", string(provider)),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) publish(ctx context.Context, r *resolution, out *domain.OrchestratorResult) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, r.opts.ScopeID, out); err != nil {
		o.logger.Warn("Result publish failed",
			zap.String("tracking_number", r.number),
			zap.Error(err),
		)
	}
}

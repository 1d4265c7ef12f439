package adapter

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"container-tracker/internal/core/logger"
	"container-tracker/internal/core/retry"
	"container-tracker/internal/features/tracking/carrier"
	"container-tracker/internal/features/tracking/domain"

	"go.uber.org/zap"
)

// Option customizes a scraper.
type Option func(*baseScraper)

// WithRetryDelay overrides the wait after the first failed attempt.
func WithRetryDelay(d time.Duration) Option {
	return func(b *baseScraper) {
		b.retryDelay = d
	}
}

// WithPatterns replaces the accepted tracking number formats.
func WithPatterns(patterns ...*regexp.Regexp) Option {
	return func(b *baseScraper) {
		b.patterns = patterns
	}
}

// fetchFunc performs one attempt. The context carries the per-attempt timeout.
type fetchFunc func(ctx context.Context, trackingNumber string) (*domain.TrackingResult, error)

// baseScraper implements the parts of ports.CarrierScraper shared by every
// Layer 1 source: validation, retries, panic containment and result defaults.
type baseScraper struct {
	cfg        domain.ScraperConfig
	patterns   []*regexp.Regexp
	retryDelay time.Duration
	logger     *zap.Logger
}

func newBaseScraper(cfg domain.ScraperConfig, patterns []*regexp.Regexp, opts []Option) baseScraper {
	b := baseScraper{
		cfg:        cfg,
		patterns:   patterns,
		retryDelay: retry.DefaultBaseDelay,
		logger:     logger.Get().With(zap.String("carrier", cfg.CarrierCode)),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// containerPatterns returns the container number format of a known carrier
// plus any extra carrier-specific formats.
func containerPatterns(code string, extra ...string) []*regexp.Regexp {
	var out []*regexp.Regexp
	if p, ok := carrier.PatternFor(code); ok {
		out = append(out, p.Regexp())
	}
	for _, e := range extra {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

func normalizeNumber(n string) string {
	return strings.ToUpper(strings.TrimSpace(n))
}

// Validate reports whether the number matches one of the accepted formats.
func (b *baseScraper) Validate(trackingNumber string) bool {
	n := normalizeNumber(trackingNumber)
	for _, re := range b.patterns {
		if re.MatchString(n) {
			return true
		}
	}
	return false
}

// CarrierCode returns the configured carrier code.
func (b *baseScraper) CarrierCode() string {
	return b.cfg.CarrierCode
}

// CarrierName returns the configured display name.
func (b *baseScraper) CarrierName() string {
	return b.cfg.CarrierName
}

// track runs fetch under the retry policy and always returns a normalized result.
func (b *baseScraper) track(ctx context.Context, trackingNumber string, fetch fetchFunc) *domain.TrackingResult {
	n := normalizeNumber(trackingNumber)
	code := b.cfg.CarrierCode

	if !b.Validate(n) {
		return domain.Failure(n, code, fmt.Sprintf("%s for %s: %q", domain.ErrInvalidTrackingNumber, b.cfg.CarrierName, n))
	}
	return b.run(ctx, n, fetch)
}

// run is track without format validation. Multi-carrier sources use it directly.
func (b *baseScraper) run(ctx context.Context, n string, fetch fetchFunc) *domain.TrackingResult {
	code := b.cfg.CarrierCode

	policy := retry.Policy{
		Attempts:  b.cfg.Attempts,
		BaseDelay: b.retryDelay,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			b.logger.Warn("Scrape attempt failed, retrying",
				zap.String("tracking_number", n),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		},
	}

	start := time.Now()
	result, err := retry.Value(ctx, policy, func(ctx context.Context, attempt int) (*domain.TrackingResult, error) {
		return b.attempt(ctx, n, fetch)
	})
	if err != nil {
		b.logger.Info("Scrape failed",
			zap.String("tracking_number", n),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return domain.Failure(n, code, err.Error())
	}
	if result == nil {
		return domain.Failure(n, code, "source returned no data")
	}

	now := time.Now().UTC()
	result.Success = true
	result.TrackingNumber = n
	if result.Carrier == "" {
		result.Carrier = code
	}
	result.ScrapedAt = now
	cacheUntil := now.Add(b.cfg.CacheTTL)
	result.CacheUntil = &cacheUntil

	b.logger.Debug("Scrape succeeded",
		zap.String("tracking_number", n),
		zap.Duration("duration", time.Since(start)),
	)

	return result.Normalize()
}

// attempt runs fetch with its own timeout. A panic ends the retry loop.
func (b *baseScraper) attempt(ctx context.Context, n string, fetch fetchFunc) (res *domain.TrackingResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Scraper panicked",
				zap.String("tracking_number", n),
				zap.Any("panic", r),
			)
			res = nil
			err = retry.Permanent(fmt.Errorf("scraper panic: %v", r))
		}
	}()

	res, err = fetch(ctx, n)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		err = fmt.Errorf("attempt timed out after %s: %w", b.cfg.Timeout, err)
	}
	return res, err
}

// Package refresh re-resolves stored results that went stale so clients see
// fresh data without asking for it.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"container-tracker/internal/core/logger"
	"container-tracker/internal/features/tracking/domain"
	"container-tracker/internal/features/tracking/ports"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule runs the refresher every 30 minutes.
const DefaultSchedule = "*/30 * * * *"

// Refresher periodically force-refreshes stale, undelivered shipments.
type Refresher struct {
	lister   ports.StaleLister
	resolver ports.Resolver
	schedule string
	maxAge   time.Duration
	batch    int
	now      func() time.Time
	logger   *zap.Logger

	mu   sync.Mutex
	busy bool
	cron *cron.Cron
}

// NewRefresher creates a new Refresher. Results older than maxAge are refreshed,
// at most batch per run.
func NewRefresher(lister ports.StaleLister, resolver ports.Resolver, schedule string, maxAge time.Duration, batch int) *Refresher {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if batch <= 0 {
		batch = 50
	}
	return &Refresher{
		lister:   lister,
		resolver: resolver,
		schedule: schedule,
		maxAge:   maxAge,
		batch:    batch,
		now:      time.Now,
		logger:   logger.Get().Named("refresher"),
	}
}

// Start registers the cron job. Runs that overlap a previous run are skipped.
func (r *Refresher) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("Refresh run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule refresher: %w", err)
	}

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()

	c.Start()
	r.logger.Info("Refresher scheduled", zap.String("schedule", r.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// ErrBusy is returned by RunOnce while another run is in progress.
var ErrBusy = errors.New("refresh already running")

// RunOnce refreshes one batch and returns the number of successful refreshes.
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return 0, ErrBusy
	}
	r.busy = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.busy = false
		r.mu.Unlock()
	}()

	stale, err := r.lister.ListStale(ctx, r.now().Add(-r.maxAge), r.batch)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale results: %w", err)
	}
	if len(stale) == 0 {
		r.logger.Debug("No stale results to refresh")
		return 0, nil
	}

	refreshed := 0
	for _, rec := range stale {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		// The stored carrier may be a fallback provider's display name rather
		// than a registry code, so detection picks the scraper again.
		res := r.resolver.Resolve(ctx, rec.TrackingNumber, domain.ResolveOptions{
			ForceRefresh: true,
			ScopeID:      rec.ScopeID,
		})
		if res.Success {
			refreshed++
			continue
		}
		r.logger.Warn("Refresh failed",
			zap.String("tracking_number", rec.TrackingNumber),
			zap.String("scope_id", rec.ScopeID),
			zap.String("stored_carrier", rec.Carrier),
			zap.String("error", res.ErrorMessage()),
		)
	}

	r.logger.Info("Refresh run completed",
		zap.Int("candidates", len(stale)),
		zap.Int("refreshed", refreshed),
	)
	return refreshed, nil
}

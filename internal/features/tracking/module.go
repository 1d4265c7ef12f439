// Package tracking assembles the tracking feature from configuration.
package tracking

import (
	"context"
	"errors"
	"time"

	"container-tracker/internal/core/broker"
	"container-tracker/internal/core/browser"
	"container-tracker/internal/core/cache"
	"container-tracker/internal/core/config"
	"container-tracker/internal/core/httpclient"
	"container-tracker/internal/core/logger"
	"container-tracker/internal/core/proxy"
	"container-tracker/internal/features/refresh"
	adapter "container-tracker/internal/features/tracking/adapters"
	"container-tracker/internal/features/tracking/carrier"
	"container-tracker/internal/features/tracking/domain"
	"container-tracker/internal/features/tracking/handler"
	"container-tracker/internal/features/tracking/ports"
	"container-tracker/internal/features/tracking/service"

	"go.uber.org/zap"
)

const httpTimeout = 30 * time.Second

// Module is the wired tracking feature.
type Module struct {
	Orchestrator *service.Orchestrator
	Handler      *handler.TrackingHandler
	// Refresher is nil when no database or schedule is configured.
	Refresher *refresh.Refresher

	closers []func() error
}

// ProxySettings converts the proxy configuration.
func ProxySettings(cfg *config.AppConfig) proxy.Settings {
	return proxy.Settings{
		Enabled:  cfg.Proxy.Enabled,
		Hostname: cfg.Proxy.Hostname,
		Port:     cfg.Proxy.Port,
		Username: cfg.Proxy.Username,
		Password: cfg.Proxy.Password,
	}
}

// Build wires scrapers, fallbacks, stores and the orchestrator. Optional
// backends (Redis, Postgres, Kafka) are skipped when not configured.
func Build(ctx context.Context, cfg *config.AppConfig) (*Module, error) {
	l := logger.Get()
	m := &Module{}

	ps := ProxySettings(cfg)
	client := httpclient.NewClient(httpTimeout, httpclient.WithProxy(ps))

	launcher := browser.NewRodLauncher(browser.Options{
		Headless: cfg.Browser.Headless,
		Bin:      cfg.Browser.Bin,
		Proxy:    ps,
	})
	m.closers = append(m.closers, launcher.Shutdown)

	ttl := cfg.CacheTTL()
	scraperCfg := func(baseURL, apiKey string) domain.ScraperConfig {
		return domain.ScraperConfig{BaseURL: baseURL, APIKey: apiKey, CacheTTL: ttl}
	}

	registry, err := carrier.NewRegistry(
		adapter.NewMSCScraper(scraperCfg(cfg.Carriers.MSCURL, ""), launcher),
		adapter.NewONEScraper(scraperCfg(cfg.Carriers.ONEURL, ""), launcher),
		adapter.NewMaerskScraper(scraperCfg(cfg.Carriers.MaerskAPIURL, cfg.Carriers.MaerskAPIKey), client),
		adapter.NewHapagScraper(scraperCfg(cfg.Carriers.HapagAPIURL, cfg.Carriers.HapagAPIKey), client),
		adapter.NewEvergreenScraper(scraperCfg(cfg.Carriers.EvergreenURL, ""), ps, client.Transport),
	)
	if err != nil {
		return nil, err
	}

	var (
		tiers     []ports.CacheStore
		logs      ports.RequestLogger = adapter.NewZapRequestLogger()
		opts      []service.Option
		stale     ports.StaleLister
		redisConn *cache.RedisAdapter
	)

	if cfg.Storage.RedisURL != "" {
		redisConn, err = cache.NewRedisAdapter(cfg.Storage.RedisURL)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.closers = append(m.closers, redisConn.Close)
		if err := redisConn.Ping(ctx); err != nil {
			l.Warn("Redis unreachable at startup, cache will retry per request", zap.Error(err))
		}
		tiers = append(tiers, adapter.NewRedisCacheStore(redisConn, ttl))
		if limit := int64(cfg.Storage.ScrapeRateLimitPerMinute); limit > 0 {
			opts = append(opts, service.WithScrapeLimit(cache.NewRateLimiter(redisConn, "tracking"), limit))
		}
	}

	if cfg.Storage.DatabaseURL != "" {
		pg, err := adapter.NewPostgresStore(ctx, cfg.Storage.DatabaseURL, ttl)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.closers = append(m.closers, func() error { pg.Close(); return nil })
		tiers = append(tiers, pg)
		logs = pg
		stale = pg
	}

	if brokers := cfg.BrokerList(); len(brokers) > 0 {
		producer := broker.NewProducer(brokers)
		m.closers = append(m.closers, producer.Close)
		opts = append(opts, service.WithPublisher(adapter.NewKafkaResultPublisher(producer, cfg.Messaging.KafkaTopic)))
	}

	var store ports.CacheStore
	switch len(tiers) {
	case 0:
		l.Warn("No cache backend configured, results will not be cached")
	case 1:
		store = tiers[0]
	default:
		store = adapter.NewTieredCacheStore(tiers...)
	}

	m.Orchestrator = service.NewOrchestrator(
		store,
		logs,
		carrier.NewDefaultDetector(),
		registry,
		adapter.NewSecondaryAPISource(cfg.Layers.SecondaryAPIURL, cfg.Layers.SecondaryAPIKey, client),
		adapter.NewVendorAPISource(cfg.Layers.VendorAPIURL, cfg.Layers.VendorAPIKey, client),
		opts...,
	)
	m.Handler = handler.NewTrackingHandler(m.Orchestrator)

	if stale != nil && cfg.Refresh.Schedule != "" {
		m.Refresher = refresh.NewRefresher(stale, m.Orchestrator, cfg.Refresh.Schedule, ttl, cfg.Refresh.BatchSize)
	}

	l.Info("Tracking module ready",
		zap.Strings("scrapers", registry.Codes()),
		zap.Bool("redis", cfg.Storage.RedisURL != ""),
		zap.Bool("postgres", cfg.Storage.DatabaseURL != ""),
		zap.Bool("kafka", len(cfg.BrokerList()) > 0),
	)
	return m, nil
}

// Close releases every backend in reverse order.
func (m *Module) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

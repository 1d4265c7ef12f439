package tracking

import (
	"context"
	"testing"

	"container-tracker/internal/core/config"
	"container-tracker/internal/features/tracking/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.Storage.CacheTTLSeconds = 7200
	cfg.Browser.Headless = true
	return cfg
}

// TestBuild_Minimal verifies the module builds without optional backends.
func TestBuild_Minimal(t *testing.T) {
	m, err := Build(context.Background(), minimalConfig())
	require.NoError(t, err)

	assert.NotNil(t, m.Orchestrator)
	assert.NotNil(t, m.Handler)
	assert.Nil(t, m.Refresher)
	assert.NoError(t, m.Close())
}

// TestBuild_WithRedis verifies the cache and rate limiter are wired when Redis is configured.
func TestBuild_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := minimalConfig()
	cfg.Storage.RedisURL = "redis://" + mr.Addr()
	cfg.Storage.ScrapeRateLimitPerMinute = 5

	m, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer m.Close()

	// Unknown format, no fallbacks configured: the vendor failure is written through.
	res := m.Orchestrator.Resolve(context.Background(), "ZZZZ0000000", domain.ResolveOptions{ScopeID: "acme"})
	assert.False(t, res.Success)
	assert.Equal(t, domain.ProviderVendorAPI, res.Provider)
	assert.True(t, mr.Exists("tracking:cache:acme:ZZZZ0000000"))
}

// TestBuild_InvalidRedisURL verifies configuration errors surface at startup.
func TestBuild_InvalidRedisURL(t *testing.T) {
	cfg := minimalConfig()
	cfg.Storage.RedisURL = "://bad"

	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}

// TestProxySettings verifies the config to proxy mapping.
func TestProxySettings(t *testing.T) {
	cfg := minimalConfig()
	cfg.Proxy.Enabled = true
	cfg.Proxy.Hostname = "proxy.local"
	cfg.Proxy.Port = 3128

	ps := ProxySettings(cfg)
	assert.True(t, ps.HasProxy())
	assert.Equal(t, "proxy.local:3128", ps.HostPort())
}

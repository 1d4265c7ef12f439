package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"container-tracker/internal/features/tracking/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockResolver is a mock implementation of Resolver for testing.
type mockResolver struct {
	number string
	opts   domain.ResolveOptions
	result *domain.OrchestratorResult
	calls  int
}

// Resolve implements Resolver.
func (m *mockResolver) Resolve(ctx context.Context, trackingNumber string, opts domain.ResolveOptions) *domain.OrchestratorResult {
	m.calls++
	m.number = trackingNumber
	m.opts = opts
	return m.result
}

func newTestApp(resolver *mockResolver) *fiber.App {
	handler := NewTrackingHandler(resolver)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	app.Get("/tracking/:number", handler.GetTracking)
	return app
}

// TestTrackingHandler_GetTracking_Success verifies a resolved result and option mapping.
func TestTrackingHandler_GetTracking_Success(t *testing.T) {
	resolver := &mockResolver{result: &domain.OrchestratorResult{
		TrackingResult: domain.TrackingResult{
			Success:        true,
			TrackingNumber: "MEDU7905689",
			Carrier:        "msc",
			Status:         domain.StatusInTransit,
			Events:         []domain.TrackingEvent{},
		},
		Provider: domain.ProviderWebScraping,
	}}
	app := newTestApp(resolver)

	req := httptest.NewRequest("GET", "/tracking/MEDU7905689?carrier=msc&force_refresh=true&scope=acme&provider=web_scraping", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "MEDU7905689", resolver.number)
	assert.Equal(t, domain.ResolveOptions{
		Carrier:           "msc",
		ForceRefresh:      true,
		ScopeID:           "acme",
		PreferredProvider: domain.ProviderWebScraping,
	}, resolver.opts)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "web_scraping", body["provider"])
	assert.Equal(t, "in_transit", body["status"])
	assert.Equal(t, false, body["cached"])
	assert.Contains(t, body, "response_time_ms")
}

// TestTrackingHandler_GetTracking_Failure verifies failed resolutions return 502 with the result body.
func TestTrackingHandler_GetTracking_Failure(t *testing.T) {
	msg := "web_scraping: captcha; vendor_api: no data received"
	resolver := &mockResolver{result: &domain.OrchestratorResult{
		TrackingResult: domain.TrackingResult{
			TrackingNumber: "MEDU7905689",
			Status:         domain.StatusUnknown,
			Events:         []domain.TrackingEvent{},
			Error:          &msg,
		},
		Provider:     domain.ProviderVendorAPI,
		FallbackUsed: true,
	}}
	app := newTestApp(resolver)

	resp, err := app.Test(httptest.NewRequest("GET", "/tracking/MEDU7905689", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, msg, body["error"])
	assert.Equal(t, true, body["fallback_used"])
	assert.Equal(t, domain.ResolveOptions{}, resolver.opts)
}

// TestTrackingHandler_GetTracking_InvalidProvider verifies provider validation.
func TestTrackingHandler_GetTracking_InvalidProvider(t *testing.T) {
	resolver := &mockResolver{}
	app := newTestApp(resolver)

	resp, err := app.Test(httptest.NewRequest("GET", "/tracking/MEDU7905689?provider=cache", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Contains(t, errResp.Message, "provider must be one of")
	assert.Equal(t, "test-ray-id", errResp.RayID)
	assert.Zero(t, resolver.calls)
}

// TestTrackingHandler_GetTracking_MissingTrackingNumber verifies the route requires a number.
func TestTrackingHandler_GetTracking_MissingTrackingNumber(t *testing.T) {
	app := newTestApp(&mockResolver{})

	resp, err := app.Test(httptest.NewRequest("GET", "/tracking/", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

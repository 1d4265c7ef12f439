package handler

import (
	"strings"

	"container-tracker/internal/features/tracking/domain"
	"container-tracker/internal/features/tracking/ports"

	"github.com/gofiber/fiber/v2"
)

// TrackingHandler handles HTTP requests for tracking operations.
type TrackingHandler struct {
	resolver ports.Resolver
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(resolver ports.Resolver) *TrackingHandler {
	return &TrackingHandler{
		resolver: resolver,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// GetTracking godoc
// @Summary Resolve a container, bill of lading or booking number
// @Description Looks the number up through cache, carrier scrapers and fallback APIs and returns a normalized result
// @Tags tracking
// @Accept json
// @Produce json
// @Param number path string true "Tracking Number"
// @Param carrier query string false "Carrier code override (e.g., msc, maersk)"
// @Param force_refresh query bool false "Skip the cache"
// @Param scope query string false "Tenant scope for cache and logs"
// @Param provider query string false "web_scraping for scraping only, vendor_api for the vendor API only"
// @Success 200 {object} domain.OrchestratorResult
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} domain.OrchestratorResult
// @Router /tracking/{number} [get]
func (h *TrackingHandler) GetTracking(c *fiber.Ctx) error {
	trackingNumber := strings.TrimSpace(c.Params("number"))
	if trackingNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "tracking number is required",
			RayID:   rayID(c),
		})
	}

	provider, ok := domain.ParsePreferredProvider(c.Query("provider"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "provider must be one of web_scraping, vendor_api",
			RayID:   rayID(c),
		})
	}

	result := h.resolver.Resolve(c.UserContext(), trackingNumber, domain.ResolveOptions{
		Carrier:           c.Query("carrier"),
		ForceRefresh:      c.QueryBool("force_refresh", false),
		ScopeID:           c.Query("scope"),
		PreferredProvider: provider,
	})

	if !result.Success {
		return c.Status(fiber.StatusBadGateway).JSON(result)
	}
	return c.JSON(result)
}

func rayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

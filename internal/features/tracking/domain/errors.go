package domain

import "errors"

var (
	// ErrInvalidTrackingNumber is returned when a number fails format validation.
	ErrInvalidTrackingNumber = errors.New("invalid tracking number format")
	// ErrTrackingNotFound is returned when a source explicitly reports no shipment.
	ErrTrackingNotFound = errors.New("tracking number not found")
	// ErrNotConfigured is returned when a layer lacks a required endpoint or secret.
	ErrNotConfigured = errors.New("not configured")
	// ErrRateLimited is returned when a source exceeded its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUnknownProvider is returned by request logs for an unregistered provider.
	ErrUnknownProvider = errors.New("unknown provider")
)

package adapter

import (
	"context"

	"container-tracker/internal/core/logger"
	"container-tracker/internal/features/tracking/domain"

	"go.uber.org/zap"
)

// ZapRequestLogger writes request log entries to the application log.
// It is used when no database is configured.
type ZapRequestLogger struct {
	logger *zap.Logger
}

// NewZapRequestLogger creates a log-only request logger.
func NewZapRequestLogger() *ZapRequestLogger {
	return &ZapRequestLogger{logger: logger.Get().Named("request_log")}
}

// Append implements ports.RequestLogger.
func (l *ZapRequestLogger) Append(_ context.Context, entry domain.RequestLogEntry) error {
	if !entry.Provider.Valid() {
		l.logger.Warn("Dropping request log for unknown provider",
			zap.String("provider", string(entry.Provider)),
			zap.Error(domain.ErrUnknownProvider),
		)
		return nil
	}
	fields := []zap.Field{
		zap.String("tracking_number", entry.TrackingNumber),
		zap.String("provider", string(entry.Provider)),
		zap.String("status", string(entry.Status)),
		zap.Int64("response_time_ms", entry.ResponseTime.Milliseconds()),
		zap.String("detected_carrier", entry.DetectedCarrier),
		zap.String("scope_id", entry.ScopeID),
	}
	if entry.Error != "" {
		fields = append(fields, zap.String("error", entry.Error))
	}
	l.logger.Info("Tracking request", fields...)
	return nil
}

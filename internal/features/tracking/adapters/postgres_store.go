package adapter

import (
	"context"
	"encoding/json"
	"time"

	"container-tracker/internal/core/logger"
	"container-tracker/internal/features/tracking/domain"
	"container-tracker/internal/features/tracking/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PostgresStore persists results and request logs. It implements
// ports.CacheStore, ports.RequestLogger and ports.StaleLister.
type PostgresStore struct {
	db     *pgxpool.Pool
	ttl    time.Duration
	logger *zap.Logger
}

// NewPostgresStore connects and applies the schema.
func NewPostgresStore(ctx context.Context, connString string, ttl time.Duration) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}

	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	s := &PostgresStore{db: db, ttl: ttl, logger: logger.Get()}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.Ping(ctx), "ping pg")
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS api_providers (
  id SERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
)`,
		`
INSERT INTO api_providers (name)
VALUES ('cache'), ('web_scraping'), ('secondary_api'), ('vendor_api')
ON CONFLICT (name) DO NOTHING`,
		`
CREATE TABLE IF NOT EXISTS tracking_results (
  tracking_number TEXT NOT NULL,
  scope_id TEXT NOT NULL,
  carrier TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  success BOOLEAN NOT NULL,
  result JSONB NOT NULL,
  stored_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (tracking_number, scope_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_results_stored_at ON tracking_results(stored_at)`,
		`
CREATE TABLE IF NOT EXISTS tracking_request_logs (
  id UUID PRIMARY KEY,
  tracking_number TEXT NOT NULL,
  provider_id INT NOT NULL REFERENCES api_providers(id),
  status TEXT NOT NULL,
  response_time_ms BIGINT NOT NULL,
  detected_carrier TEXT NOT NULL DEFAULT '',
  scope_id TEXT NOT NULL DEFAULT '',
  error TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_request_logs_number ON tracking_request_logs(tracking_number, created_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

// Lookup returns a fresh successful result for the scope, or nil.
func (s *PostgresStore) Lookup(ctx context.Context, trackingNumber, scopeID string) (*domain.TrackingResult, error) {
	if scopeID == "" {
		return nil, nil
	}

	var raw []byte
	err := s.db.QueryRow(ctx, `
SELECT result
FROM tracking_results
WHERE tracking_number = $1
  AND scope_id = $2
  AND success
  AND stored_at > $3
`, trackingNumber, scopeID, time.Now().UTC().Add(-s.ttl)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select tracking result")
	}

	var result domain.TrackingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, "decode tracking result")
	}
	return result.Normalize(), nil
}

// Upsert overwrites the stored result. Results without a scope are not stored.
func (s *PostgresStore) Upsert(ctx context.Context, trackingNumber, scopeID string, result *domain.TrackingResult) error {
	if scopeID == "" {
		s.logger.Debug("Skipping result persistence without scope", zap.String("tracking_number", trackingNumber))
		return nil
	}
	if result == nil {
		return nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "encode tracking result")
	}

	_, err = s.db.Exec(ctx, `
INSERT INTO tracking_results (tracking_number, scope_id, carrier, status, success, result, stored_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (tracking_number, scope_id)
DO UPDATE SET carrier = EXCLUDED.carrier,
              status = EXCLUDED.status,
              success = EXCLUDED.success,
              result = EXCLUDED.result,
              stored_at = EXCLUDED.stored_at
`, trackingNumber, scopeID, result.Carrier, string(result.Status), result.Success, raw, time.Now().UTC())
	return errors.Wrap(err, "upsert tracking result")
}

// Append inserts one request log row. Entries for providers missing from
// api_providers are dropped with a warning.
func (s *PostgresStore) Append(ctx context.Context, entry domain.RequestLogEntry) error {
	var errText *string
	if entry.Error != "" {
		errText = &entry.Error
	}

	tag, err := s.db.Exec(ctx, `
INSERT INTO tracking_request_logs (
  id, tracking_number, provider_id, status, response_time_ms, detected_carrier, scope_id, error, created_at
)
SELECT $1::uuid, $2::text, p.id, $4::text, $5::bigint, $6::text, $7::text, $8::text, $9::timestamptz
FROM api_providers p
WHERE p.name = $3::text
`, uuid.New().String(), entry.TrackingNumber, string(entry.Provider), string(entry.Status),
		entry.ResponseTime.Milliseconds(), entry.DetectedCarrier, entry.ScopeID, errText, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "insert request log")
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn("Dropping request log for unknown provider",
			zap.String("provider", string(entry.Provider)),
			zap.String("tracking_number", entry.TrackingNumber),
			zap.Error(domain.ErrUnknownProvider),
		)
	}
	return nil
}

// ListStale returns successful, non-final results stored before olderThan, oldest first.
func (s *PostgresStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]ports.StaleRecord, error) {
	rows, err := s.db.Query(ctx, `
SELECT tracking_number, scope_id, carrier, stored_at
FROM tracking_results
WHERE success
  AND status NOT IN ($1, $2)
  AND stored_at < $3
ORDER BY stored_at ASC
LIMIT $4
`, string(domain.StatusDelivered), string(domain.StatusEmpty), olderThan.UTC(), limit)
	if err != nil {
		return nil, errors.Wrap(err, "select stale results")
	}
	defer rows.Close()

	var out []ports.StaleRecord
	for rows.Next() {
		var r ports.StaleRecord
		if err := rows.Scan(&r.TrackingNumber, &r.ScopeID, &r.Carrier, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan stale result")
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

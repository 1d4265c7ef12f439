package adapter

import (
	"context"
	"testing"
	"time"

	"container-tracker/internal/features/tracking/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "tracker_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/tracker_test?sslmode=disable"
	st, err := NewPostgresStore(ctx, dsn, time.Hour)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

// TestPostgresStore_Flow verifies results, request logs and stale listing against a real database.
func TestPostgresStore_Flow(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, st.Ping(ctx))

	// results are scoped and upserted
	require.NoError(t, st.Upsert(ctx, "MEDU7905689", "acme", successResult("MEDU7905689")))
	require.NoError(t, st.Upsert(ctx, "MEDU7905689", "", successResult("MEDU7905689")))

	got, err := st.Lookup(ctx, "MEDU7905689", "acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusInTransit, got.Status)

	other, err := st.Lookup(ctx, "MEDU7905689", "globex")
	require.NoError(t, err)
	assert.Nil(t, other)

	delivered := successResult("MSCU1234567")
	delivered.Status = domain.StatusDelivered
	require.NoError(t, st.Upsert(ctx, "MSCU1234567", "acme", delivered))
	require.NoError(t, st.Upsert(ctx, "ZZZZ0000000", "acme", domain.Failure("ZZZZ0000000", "", "no data received")))

	failed, err := st.Lookup(ctx, "ZZZZ0000000", "acme")
	require.NoError(t, err)
	assert.Nil(t, failed)

	// only the in-transit success is due for refresh
	stale, err := st.ListStale(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "MEDU7905689", stale[0].TrackingNumber)
	assert.Equal(t, "acme", stale[0].ScopeID)
	assert.Equal(t, "msc", stale[0].Carrier)

	// stale entries stop being served
	_, err = st.db.Exec(ctx, `UPDATE tracking_results SET stored_at = now() - interval '2 hours'`)
	require.NoError(t, err)
	got, err = st.Lookup(ctx, "MEDU7905689", "acme")
	require.NoError(t, err)
	assert.Nil(t, got)

	// request logs
	require.NoError(t, st.Append(ctx, domain.RequestLogEntry{
		TrackingNumber:  "MEDU7905689",
		Provider:        domain.ProviderWebScraping,
		Status:          domain.LogStatusSuccess,
		ResponseTime:    1500 * time.Millisecond,
		DetectedCarrier: "msc",
		ScopeID:         "acme",
	}))
	require.NoError(t, st.Append(ctx, domain.RequestLogEntry{
		TrackingNumber: "MEDU7905689",
		Provider:       domain.Provider("carrier_portal"),
		Status:         domain.LogStatusFailed,
		Error:          "boom",
	}))

	var count int
	var ms int64
	require.NoError(t, st.db.QueryRow(ctx, `SELECT count(*), max(response_time_ms) FROM tracking_request_logs`).Scan(&count, &ms))
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(1500), ms)
}

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"container-tracker/internal/features/tracking/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topic string
	key   []byte
	value []byte
	err   error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

// TestKafkaResultPublisher_Publish verifies topic, key and payload of a resolved event.
func TestKafkaResultPublisher_Publish(t *testing.T) {
	rec := &recordingPublisher{}
	pub := NewKafkaResultPublisher(rec, "")

	res := &domain.OrchestratorResult{
		TrackingResult: *successResult("MEDU7905689"),
		Provider:       domain.ProviderWebScraping,
	}
	require.NoError(t, pub.Publish(context.Background(), "acme", res))

	assert.Equal(t, DefaultResultTopic, rec.topic)
	assert.Equal(t, "acme|MEDU7905689", string(rec.key))

	var ev struct {
		EventID string `json:"event_id"`
		ScopeID string `json:"scope_id"`
		Result  struct {
			Provider       string `json:"provider"`
			TrackingNumber string `json:"tracking_number"`
			Status         string `json:"status"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.value, &ev))
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "acme", ev.ScopeID)
	assert.Equal(t, "web_scraping", ev.Result.Provider)
	assert.Equal(t, "MEDU7905689", ev.Result.TrackingNumber)
	assert.Equal(t, "in_transit", ev.Result.Status)
}

// TestKafkaResultPublisher_Error verifies producer errors are returned.
func TestKafkaResultPublisher_Error(t *testing.T) {
	pub := NewKafkaResultPublisher(&recordingPublisher{err: errors.New("broker down")}, "custom")

	err := pub.Publish(context.Background(), "acme", &domain.OrchestratorResult{})
	assert.EqualError(t, err, "broker down")
}

// TestZapRequestLogger_Append verifies entries never fail, even for unknown providers.
func TestZapRequestLogger_Append(t *testing.T) {
	l := NewZapRequestLogger()

	assert.NoError(t, l.Append(context.Background(), domain.RequestLogEntry{
		TrackingNumber: "MEDU7905689",
		Provider:       domain.ProviderVendorAPI,
		Status:         domain.LogStatusFailed,
		Error:          "no data received",
	}))
	assert.NoError(t, l.Append(context.Background(), domain.RequestLogEntry{Provider: "carrier_portal"}))
}

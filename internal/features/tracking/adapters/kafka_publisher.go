package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"container-tracker/internal/features/tracking/domain"

	"github.com/google/uuid"
)

// DefaultResultTopic receives one event per fresh successful resolution.
const DefaultResultTopic = "tracking.resolved"

// messagePublisher is satisfied by broker.Producer.
type messagePublisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// ResolvedEvent is the payload published for a resolved tracking number.
type ResolvedEvent struct {
	EventID    string                     `json:"event_id"`
	ScopeID    string                     `json:"scope_id"`
	OccurredAt time.Time                  `json:"occurred_at"`
	Result     *domain.OrchestratorResult `json:"result"`
}

// KafkaResultPublisher implements ports.ResultPublisher.
type KafkaResultPublisher struct {
	producer messagePublisher
	topic    string
}

// NewKafkaResultPublisher creates a publisher. An empty topic uses DefaultResultTopic.
func NewKafkaResultPublisher(producer messagePublisher, topic string) *KafkaResultPublisher {
	if topic == "" {
		topic = DefaultResultTopic
	}
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

// Publish sends the result keyed by "scope|number" so updates for one
// shipment stay ordered.
func (p *KafkaResultPublisher) Publish(ctx context.Context, scopeID string, result *domain.OrchestratorResult) error {
	if result == nil {
		return nil
	}
	value, err := json.Marshal(ResolvedEvent{
		EventID:    uuid.NewString(),
		ScopeID:    scopeID,
		OccurredAt: time.Now().UTC(),
		Result:     result,
	})
	if err != nil {
		return fmt.Errorf("failed to encode resolved event: %w", err)
	}
	key := []byte(scopeID + "|" + result.TrackingNumber)
	return p.producer.Publish(ctx, p.topic, key, value)
}

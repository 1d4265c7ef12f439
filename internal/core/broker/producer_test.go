package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	last   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.last = append([]kafka.Message{}, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := newProducerWithWriter(fw)

	require.NoError(t, p.Publish(context.Background(), "tracking.resolved", []byte("tenant-a|MEDU7905689"), []byte(`{}`)))
	require.Len(t, fw.last, 1)
	require.Equal(t, "tracking.resolved", fw.last[0].Topic)
	require.Equal(t, []byte("tenant-a|MEDU7905689"), fw.last[0].Key)
	require.Equal(t, []byte(`{}`), fw.last[0].Value)
	require.False(t, fw.last[0].Time.IsZero())
}

func TestProducer_PublishError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	p := newProducerWithWriter(fw)

	err := p.Publish(context.Background(), "t", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "kafka publish")
}

func TestProducer_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, newProducerWithWriter(fw).Close())
	require.True(t, fw.closed)
}

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"localhost:0"})
	require.NotNil(t, p)
}

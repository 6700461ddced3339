package consumers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/events"
)

type chanReader struct {
	msgs chan kafkago.Message
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	select {
	case <-ctx.Done():
		return kafkago.Message{}, ctx.Err()
	case m := <-r.msgs:
		return m, nil
	}
}

type memoryStore struct {
	mu   sync.Mutex
	logs []prediction.Log
}

func (s *memoryStore) Record(_ context.Context, l *prediction.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *l)
	return nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func TestPredictionLogConsumer(t *testing.T) {
	reader := &chanReader{msgs: make(chan kafkago.Message, 4)}
	store := &memoryStore{}
	consumer := NewPredictionLogConsumer(reader, store)

	log := prediction.NewLog(prediction.ServiceWaste, "waste_model")
	good, err := json.Marshal(events.PredictionEvent{
		Envelope: events.NewEnvelope(events.TypePredictionServed, "test"),
		Log:      *log,
	})
	require.NoError(t, err)
	wrongType, err := json.Marshal(events.PredictionEvent{
		Envelope: events.NewEnvelope(events.TypeWasteAtRisk, "test"),
	})
	require.NoError(t, err)

	reader.msgs <- kafkago.Message{Value: []byte("{not json")}
	reader.msgs <- kafkago.Message{Value: wrongType}
	reader.msgs <- kafkago.Message{Value: good}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Start(ctx) }()

	assert.Eventually(t, func() bool { return store.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	stored, skipped := consumer.Stats()
	assert.Equal(t, int64(1), stored)
	assert.Equal(t, int64(2), skipped)
	assert.Equal(t, log.ID, store.logs[0].ID)
}

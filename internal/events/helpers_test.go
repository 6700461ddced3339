package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/internal/adapters/kafka"
	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/domain/waste"
)

type published struct {
	topic string
	key   string
	data  []byte
}

type fakeProducer struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakeProducer) Publish(_ context.Context, topic, key string, event interface{}) error {
	if f.err != nil {
		return f.err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{topic: topic, key: key, data: data})
	return nil
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"valid string unchanged", "onnx: Run failed", "onnx: Run failed"},
		{"empty string", "", ""},
		{"invalid byte removed", "Hello\xffWorld", "HelloWorld"},
		{"multiple invalid sequences", "Start\xffMiddle\xfeEnd\xfd", "StartMiddleEnd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeUTF8(tt.input))
		})
	}
}

func TestPublisher_PublishPrediction(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewPublisher(producer, "smartkitchen-test")

	log := prediction.NewLog(prediction.ServiceSales, "sales_model")
	log.Fail(errors.New("bad\xffbyte"))
	require.NoError(t, NewKafkaRecorder(pub).Record(context.Background(), log))

	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, kafka.TopicPredictions, msg.topic)
	assert.Equal(t, "sales", msg.key)

	var event PredictionEvent
	require.NoError(t, json.Unmarshal(msg.data, &event))
	assert.Equal(t, TypePredictionServed, event.Type)
	assert.Equal(t, "smartkitchen-test", event.Source)
	assert.Equal(t, log.ID, event.Log.ID)
	assert.Equal(t, "badbyte", event.Log.Error)
	assert.Equal(t, "bad\xffbyte", log.Error, "the caller's log is not modified")
}

func TestPublisher_WasteAlertAndForecast(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewPublisher(producer, "worker")
	ctx := context.Background()

	item := waste.Item{ItemName: "Fresh Milk", ExpiryDate: "20-10-2026", Category: "Dairy", StorageCondition: "Fridge"}
	require.NoError(t, pub.PublishWasteAlert(ctx, item, waste.Assessment{ItemName: item.ItemName, WasteRisk: waste.RiskAtRisk}))

	result := &forecast.Result{Points: make([]forecast.Point, 30), GeneratedAt: time.Now()}
	require.NoError(t, pub.PublishForecastRefreshed(ctx, result, "forecast.csv"))

	require.Len(t, producer.msgs, 2)
	assert.Equal(t, kafka.TopicWasteAlerts, producer.msgs[0].topic)
	assert.Equal(t, "Fresh Milk", producer.msgs[0].key)
	assert.Equal(t, kafka.TopicForecastRefreshed, producer.msgs[1].topic)
	assert.Equal(t, "all", producer.msgs[1].key)

	var event ForecastRefreshedEvent
	require.NoError(t, json.Unmarshal(producer.msgs[1].data, &event))
	assert.Equal(t, 30, event.Periods)
}

func TestPublisher_PropagatesErrors(t *testing.T) {
	boom := errors.New("broker down")
	pub := NewPublisher(&fakeProducer{err: boom}, "test")

	err := pub.PublishPrediction(context.Background(), prediction.NewLog("waste", "rule"))
	assert.ErrorIs(t, err, boom)
}

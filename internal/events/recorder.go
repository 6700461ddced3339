package events

import (
	"context"

	"smartkitchen/internal/domain/prediction"
	"smartkitchen/pkg/logger"
)

// KafkaRecorder records predictions by publishing them
type KafkaRecorder struct {
	publisher *Publisher
}

func NewKafkaRecorder(publisher *Publisher) *KafkaRecorder {
	return &KafkaRecorder{publisher: publisher}
}

func (r *KafkaRecorder) Record(ctx context.Context, log *prediction.Log) error {
	return r.publisher.PublishPrediction(ctx, log)
}

// LogRecorder writes predictions to the debug log only
type LogRecorder struct {
	log *logger.Logger
}

func NewLogRecorder() *LogRecorder {
	return &LogRecorder{log: logger.Get().Component("prediction_log")}
}

func (r *LogRecorder) Record(_ context.Context, l *prediction.Log) error {
	r.log.Debug("prediction served",
		"id", l.ID,
		"service", l.Service,
		"model", l.Model,
		"status", l.Status,
		"latency", l.Latency,
	)
	return nil
}

var (
	_ prediction.Recorder = (*KafkaRecorder)(nil)
	_ prediction.Recorder = (*LogRecorder)(nil)
)

package events

import (
	"context"
	"time"

	"smartkitchen/internal/adapters/kafka"
	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/domain/waste"
	"smartkitchen/pkg/logger"
)

// Producer is the subset of the Kafka producer the publisher needs
type Producer interface {
	Publish(ctx context.Context, topic, key string, event interface{}) error
}

// PredictionEvent is published for every served prediction
type PredictionEvent struct {
	Envelope
	Log prediction.Log `json:"log"`
}

// WasteAlertEvent is published for each inventory item found at risk
type WasteAlertEvent struct {
	Envelope
	Assessment waste.Assessment `json:"assessment"`
	Category   string           `json:"category"`
	Storage    string           `json:"storage_condition"`
	ExpiryDate string           `json:"expiry_date"`
}

// ForecastRefreshedEvent is published after a background forecast refresh
type ForecastRefreshedEvent struct {
	Envelope
	Ingredient  string                    `json:"ingredient"`
	Periods     int                       `json:"periods"`
	OutputPath  string                    `json:"output_path"`
	Monthly     []forecast.MonthlySummary `json:"monthly_summary"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// Publisher publishes domain events to Kafka
type Publisher struct {
	producer Producer
	source   string
	log      *logger.Logger
}

// NewPublisher creates a publisher; source names the emitting process
func NewPublisher(producer Producer, source string) *Publisher {
	return &Publisher{
		producer: producer,
		source:   source,
		log:      logger.Get().Component("event_publisher"),
	}
}

// PublishPrediction publishes a served prediction keyed by service
func (p *Publisher) PublishPrediction(ctx context.Context, log *prediction.Log) error {
	entry := *log
	entry.Error = SanitizeUTF8(entry.Error)
	event := PredictionEvent{
		Envelope: NewEnvelope(TypePredictionServed, p.source),
		Log:      entry,
	}
	return p.producer.Publish(ctx, kafka.TopicPredictions, log.Service, event)
}

// PublishWasteAlert publishes an at-risk inventory item keyed by item name
func (p *Publisher) PublishWasteAlert(ctx context.Context, item waste.Item, a waste.Assessment) error {
	event := WasteAlertEvent{
		Envelope:   NewEnvelope(TypeWasteAtRisk, p.source),
		Assessment: a,
		Category:   item.Category,
		Storage:    item.StorageCondition,
		ExpiryDate: item.ExpiryDate,
	}
	return p.producer.Publish(ctx, kafka.TopicWasteAlerts, item.ItemName, event)
}

// PublishForecastRefreshed publishes a refreshed forecast keyed by ingredient
func (p *Publisher) PublishForecastRefreshed(ctx context.Context, result *forecast.Result, outputPath string) error {
	event := ForecastRefreshedEvent{
		Envelope:    NewEnvelope(TypeForecastRefreshed, p.source),
		Ingredient:  result.Ingredient,
		Periods:     len(result.Points),
		OutputPath:  outputPath,
		Monthly:     result.Monthly,
		GeneratedAt: result.GeneratedAt,
	}
	key := result.Ingredient
	if key == "" {
		key = "all"
	}
	return p.producer.Publish(ctx, kafka.TopicForecastRefreshed, key, event)
}

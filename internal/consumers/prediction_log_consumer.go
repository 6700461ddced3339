package consumers

import (
	"context"
	"encoding/json"
	"sync/atomic"

	kafkago "github.com/segmentio/kafka-go"

	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/events"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// MessageReader is the subset of the Kafka consumer used here
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
}

// PredictionLogConsumer persists prediction events into the prediction log store
type PredictionLogConsumer struct {
	reader MessageReader
	store  prediction.Recorder
	log    *logger.Logger

	stored  atomic.Int64
	skipped atomic.Int64
}

// NewPredictionLogConsumer creates a consumer writing to store
func NewPredictionLogConsumer(reader MessageReader, store prediction.Recorder) *PredictionLogConsumer {
	return &PredictionLogConsumer{
		reader: reader,
		store:  store,
		log:    logger.Get().Component("prediction_log_consumer"),
	}
}

// Start consumes until ctx is cancelled. Malformed messages are skipped.
func (c *PredictionLogConsumer) Start(ctx context.Context) error {
	c.log.Info("starting prediction log consumer")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("prediction log consumer stopped",
					"stored", c.stored.Load(),
					"skipped", c.skipped.Load(),
				)
				return nil
			}
			c.log.Error("failed to read prediction event", "error", err)
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			c.skipped.Add(1)
			c.log.Warn("failed to handle prediction event",
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

func (c *PredictionLogConsumer) handle(ctx context.Context, msg kafkago.Message) error {
	var event events.PredictionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return errors.Wrap(err, "unmarshal prediction event")
	}
	if event.Type != events.TypePredictionServed {
		return errors.Newf("unexpected event type %q", event.Type)
	}

	if err := c.store.Record(ctx, &event.Log); err != nil {
		return errors.Wrap(err, "store prediction log")
	}
	c.stored.Add(1)
	return nil
}

// Stats returns the stored and skipped message counts
func (c *PredictionLogConsumer) Stats() (stored, skipped int64) {
	return c.stored.Load(), c.skipped.Load()
}

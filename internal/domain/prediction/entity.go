package prediction

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Services that emit prediction logs
const (
	ServiceSales    = "sales"
	ServiceWaste    = "waste"
	ServiceSpoilage = "spoilage"
	ServiceForecast = "forecast"
)

// Log statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Log records one served prediction
type Log struct {
	ID        uuid.UUID     `ch:"id" json:"id"`
	Timestamp time.Time     `ch:"timestamp" json:"timestamp"`
	Service   string        `ch:"service" json:"service"`
	Model     string        `ch:"model" json:"model"`
	Status    string        `ch:"status" json:"status"`
	Alignment string        `ch:"alignment" json:"alignment,omitempty"`
	Latency   time.Duration `ch:"-" json:"latency_ns"`
	Input     string        `ch:"input" json:"input"`
	Output    string        `ch:"output" json:"output"`
	Error     string        `ch:"error" json:"error,omitempty"`
}

// NewLog creates a log entry stamped now
func NewLog(service, model string) *Log {
	return &Log{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Service:   service,
		Model:     model,
		Status:    StatusSuccess,
	}
}

// Fail marks the entry as failed
func (l *Log) Fail(err error) {
	if err == nil {
		return
	}
	l.Status = StatusError
	l.Error = err.Error()
}

// SetPayload stores input and output as JSON; values that fail to marshal are left empty
func (l *Log) SetPayload(input, output interface{}) {
	if data, err := json.Marshal(input); err == nil {
		l.Input = string(data)
	}
	if output == nil {
		return
	}
	if data, err := json.Marshal(output); err == nil {
		l.Output = string(data)
	}
}

// Recorder persists or publishes prediction logs
type Recorder interface {
	Record(ctx context.Context, log *Log) error
}

// Repository stores and queries prediction logs
type Repository interface {
	Recorder
	Recent(ctx context.Context, service string, limit int) ([]Log, error)
}

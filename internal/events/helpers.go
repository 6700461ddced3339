package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypePredictionServed  = "prediction.served"
	TypeWasteAtRisk       = "waste.at_risk"
	TypeForecastRefreshed = "forecast.refreshed"
)

// Envelope carries the metadata shared by every event
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// NewEnvelope stamps a new event
func NewEnvelope(eventType, source string) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Version:   "1.0",
	}
}

// SanitizeUTF8 drops invalid UTF-8 bytes
func SanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}

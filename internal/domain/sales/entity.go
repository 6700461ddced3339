package sales

import (
	"context"
	"time"

	"smartkitchen/internal/features"
)

// Categorical fields one-hot encoded at training time, in column order
var CategoricalFields = []string{"day_of_week", "category", "weather"}

// SaleContext is the body of a sales prediction request
type SaleContext struct {
	Month     int     `json:"month"`
	IsWeekend int     `json:"is_weekend"`
	DayOfWeek string  `json:"day_of_week"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Holiday   int     `json:"holiday"`
	Weather   string  `json:"weather"`
}

// Record is one row of the processed sales history
type Record struct {
	Date         time.Time
	ItemName     string
	Category     string
	DayOfWeek    string
	Weather      string
	Price        float64
	Holiday      int
	QuantitySold float64
}

// LagRecord projects the record for lag resolution
func (r Record) LagRecord() features.LagRecord {
	return features.LagRecord{
		Date:     r.Date,
		Category: r.Category,
		Value:    r.QuantitySold,
		Price:    r.Price,
	}
}

// Categories returns the categorical values keyed by field
func (r Record) Categories() map[string]string {
	return map[string]string{
		"day_of_week": r.DayOfWeek,
		"category":    r.Category,
		"weather":     r.Weather,
	}
}

// Categories returns the categorical values keyed by field
func (c SaleContext) Categories() map[string]string {
	return map[string]string{
		"day_of_week": c.DayOfWeek,
		"category":    c.Category,
		"weather":     c.Weather,
	}
}

// Prediction is the rounded predicted quantity with alignment diagnostics
type Prediction struct {
	PredictedSales float64            `json:"predicted_sales"`
	Alignment      features.Alignment `json:"alignment"`
	Unseen         []string           `json:"unseen_categories,omitempty"`
}

// Repository loads the processed sales history
type Repository interface {
	History(ctx context.Context) ([]Record, error)
	// Columns returns the dataset header in file order
	Columns(ctx context.Context) ([]string, error)
}

package forecast

import (
	"context"
	"time"
)

// DateLayout is the date format of forecast files
const DateLayout = "2006-01-02"

// Observation is one day of aggregated history
type Observation struct {
	Date  time.Time
	Value float64
}

// Point is one forecast day
type Point struct {
	Date     time.Time `json:"date"`
	Forecast float64   `json:"forecast"`
	Lower    float64   `json:"forecast_lower"`
	Upper    float64   `json:"forecast_upper"`
}

// MonthlySummary aggregates forecast points of one calendar month
type MonthlySummary struct {
	YearMonth  string  `json:"year_month"`
	Total      float64 `json:"total"`
	DailyAvg   float64 `json:"daily_avg"`
	DailyMin   float64 `json:"daily_min"`
	DailyMax   float64 `json:"daily_max"`
	TotalLower float64 `json:"total_lower"`
	TotalUpper float64 `json:"total_upper"`
}

// Request selects what to forecast
type Request struct {
	Ingredient string
	Periods    int
}

// PeriodsFor resolves the horizon: explicit periods, else months*30, else 30
func PeriodsFor(periods, months int) int {
	if periods > 0 {
		return periods
	}
	if months > 0 {
		return months * 30
	}
	return 30
}

// Result is a completed forecast run
type Result struct {
	Ingredient  string           `json:"ingredient,omitempty"`
	History     int              `json:"history_days"`
	Points      []Point          `json:"forecast"`
	Monthly     []MonthlySummary `json:"monthly_summary"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Repository persists forecast points
type Repository interface {
	Save(ctx context.Context, path string, points []Point) error
	Load(ctx context.Context, path string) ([]Point, error)
}

// Cache stores computed forecasts keyed by request and dataset version
type Cache interface {
	Get(ctx context.Context, key string) (*Result, error)
	Set(ctx context.Context, key string, result *Result, ttl time.Duration) error
}

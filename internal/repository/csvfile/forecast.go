package csvfile

import (
	"context"
	"strconv"
	"time"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/features"
	"smartkitchen/pkg/errors"
)

// ForecastColumns is the header of a saved forecast
var ForecastColumns = []string{"date", "forecast", "forecast_lower", "forecast_upper"}

// ForecastRepository saves forecasts as CSV
type ForecastRepository struct{}

func NewForecastRepository() *ForecastRepository {
	return &ForecastRepository{}
}

var _ forecast.Repository = (*ForecastRepository)(nil)

// Save writes points with full float precision
func (r *ForecastRepository) Save(ctx context.Context, path string, points []forecast.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.Date.Format(forecast.DateLayout),
			formatFloat(p.Forecast),
			formatFloat(p.Lower),
			formatFloat(p.Upper),
		})
	}
	return WriteTable(path, features.NewTable(ForecastColumns, rows))
}

// Load reads a saved forecast
func (r *ForecastRepository) Load(ctx context.Context, path string) ([]forecast.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := features.LoadCSV(path)
	if err != nil {
		return nil, err
	}
	for _, col := range ForecastColumns {
		if !t.HasColumn(col) {
			return nil, errors.Wrapf(errors.ErrSchema, "%s: missing column %s", path, col)
		}
	}

	points := make([]forecast.Point, 0, t.Len())
	for i, row := range t.Rows {
		date, err := time.Parse(forecast.DateLayout, t.Value(row, "date"))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrSchema, "%s row %d: invalid date", path, i+2)
		}
		p := forecast.Point{Date: date}
		if p.Forecast, err = t.Float(row, "forecast"); err != nil {
			return nil, err
		}
		if p.Lower, err = t.Float(row, "forecast_lower"); err != nil {
			return nil, err
		}
		if p.Upper, err = t.Float(row, "forecast_upper"); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package csvfile

import (
	"context"
	"strconv"

	"smartkitchen/internal/domain/sales"
	"smartkitchen/internal/features"
	"smartkitchen/pkg/errors"
)

var salesRequired = []string{"date", "category", "quantity_sold"}

// SalesRepository reads the processed sales history from a CSV file on every call
type SalesRepository struct {
	path string
}

// NewSalesRepository creates a repository over path
func NewSalesRepository(path string) *SalesRepository {
	return &SalesRepository{path: path}
}

var _ sales.Repository = (*SalesRepository)(nil)

// Columns returns the header of the dataset
func (r *SalesRepository) Columns(ctx context.Context) ([]string, error) {
	t, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}

// History parses every row. Missing quantities count as 0; bad dates fail the load.
func (r *SalesRepository) History(ctx context.Context) ([]sales.Record, error) {
	t, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]sales.Record, 0, t.Len())
	for i, row := range t.Rows {
		date, ok := features.ParseDate(t.Value(row, "date"))
		if !ok {
			return nil, errors.Wrapf(errors.ErrSchema, "%s row %d: invalid date %q", r.path, i+2, t.Value(row, "date"))
		}

		rec := sales.Record{
			Date:      date,
			ItemName:  t.Value(row, "item_name"),
			Category:  t.Value(row, "category"),
			DayOfWeek: t.Value(row, "day_of_week"),
			Weather:   t.Value(row, "weather"),
		}
		if rec.DayOfWeek == "" {
			rec.DayOfWeek = date.Weekday().String()
		}
		rec.Price = parseFloat(t.Value(row, "price"))
		rec.Holiday = int(parseFloat(t.Value(row, "holiday")))
		rec.QuantitySold = parseFloat(t.Value(row, "quantity_sold"))

		records = append(records, rec)
	}
	return records, nil
}

func (r *SalesRepository) load(ctx context.Context) (*features.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := features.LoadCSV(r.path)
	if err != nil {
		return nil, err
	}
	for _, col := range salesRequired {
		if !t.HasColumn(col) {
			return nil, errors.Wrapf(errors.ErrSchema, "%s: missing column %s", r.path, col)
		}
	}
	return t, nil
}

// parseFloat treats blank or malformed cells as 0
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

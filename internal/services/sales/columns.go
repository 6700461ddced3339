package sales

import (
	"context"

	"smartkitchen/internal/domain/sales"
	"smartkitchen/internal/features"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// Features computed from history or the request that only some exported
// models were trained with. They are sent only when the model expects them.
var optionalFeatures = map[string]bool{
	"price":            true,
	"price_normalized": true,
	"rolling_3":        true,
	"rolling_std_3":    true,
	"holiday_weekend":  true,
}

var excludedColumns = map[string]bool{
	"date":          true,
	"item_name":     true,
	"quantity_sold": true,
}

// ResolveFeatureColumns reads the training column list from path. When the file
// is missing the list is derived from the sales dataset the way it was laid out
// for training: raw columns, calendar and lag columns, then indicator columns.
func ResolveFeatureColumns(ctx context.Context, repo sales.Repository, path string) ([]string, error) {
	reference, err := features.LoadReference(path)
	if err == nil {
		return reference, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	logger.Get().Component("sales_service").Warn("feature list not found, deriving from dataset", "path", path)

	columns, err := repo.Columns(ctx)
	if err != nil {
		return nil, err
	}
	history, err := repo.History(ctx)
	if err != nil {
		return nil, err
	}
	return DeriveFeatureColumns(columns, history), nil
}

// DeriveFeatureColumns builds the column list from a dataset header and its rows
func DeriveFeatureColumns(columns []string, history []sales.Record) []string {
	categorical := make(map[string]bool, len(sales.CategoricalFields))
	for _, f := range sales.CategoricalFields {
		categorical[f] = true
	}

	present := make(map[string]bool, len(columns))
	var out []string
	for _, c := range columns {
		present[c] = true
		if categorical[c] || excludedColumns[c] {
			continue
		}
		out = append(out, c)
	}
	for _, c := range []string{"month", "is_weekend", "lag_1", "lag_7"} {
		if !present[c] {
			out = append(out, c)
		}
	}

	encoder := features.NewOneHotEncoder(sales.CategoricalFields...)
	encoder.Fit(categoryValues(history))
	return append(out, encoder.Columns()...)
}

func categoryValues(history []sales.Record) map[string][]string {
	values := make(map[string][]string, len(sales.CategoricalFields))
	for _, r := range history {
		for field, v := range r.Categories() {
			values[field] = append(values[field], v)
		}
	}
	return values
}

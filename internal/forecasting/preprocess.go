package forecasting

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/features"
	"smartkitchen/pkg/errors"
)

// FilterByIngredient keeps the rows whose ingredient matches name case-insensitively.
// When nothing matches, the error lists the ingredients present.
func FilterByIngredient(t *features.Table, name string) (*features.Table, error) {
	col, err := features.FindColumn(t.Columns, features.IngredientCandidates)
	if err != nil {
		return nil, errors.Wrap(err, "could not find ingredient/item column in data")
	}

	filtered := t.Filter(func(row []string) bool {
		return strings.EqualFold(t.Value(row, col), strings.TrimSpace(name))
	})
	if filtered.Len() == 0 {
		return filtered, errors.Wrapf(errors.ErrNotFound,
			"ingredient '%s' not found in data. Available ingredients: %s",
			name, strings.Join(t.Unique(col), ", "))
	}
	return filtered, nil
}

// Preprocess extracts a clean (date, value) series: invalid rows are dropped,
// rows are sorted by date and negative values clamped to zero. NaN and
// infinite values count as missing.
func Preprocess(t *features.Table) ([]forecast.Observation, error) {
	cols, err := features.SniffColumns(t.Columns, features.DateCandidates, features.TargetCandidates)
	if err != nil {
		return nil, err
	}

	out := make([]forecast.Observation, 0, t.Len())
	for _, row := range t.Rows {
		date, ok := features.ParseDate(t.Value(row, cols.Date))
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(t.Value(row, cols.Target), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < 0 {
			v = 0
		}
		out = append(out, forecast.Observation{Date: date, Value: v})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// AggregateDaily sums observations per calendar day
func AggregateDaily(obs []forecast.Observation) []forecast.Observation {
	byDay := make(map[time.Time]float64)
	for _, o := range obs {
		day := time.Date(o.Date.Year(), o.Date.Month(), o.Date.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day] += o.Value
	}

	out := make([]forecast.Observation, 0, len(byDay))
	for day, v := range byDay {
		out = append(out, forecast.Observation{Date: day, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

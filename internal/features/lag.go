package features

import (
	"sort"
	"time"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// Lag returns the value l rows before the most recent row of a date-sorted
// series, or 0 when the series has fewer than l+1 rows.
func Lag(series []float64, l int) float64 {
	n := len(series)
	if l < 0 || n < l+1 {
		return 0
	}
	return series[n-1-l]
}

// LagRecord is one historical observation of a category
type LagRecord struct {
	Date     time.Time
	Category string
	Value    float64
	Price    float64
}

// LagFeatures are the history-derived features of a category
type LagFeatures struct {
	Lag1        float64
	Lag7        float64
	Rolling3    float64
	RollingStd3 float64
	MaxPrice    float64
	History     int
}

// Map returns the features keyed by training column name
func (f LagFeatures) Map() map[string]float64 {
	return map[string]float64{
		"lag_1":         f.Lag1,
		"lag_7":         f.Lag7,
		"rolling_3":     f.Rolling3,
		"rolling_std_3": f.RollingStd3,
	}
}

// PriceNormalized scales a price by the category's historical maximum
func (f LagFeatures) PriceNormalized(price float64) float64 {
	if f.MaxPrice <= 0 {
		return 0
	}
	return price / f.MaxPrice
}

// LagResolver derives lag and rolling features from category history
type LagResolver struct {
	Window int
}

// NewLagResolver creates a resolver with the 3-row rolling window used at training
func NewLagResolver() *LagResolver {
	return &LagResolver{Window: 3}
}

// Resolve computes the features of category from records. Records of other
// categories are ignored; missing history degrades every feature to 0.
func (r *LagResolver) Resolve(records []LagRecord, category string) LagFeatures {
	var group []LagRecord
	for _, rec := range records {
		if rec.Category == category {
			group = append(group, rec)
		}
	}
	sort.SliceStable(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

	series := make([]float64, len(group))
	f := LagFeatures{History: len(group)}
	for i, rec := range group {
		series[i] = rec.Value
		if rec.Price > f.MaxPrice {
			f.MaxPrice = rec.Price
		}
	}

	f.Lag1 = Lag(series, 1)
	f.Lag7 = Lag(series, 7)
	f.Rolling3, f.RollingStd3 = r.rolling(series)
	return f
}

// rolling returns mean and sample std of the window rows preceding the most recent row
func (r *LagResolver) rolling(series []float64) (float64, float64) {
	w := r.Window
	if w <= 0 {
		w = 3
	}
	if len(series) < w+1 {
		return 0, 0
	}
	prior := series[:len(series)-1]

	sma := talib.Sma(prior, w)
	mean := sma[len(sma)-1]

	std := 0.0
	if w > 1 {
		std = stat.StdDev(prior[len(prior)-w:], nil)
	}
	return mean, std
}

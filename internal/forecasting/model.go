package forecasting

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/pkg/errors"
)

const (
	day = 24 * time.Hour

	// minimum history span before a month-of-year index is fitted
	yearlySpan = 730 * day

	epsilon = 1e-9
)

// Model is a linear trend with multiplicative weekly and optional yearly seasonality
type Model struct {
	IntervalWidth float64
}

// NewModel creates a model producing intervals of the given width in (0,1)
func NewModel(intervalWidth float64) *Model {
	return &Model{IntervalWidth: intervalWidth}
}

// Fitted is a model trained on one history
type Fitted struct {
	origin    time.Time
	last      time.Time
	intercept float64
	slope     float64
	weekly    [7]float64
	yearly    [12]float64
	halfWidth float64
}

// Fit trains the model on a daily series sorted by date
func (m *Model) Fit(history []forecast.Observation) (*Fitted, error) {
	if !(m.IntervalWidth > 0 && m.IntervalWidth < 1) {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"interval width must be between 0 and 1, got %v", m.IntervalWidth)
	}
	if len(history) < 2 {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"not enough historical data: need at least 2 days, got %d", len(history))
	}

	f := &Fitted{origin: history[0].Date, last: history[len(history)-1].Date}
	for i := range f.yearly {
		f.yearly[i] = 1
	}

	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i, o := range history {
		xs[i] = f.x(o.Date)
		ys[i] = o.Value
	}
	f.intercept, f.slope = stat.LinearRegression(xs, ys, nil, false)

	copy(f.weekly[:], seasonalIndex(7, history, func(t time.Time) int { return int(t.Weekday()) }, f.trendAt))

	if f.last.Sub(f.origin) >= yearlySpan {
		base := func(t time.Time) float64 { return f.trendAt(t) * f.weekly[t.Weekday()] }
		copy(f.yearly[:], seasonalIndex(12, history, func(t time.Time) int { return int(t.Month()) - 1 }, base))
	}

	residuals := make([]float64, len(history))
	for i, o := range history {
		residuals[i] = o.Value - f.valueAt(o.Date)
	}
	sigma := stat.StdDev(residuals, nil)
	if math.IsNaN(sigma) {
		sigma = 0
	}
	z := distuv.UnitNormal.Quantile(0.5 + m.IntervalWidth/2)
	f.halfWidth = z * sigma

	return f, nil
}

// Predict forecasts periods days after the last observed date; values are clamped at zero
func (f *Fitted) Predict(periods int) []forecast.Point {
	points := make([]forecast.Point, 0, periods)
	for i := 1; i <= periods; i++ {
		date := f.last.AddDate(0, 0, i)
		yhat := f.valueAt(date)
		points = append(points, forecast.Point{
			Date:     date,
			Forecast: math.Max(yhat, 0),
			Lower:    math.Max(yhat-f.halfWidth, 0),
			Upper:    math.Max(yhat+f.halfWidth, 0),
		})
	}
	return points
}

// Trend returns the fitted intercept and daily slope
func (f *Fitted) Trend() (intercept, slope float64) {
	return f.intercept, f.slope
}

// Weekly returns the weekday multipliers indexed by time.Weekday
func (f *Fitted) Weekly() [7]float64 {
	return f.weekly
}

func (f *Fitted) x(t time.Time) float64 {
	return t.Sub(f.origin).Hours() / 24
}

func (f *Fitted) trendAt(t time.Time) float64 {
	return f.intercept + f.slope*f.x(t)
}

func (f *Fitted) valueAt(t time.Time) float64 {
	return f.trendAt(t) * f.weekly[t.Weekday()] * f.yearly[int(t.Month())-1]
}

// seasonalIndex averages value/base per bucket and normalises the observed
// buckets to a mean of 1. Buckets without usable observations stay at 1.
func seasonalIndex(n int, history []forecast.Observation, bucket func(time.Time) int, base func(time.Time) float64) []float64 {
	sums := make([]float64, n)
	counts := make([]float64, n)
	for _, o := range history {
		b := base(o.Date)
		if math.Abs(b) < epsilon {
			continue
		}
		k := bucket(o.Date)
		sums[k] += o.Value / b
		counts[k]++
	}

	index := make([]float64, n)
	var total, observed float64
	for k := range index {
		index[k] = 1
		if counts[k] > 0 {
			index[k] = sums[k] / counts[k]
			total += index[k]
			observed++
		}
	}
	if observed == 0 || total <= epsilon {
		for k := range index {
			index[k] = 1
		}
		return index
	}

	mean := total / observed
	for k := range index {
		if counts[k] > 0 {
			index[k] /= mean
		}
	}
	return index
}

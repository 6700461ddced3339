package forecasting

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/features"
	"smartkitchen/pkg/errors"
)

const salesCSV = `date,ingredient,quantity
2025-01-01,Tomato,10
2025-01-01,Milk,4
2025-01-02,tomato,12
2025-01-02,Tomato,3
not-a-date,Tomato,5
2025-01-03,Tomato,abc
2025-01-04,TOMATO,-7
2025-01-03,Milk,6
`

func loadTable(t *testing.T, data string) *features.Table {
	t.Helper()
	table, err := features.ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	return table
}

func days(start time.Time, values ...float64) []forecast.Observation {
	out := make([]forecast.Observation, len(values))
	for i, v := range values {
		out[i] = forecast.Observation{Date: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestFilterByIngredient_CaseInsensitive(t *testing.T) {
	table := loadTable(t, salesCSV)

	filtered, err := FilterByIngredient(table, "tOmAtO")
	require.NoError(t, err)
	assert.Equal(t, 6, filtered.Len())
}

func TestFilterByIngredient_NoMatchListsAvailable(t *testing.T) {
	table := loadTable(t, salesCSV)

	filtered, err := FilterByIngredient(table, "Saffron")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, 0, filtered.Len())
	assert.Contains(t, err.Error(), "Available ingredients: Tomato, Milk, tomato, TOMATO")
}

func TestFilterByIngredient_NoIngredientColumn(t *testing.T) {
	table := loadTable(t, "date,sales\n2025-01-01,3\n")

	_, err := FilterByIngredient(table, "Tomato")
	assert.True(t, errors.Is(err, errors.ErrSchema))
}

func TestPreprocessAndAggregate(t *testing.T) {
	table := loadTable(t, salesCSV)
	filtered, err := FilterByIngredient(table, "tomato")
	require.NoError(t, err)

	obs, err := Preprocess(filtered)
	require.NoError(t, err)
	require.Len(t, obs, 4)
	assert.Equal(t, 0.0, obs[3].Value, "negative values are clamped")

	daily := AggregateDaily(obs)
	require.Len(t, daily, 3)
	assert.Equal(t, 10.0, daily[0].Value)
	assert.Equal(t, 15.0, daily[1].Value)
	assert.Equal(t, 0.0, daily[2].Value)
}

func TestPreprocess_PositionalFallback(t *testing.T) {
	table := loadTable(t, "day,units\n2025-02-02,4\n2025-02-01,2\n")

	obs, err := Preprocess(table)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 2.0, obs[0].Value, "rows are sorted by date")
}

func TestFit_RequiresTwoDays(t *testing.T) {
	_, err := NewModel(0.95).Fit(days(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestFit_LinearTrend(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	values := make([]float64, 14)
	for i := range values {
		values[i] = 10 + 2*float64(i)
	}

	fitted, err := NewModel(0.95).Fit(days(start, values...))
	require.NoError(t, err)

	intercept, slope := fitted.Trend()
	assert.InDelta(t, 10, intercept, 1e-6)
	assert.InDelta(t, 2, slope, 1e-6)

	points := fitted.Predict(3)
	require.Len(t, points, 3)
	assert.Equal(t, start.AddDate(0, 0, 14), points[0].Date, "forecast starts the day after the last observation")
	assert.InDelta(t, 38, points[0].Forecast, 1e-6)
	assert.InDelta(t, 42, points[2].Forecast, 1e-6)
	assert.InDelta(t, points[0].Forecast, points[0].Lower, 1e-6)
	assert.InDelta(t, points[0].Forecast, points[0].Upper, 1e-6)
}

func TestFit_WeeklySeasonality(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // Monday
	values := make([]float64, 28)
	for i := range values {
		values[i] = 10
		if wd := start.AddDate(0, 0, i).Weekday(); wd == time.Saturday || wd == time.Sunday {
			values[i] = 20
		}
	}

	fitted, err := NewModel(0.95).Fit(days(start, values...))
	require.NoError(t, err)

	weekly := fitted.Weekly()
	assert.Greater(t, weekly[time.Saturday], weekly[time.Wednesday])

	points := fitted.Predict(7)
	var saturday, wednesday forecast.Point
	for _, p := range points {
		switch p.Date.Weekday() {
		case time.Saturday:
			saturday = p
		case time.Wednesday:
			wednesday = p
		}
	}
	assert.Greater(t, saturday.Forecast, wednesday.Forecast)
	for _, p := range points {
		assert.LessOrEqual(t, p.Lower, p.Forecast)
		assert.GreaterOrEqual(t, p.Upper, p.Forecast)
	}
}

func TestPredict_ClampsAtZero(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fitted, err := NewModel(0.95).Fit(days(start, 10, 5, 0))
	require.NoError(t, err)

	for _, p := range fitted.Predict(5) {
		assert.GreaterOrEqual(t, p.Forecast, 0.0)
		assert.GreaterOrEqual(t, p.Lower, 0.0)
		assert.GreaterOrEqual(t, p.Upper, 0.0)
	}
}

func TestMonthlySummary_RowsMatchDistinctMonths(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fitted, err := NewModel(0.95).Fit(days(start, 3, 4, 5, 4, 3, 6, 7, 5, 4, 5))
	require.NoError(t, err)

	points := fitted.Predict(30)
	months := make(map[string]bool)
	for _, p := range points {
		months[p.Date.Format("2006-01")] = true
	}

	summary := MonthlySummary(points)
	assert.Len(t, summary, len(months))
	assert.Equal(t, "2025-01", summary[0].YearMonth)
	assert.Equal(t, "2025-02", summary[1].YearMonth)
}

func TestMonthlySummary_Values(t *testing.T) {
	points := []forecast.Point{
		{Date: time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC), Forecast: 1.004, Lower: 0.5, Upper: 1.5},
		{Date: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), Forecast: 3, Lower: 2, Upper: 4},
		{Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), Forecast: 2.555, Lower: 1, Upper: 3},
	}

	summary := MonthlySummary(points)
	require.Len(t, summary, 2)

	march := summary[0]
	assert.Equal(t, 4.0, march.Total)
	assert.Equal(t, 2.0, march.DailyAvg)
	assert.Equal(t, 1.0, march.DailyMin)
	assert.Equal(t, 3.0, march.DailyMax)
	assert.Equal(t, 2.5, march.TotalLower)
	assert.Equal(t, 5.5, march.TotalUpper)

	assert.Equal(t, 2.56, summary[1].Total)
}

func TestShowMonthly(t *testing.T) {
	assert.True(t, ShowMonthly(1, 0))
	assert.True(t, ShowMonthly(0, 28))
	assert.False(t, ShowMonthly(0, 14))
}

func TestPipeline_Run(t *testing.T) {
	table := loadTable(t, salesCSV)

	result, err := NewPipeline(NewModel(0.95)).Run(context.Background(), table, forecast.Request{Ingredient: "Milk", Periods: 30})
	require.NoError(t, err)

	assert.Equal(t, 2, result.History)
	assert.Len(t, result.Points, 30)
	assert.Len(t, result.Monthly, 2)

	_, err = NewPipeline(NewModel(0.95)).Run(context.Background(), table, forecast.Request{Ingredient: "Saffron"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestPreprocess_DropsNonFiniteValues(t *testing.T) {
	table := loadTable(t, "date,sales\n2025-01-01,4\n2025-01-02,NaN\n2025-01-03,6\n2025-01-04,nan\n2025-01-05,Inf\n2025-01-06,-Inf\n")

	obs, err := Preprocess(table)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 4.0, obs[0].Value)
	assert.Equal(t, 6.0, obs[1].Value)
}

func TestPipeline_Run_NaNCell(t *testing.T) {
	table := loadTable(t, "date,ingredient,sales\n2025-01-01,Milk,4\n2025-01-02,Milk,NaN\n2025-01-03,Milk,6\n")

	var result *forecast.Result
	var err error
	require.NotPanics(t, func() {
		result, err = NewPipeline(NewModel(0.95)).Run(context.Background(), table, forecast.Request{Ingredient: "Milk", Periods: 10})
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.History)
	for _, p := range result.Points {
		assert.False(t, math.IsNaN(p.Forecast) || math.IsInf(p.Upper, 0), p.Date)
	}
	for _, m := range result.Monthly {
		assert.False(t, math.IsNaN(m.Total), m.YearMonth)
	}
}

func TestFit_IntervalWidthBounds(t *testing.T) {
	history := days(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 3, 4, 5)

	for _, width := range []float64{0, 1, -0.5, 1.5, math.NaN()} {
		_, err := NewModel(width).Fit(history)
		assert.ErrorIs(t, err, errors.ErrInvalidInput, "width %v", width)
	}

	table := loadTable(t, salesCSV)
	assert.NotPanics(t, func() {
		_, err := NewPipeline(NewModel(1)).Run(context.Background(), table, forecast.Request{Ingredient: "Milk", Periods: 5})
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

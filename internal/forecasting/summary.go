package forecasting

import (
	"math"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/features"
)

// MonthlySummary aggregates points per calendar month in date order, rounded to 2 decimals
func MonthlySummary(points []forecast.Point) []forecast.MonthlySummary {
	var (
		out    []forecast.MonthlySummary
		counts []int
		index  = make(map[string]int)
	)

	for _, p := range points {
		key := p.Date.Format("2006-01")
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, forecast.MonthlySummary{
				YearMonth: key,
				DailyMin:  math.Inf(1),
				DailyMax:  math.Inf(-1),
			})
			counts = append(counts, 0)
		}

		m := &out[i]
		m.Total += p.Forecast
		m.TotalLower += p.Lower
		m.TotalUpper += p.Upper
		m.DailyMin = math.Min(m.DailyMin, p.Forecast)
		m.DailyMax = math.Max(m.DailyMax, p.Forecast)
		counts[i]++
	}

	for i := range out {
		m := &out[i]
		m.DailyAvg = features.Round(m.Total/float64(counts[i]), 2)
		m.Total = features.Round(m.Total, 2)
		m.TotalLower = features.Round(m.TotalLower, 2)
		m.TotalUpper = features.Round(m.TotalUpper, 2)
		m.DailyMin = features.Round(m.DailyMin, 2)
		m.DailyMax = features.Round(m.DailyMax, 2)
	}
	return out
}

// ShowMonthly reports whether a run is long enough to print a monthly summary
func ShowMonthly(months, periods int) bool {
	return months > 0 || periods >= 28
}

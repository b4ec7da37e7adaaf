package testing

import (
	"math"
	"time"

	"github.com/aristath/rotation/internal/domain"
)

// FixtureStart is the first session of generated series
var FixtureStart = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// TradingDays returns n consecutive weekdays starting at FixtureStart
func TradingDays(n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := FixtureStart
	for len(days) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return days
}

// SeriesFromCloses stamps closes onto consecutive trading days
func SeriesFromCloses(symbol string, closes []float64) domain.PriceSeries {
	days := TradingDays(len(closes))
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{Date: days[i], Close: c}
	}
	return domain.PriceSeries{Symbol: symbol, Points: points}
}

// FlatSeries returns n sessions at a constant level
func FlatSeries(symbol string, n int, level float64) domain.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = level
	}
	return SeriesFromCloses(symbol, closes)
}

// TrendingSeries returns n sessions compounding at a constant daily log return
func TrendingSeries(symbol string, n int, start, dailyLogReturn float64) domain.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start * math.Exp(dailyLogReturn*float64(i))
	}
	return SeriesFromCloses(symbol, closes)
}

// ZigzagSeries returns n sessions whose daily log returns alternate between
// drift+amp and drift-amp, ending on an up day. Annualized vol is amp*sqrt(252)
// up to the sample correction.
func ZigzagSeries(symbol string, n int, start, drift, amp float64) domain.PriceSeries {
	closes := make([]float64, n)
	closes[0] = start
	for i := 1; i < n; i++ {
		r := drift - amp
		if (n-1-i)%2 == 0 {
			r = drift + amp
		}
		closes[i] = closes[i-1] * math.Exp(r)
	}
	return SeriesFromCloses(symbol, closes)
}

// RotationPanel builds a panel where winner trends up, laggards are flat
// and cash drifts up very slowly. Every series has n sessions.
func RotationPanel(n int, winner, cash string, laggards ...string) domain.PricePanel {
	panel := domain.PricePanel{
		winner: ZigzagSeries(winner, n, 100, 0.001, 0.01),
		cash:   TrendingSeries(cash, n, 90, 0.00001),
	}
	for _, s := range laggards {
		panel[s] = FlatSeries(s, n, 50)
	}
	return panel
}

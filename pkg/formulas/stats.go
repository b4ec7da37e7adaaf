// Package formulas holds the numeric building blocks used by the rotation engine.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily statistics
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample (n-1) standard deviation.
// Returns NaN when fewer than two values are given.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility annualizes the sample standard deviation of daily returns
// Formula: StdDev(daily returns) × sqrt(252)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	sd := StdDev(dailyReturns)
	if math.IsNaN(sd) {
		return sd
	}
	return sd * math.Sqrt(TradingDaysPerYear)
}

// IsFinite reports whether v is neither NaN nor ±Inf
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

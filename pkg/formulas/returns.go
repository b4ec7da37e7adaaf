package formulas

import "math"

// SimpleReturn computes closes[-1]/closes[-(lookback+1)] - 1.
// ok is false when the series holds fewer than lookback+1 values.
func SimpleReturn(closes []float64, lookback int) (ret float64, ok bool) {
	if lookback <= 0 || len(closes) < lookback+1 {
		return 0, false
	}
	last := closes[len(closes)-1]
	base := closes[len(closes)-1-lookback]
	if base == 0 {
		return 0, false
	}
	return last/base - 1, true
}

// LogReturns converts prices to daily log returns
// Returns[i] = ln(Price[i+1] / Price[i])
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	return returns
}

// Tail returns the last n values (or all of them when fewer exist).
// The returned slice shares memory with data.
func Tail(data []float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if len(data) <= n {
		return data
	}
	return data[len(data)-n:]
}

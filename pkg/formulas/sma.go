package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateSMA returns the simple moving average of the most recent `length` closes,
// or nil if there is not enough data
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(Tail(closes, length), length)
	if len(sma) == 0 {
		return nil
	}

	last := sma[len(sma)-1]
	if math.IsNaN(last) {
		return nil
	}
	return &last
}

// IsAboveSMA reports whether the latest close is strictly above its SMA.
// An undefined SMA never passes.
func IsAboveSMA(closes []float64, length int) bool {
	sma := CalculateSMA(closes, length)
	if sma == nil {
		return false
	}
	return closes[len(closes)-1] > *sma
}

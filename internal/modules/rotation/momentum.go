package rotation

import (
	"math"

	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/pkg/formulas"
)

// Momentum returns the mean simple return over the configured lookbacks.
// Returns -Inf when the symbol is absent or has fewer than max(lookbacks)+1
// valid observations, which keeps it out of any max-based selection.
func (e *Engine) Momentum(symbol string, panel domain.PricePanel) float64 {
	closes, ok := panel.Closes(symbol)
	if !ok {
		return math.Inf(-1)
	}
	return e.momentum(closes)
}

func (e *Engine) momentum(closes []float64) float64 {
	if len(closes) < e.params.MaxMomentumLookback()+1 {
		return math.Inf(-1)
	}

	returns := make([]float64, 0, len(e.params.MomentumLookbacks))
	for _, lb := range e.params.MomentumLookbacks {
		ret, ok := formulas.SimpleReturn(closes, lb)
		if !ok {
			return math.Inf(-1)
		}
		returns = append(returns, ret)
	}
	return formulas.Mean(returns)
}

// AbsoluteReturn returns the simple return over AbsReturnLookback sessions,
// or -Inf when the symbol is absent or lacks AbsReturnLookback+1 valid observations.
func (e *Engine) AbsoluteReturn(symbol string, panel domain.PricePanel) float64 {
	closes, ok := panel.Closes(symbol)
	if !ok {
		return math.Inf(-1)
	}
	return e.absoluteReturn(closes)
}

func (e *Engine) absoluteReturn(closes []float64) float64 {
	ret, ok := formulas.SimpleReturn(closes, e.params.AbsReturnLookback)
	if !ok {
		return math.Inf(-1)
	}
	return ret
}

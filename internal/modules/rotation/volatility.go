package rotation

import (
	"math"

	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/pkg/formulas"
)

// RealizedVol returns the annualized sample standard deviation of the last
// VolLookback daily log returns. NaN when fewer than VolLookback+1 valid
// observations exist.
func (e *Engine) RealizedVol(symbol string, panel domain.PricePanel) float64 {
	closes, ok := panel.Closes(symbol)
	if !ok {
		return math.NaN()
	}
	return e.realizedVol(closes)
}

func (e *Engine) realizedVol(closes []float64) float64 {
	if len(closes) < e.params.VolLookback+1 {
		return math.NaN()
	}
	returns := formulas.LogReturns(formulas.Tail(closes, e.params.VolLookback+1))
	return formulas.StdDev(returns) * math.Sqrt(float64(e.params.AnnualizationDays))
}

// TargetWeight sizes a position by inverse realized volatility.
// The cash proxy always gets 1.0. Undefined or zero volatility yields 0.
func (e *Engine) TargetWeight(symbol string, panel domain.PricePanel) float64 {
	if symbol == e.params.CashProxy {
		return 1.0
	}
	return e.weightFor(e.RealizedVol(symbol, panel))
}

func (e *Engine) weightFor(vol float64) float64 {
	if !formulas.IsFinite(vol) || vol <= 0 {
		return 0
	}
	w := math.Min(e.params.MaxWeight, e.params.TargetVol/vol)
	return math.Max(0, math.Min(w, e.params.MaxWeight))
}

package rotation

import (
	"math"

	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/pkg/formulas"
)

// ExclusionReason explains why an instrument failed screening
type ExclusionReason string

const (
	ReasonNone                ExclusionReason = ""
	ReasonMissing             ExclusionReason = "missing"
	ReasonInsufficientHistory ExclusionReason = "insufficient_history"
	ReasonBelowSMA            ExclusionReason = "below_sma"
	ReasonBelowCashReturn     ExclusionReason = "below_cash_return"
)

// Screening is the eligibility outcome for one instrument
type Screening struct {
	Symbol    string          `json:"symbol"`
	Present   bool            `json:"present"`
	Eligible  bool            `json:"eligible"`
	Reason    ExclusionReason `json:"reason,omitempty"`
	AbsReturn float64         `json:"abs_return"`
	SMA       float64         `json:"sma"`
	LastClose float64         `json:"last_close"`
	Momentum  float64         `json:"momentum"`
}

// IsEligible applies the trend gate and the absolute-return gate.
// The cash proxy is always eligible when present; absent symbols never are.
func (e *Engine) IsEligible(symbol string, panel domain.PricePanel, cashReturn float64) bool {
	return e.screen(symbol, panel, cashReturn).Eligible
}

func (e *Engine) screen(symbol string, panel domain.PricePanel, cashReturn float64) Screening {
	s := Screening{
		Symbol:    symbol,
		AbsReturn: math.Inf(-1),
		SMA:       math.NaN(),
		LastClose: math.NaN(),
		Momentum:  math.Inf(-1),
	}

	closes, ok := panel.Closes(symbol)
	if !ok {
		s.Reason = ReasonMissing
		return s
	}
	s.Present = true
	if len(closes) > 0 {
		s.LastClose = closes[len(closes)-1]
	}
	s.AbsReturn = e.absoluteReturn(closes)
	s.Momentum = e.momentum(closes)
	if sma := formulas.CalculateSMA(closes, e.params.SMAPeriod); sma != nil {
		s.SMA = *sma
	}

	if symbol == e.params.CashProxy {
		s.Eligible = true
		return s
	}

	switch {
	case len(closes) < e.params.SMAPeriod:
		s.Reason = ReasonInsufficientHistory
	case !formulas.IsAboveSMA(closes, e.params.SMAPeriod):
		s.Reason = ReasonBelowSMA
	case !(s.AbsReturn > cashReturn):
		// -Inf never beats anything, including a -Inf cash return
		s.Reason = ReasonBelowCashReturn
	default:
		s.Eligible = true
	}
	return s
}

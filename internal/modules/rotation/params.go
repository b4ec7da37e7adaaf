// Package rotation implements the momentum rotation allocation engine.
//
// The engine is a pure function of a price panel and its parameters: it scores
// the universe by multi-horizon momentum, screens each instrument through a
// trend gate and an absolute-return gate versus the cash proxy, picks a single
// winner and sizes it by inverse realized volatility. Whatever is not allocated
// to the winner goes to the cash proxy.
package rotation

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when engine parameters fail validation
var ErrInvalidParams = errors.New("invalid rotation parameters")

// Params holds the strategy configuration. It is read-only once the engine is built.
type Params struct {
	Universe          []string `json:"universe" yaml:"universe"`
	CashProxy         string   `json:"cash_proxy" yaml:"cash_proxy"`
	MomentumLookbacks []int    `json:"momentum_lookbacks" yaml:"momentum_lookbacks"`
	SMAPeriod         int      `json:"sma_period" yaml:"sma_period"`
	AbsReturnLookback int      `json:"abs_return_lookback" yaml:"abs_return_lookback"`
	VolLookback       int      `json:"vol_lookback" yaml:"vol_lookback"`
	TargetVol         float64  `json:"target_vol" yaml:"target_vol"`
	MaxWeight         float64  `json:"max_weight" yaml:"max_weight"`
	AnnualizationDays int      `json:"annualization_days" yaml:"annualization_days"`
}

// DefaultParams returns the production universe and constants
func DefaultParams() Params {
	return Params{
		Universe: []string{
			"VT", "VGLT", "VGIT", "GLD", "DBC", "BIL",
			"HYG", "VCIT", "VCLT", "VCSH", "VGSH", "IBIT",
		},
		CashProxy:         "BIL",
		MomentumLookbacks: []int{21, 63, 126, 189, 252},
		SMAPeriod:         168,
		AbsReturnLookback: 126,
		VolLookback:       252,
		TargetVol:         0.12,
		MaxWeight:         1.0,
		AnnualizationDays: 252,
	}
}

// Validate checks the parameters for internal consistency
func (p Params) Validate() error {
	if len(p.Universe) == 0 {
		return fmt.Errorf("%w: universe is empty", ErrInvalidParams)
	}
	seen := make(map[string]bool, len(p.Universe))
	for _, s := range p.Universe {
		if s == "" {
			return fmt.Errorf("%w: universe contains an empty symbol", ErrInvalidParams)
		}
		if seen[s] {
			return fmt.Errorf("%w: duplicate symbol %s in universe", ErrInvalidParams, s)
		}
		seen[s] = true
	}
	if p.CashProxy == "" {
		return fmt.Errorf("%w: cash proxy is empty", ErrInvalidParams)
	}
	if len(p.MomentumLookbacks) == 0 {
		return fmt.Errorf("%w: no momentum lookbacks", ErrInvalidParams)
	}
	for _, lb := range p.MomentumLookbacks {
		if lb <= 0 {
			return fmt.Errorf("%w: momentum lookback must be positive, got %d", ErrInvalidParams, lb)
		}
	}
	if p.SMAPeriod <= 0 {
		return fmt.Errorf("%w: sma period must be positive, got %d", ErrInvalidParams, p.SMAPeriod)
	}
	if p.AbsReturnLookback <= 0 {
		return fmt.Errorf("%w: absolute return lookback must be positive, got %d", ErrInvalidParams, p.AbsReturnLookback)
	}
	if p.VolLookback < 2 {
		return fmt.Errorf("%w: vol lookback must be at least 2, got %d", ErrInvalidParams, p.VolLookback)
	}
	if p.TargetVol <= 0 {
		return fmt.Errorf("%w: target vol must be positive, got %g", ErrInvalidParams, p.TargetVol)
	}
	if p.MaxWeight <= 0 || p.MaxWeight > 1 {
		return fmt.Errorf("%w: max weight must be in (0, 1], got %g", ErrInvalidParams, p.MaxWeight)
	}
	if p.AnnualizationDays <= 0 {
		return fmt.Errorf("%w: annualization days must be positive, got %d", ErrInvalidParams, p.AnnualizationDays)
	}
	return nil
}

// MaxMomentumLookback returns the longest momentum horizon
func (p Params) MaxMomentumLookback() int {
	max := 0
	for _, lb := range p.MomentumLookbacks {
		if lb > max {
			max = lb
		}
	}
	return max
}

// RequiredHistory is the number of valid observations needed before every
// calculation is defined (the warm-up period).
func (p Params) RequiredHistory() int {
	required := p.MaxMomentumLookback() + 1
	for _, n := range []int{p.SMAPeriod, p.VolLookback + 1, p.AbsReturnLookback + 1} {
		if n > required {
			required = n
		}
	}
	return required
}

// Symbols returns the universe in configured order with the cash proxy
// appended when it is not already listed.
func (p Params) Symbols() []string {
	symbols := make([]string, 0, len(p.Universe)+1)
	hasCash := false
	for _, s := range p.Universe {
		if s == p.CashProxy {
			hasCash = true
		}
		symbols = append(symbols, s)
	}
	if !hasCash {
		symbols = append(symbols, p.CashProxy)
	}
	return symbols
}

func (p Params) clone() Params {
	c := p
	c.Universe = append([]string(nil), p.Universe...)
	c.MomentumLookbacks = append([]int(nil), p.MomentumLookbacks...)
	return c
}

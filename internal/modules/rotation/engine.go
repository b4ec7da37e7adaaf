package rotation

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/rotation/internal/domain"
)

// Decision is the full outcome of one evaluation, including the screening
// details behind the allocation.
type Decision struct {
	Allocation  domain.Allocation  `json:"allocation"`
	Winner      string             `json:"winner"`
	Weight      float64            `json:"weight"`
	CashWeight  float64            `json:"cash_weight"`
	RealizedVol float64            `json:"realized_vol"`
	CashReturn  float64            `json:"cash_return"`
	RiskOff     bool               `json:"risk_off"`
	Scores      map[string]float64 `json:"scores"`
	Screening   []Screening        `json:"screening"`
	AsOf        time.Time          `json:"as_of"`
}

// Engine evaluates a price panel against fixed parameters.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	params Params
}

// New validates the parameters and builds an engine
func New(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: params.clone()}, nil
}

// Params returns a copy of the engine parameters
func (e *Engine) Params() Params {
	return e.params.clone()
}

// Decide returns the target allocation for the panel
func (e *Engine) Decide(panel domain.PricePanel) domain.Allocation {
	return e.Evaluate(panel).Allocation
}

// Evaluate runs the full decision: screen the universe, rank eligible
// instruments by momentum, size the winner and assign the rest to cash.
func (e *Engine) Evaluate(panel domain.PricePanel) *Decision {
	cash := e.params.CashProxy
	cashReturn := e.AbsoluteReturn(cash, panel)

	d := &Decision{
		Allocation:  domain.Allocation{},
		RealizedVol: math.NaN(),
		CashReturn:  cashReturn,
		Scores:      map[string]float64{},
		AsOf:        panel.AsOf(),
	}

	var eligible []string
	for _, symbol := range e.params.Symbols() {
		s := e.screen(symbol, panel, cashReturn)
		d.Screening = append(d.Screening, s)
		if s.Eligible {
			eligible = append(eligible, symbol)
		}
	}

	if len(eligible) == 0 {
		d.RiskOff = true
		d.Winner = cash
		d.CashWeight = 1.0
		d.Allocation.Set(cash, 1.0)
		return d
	}

	winner := eligible[0]
	best := e.Momentum(winner, panel)
	d.Scores[winner] = best
	for _, symbol := range eligible[1:] {
		score := e.Momentum(symbol, panel)
		d.Scores[symbol] = score
		if score > best {
			best = score
			winner = symbol
		}
	}
	d.Winner = winner

	if winner == cash {
		d.CashWeight = 1.0
		d.Allocation.Set(cash, 1.0)
		return d
	}

	d.RealizedVol = e.RealizedVol(winner, panel)
	d.Weight = e.weightFor(d.RealizedVol)
	d.CashWeight = 1 - d.Weight
	d.Allocation.Set(winner, d.Weight)
	d.Allocation.Set(cash, d.CashWeight)
	return d
}

// Eligible returns the symbols that passed screening, in universe order
func (d *Decision) Eligible() []string {
	var out []string
	for _, s := range d.Screening {
		if s.Eligible {
			out = append(out, s.Symbol)
		}
	}
	return out
}

// String formats the selection line
func (d *Decision) String() string {
	return fmt.Sprintf("Selected: %s | weight=%.4f cash=%.4f", d.Winner, d.Weight, d.CashWeight)
}

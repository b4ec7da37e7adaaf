package rotation

import (
	"encoding/json"
	"math"
	"time"

	"github.com/aristath/rotation/internal/domain"
)

// Undefined statistics (NaN, ±Inf) are encoded as null.
// On decode, null becomes NaN for levels and -Inf for returns and scores.

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func orNegInf(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}

type screeningJSON struct {
	Symbol    string          `json:"symbol"`
	Present   bool            `json:"present"`
	Eligible  bool            `json:"eligible"`
	Reason    ExclusionReason `json:"reason,omitempty"`
	AbsReturn *float64        `json:"abs_return"`
	SMA       *float64        `json:"sma"`
	LastClose *float64        `json:"last_close"`
	Momentum  *float64        `json:"momentum"`
}

// MarshalJSON encodes undefined statistics as null
func (s Screening) MarshalJSON() ([]byte, error) {
	return json.Marshal(screeningJSON{
		Symbol:    s.Symbol,
		Present:   s.Present,
		Eligible:  s.Eligible,
		Reason:    s.Reason,
		AbsReturn: finite(s.AbsReturn),
		SMA:       finite(s.SMA),
		LastClose: finite(s.LastClose),
		Momentum:  finite(s.Momentum),
	})
}

// UnmarshalJSON restores undefined statistics from null
func (s *Screening) UnmarshalJSON(data []byte) error {
	var raw screeningJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Screening{
		Symbol:    raw.Symbol,
		Present:   raw.Present,
		Eligible:  raw.Eligible,
		Reason:    raw.Reason,
		AbsReturn: orNegInf(raw.AbsReturn),
		SMA:       orNaN(raw.SMA),
		LastClose: orNaN(raw.LastClose),
		Momentum:  orNegInf(raw.Momentum),
	}
	return nil
}

type decisionJSON struct {
	Allocation  domain.Allocation   `json:"allocation"`
	Winner      string              `json:"winner"`
	Weight      float64             `json:"weight"`
	CashWeight  float64             `json:"cash_weight"`
	RealizedVol *float64            `json:"realized_vol"`
	CashReturn  *float64            `json:"cash_return"`
	RiskOff     bool                `json:"risk_off"`
	Scores      map[string]*float64 `json:"scores"`
	Screening   []Screening         `json:"screening"`
	AsOf        time.Time           `json:"as_of"`
}

// MarshalJSON encodes undefined statistics as null
func (d Decision) MarshalJSON() ([]byte, error) {
	scores := make(map[string]*float64, len(d.Scores))
	for s, v := range d.Scores {
		scores[s] = finite(v)
	}
	return json.Marshal(decisionJSON{
		Allocation:  d.Allocation,
		Winner:      d.Winner,
		Weight:      d.Weight,
		CashWeight:  d.CashWeight,
		RealizedVol: finite(d.RealizedVol),
		CashReturn:  finite(d.CashReturn),
		RiskOff:     d.RiskOff,
		Scores:      scores,
		Screening:   d.Screening,
		AsOf:        d.AsOf,
	})
}

// UnmarshalJSON restores undefined statistics from null
func (d *Decision) UnmarshalJSON(data []byte) error {
	var raw decisionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	scores := make(map[string]float64, len(raw.Scores))
	for s, v := range raw.Scores {
		scores[s] = orNegInf(v)
	}
	*d = Decision{
		Allocation:  raw.Allocation,
		Winner:      raw.Winner,
		Weight:      raw.Weight,
		CashWeight:  raw.CashWeight,
		RealizedVol: orNaN(raw.RealizedVol),
		CashReturn:  orNegInf(raw.CashReturn),
		RiskOff:     raw.RiskOff,
		Scores:      scores,
		Screening:   raw.Screening,
		AsOf:        raw.AsOf,
	}
	if d.Allocation == nil {
		d.Allocation = domain.Allocation{}
	}
	return nil
}

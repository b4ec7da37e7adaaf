package rotation

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rotation/internal/domain"
)

func series(symbol string, closes []float64) domain.PriceSeries {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{Date: start.AddDate(0, 0, i), Close: c}
	}
	return domain.PriceSeries{Symbol: symbol, Points: points}
}

func flat(n int, level float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = level
	}
	return out
}

func linear(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

// zigzag builds a rising series whose daily log returns alternate between
// drift+amp and drift-amp, ending on an up day.
func zigzag(n int, drift, amp float64) []float64 {
	out := make([]float64, n)
	out[0] = 100
	for i := 1; i < n; i++ {
		r := drift - amp
		if (n-1-i)%2 == 0 {
			r = drift + amp
		}
		out[i] = out[i-1] * math.Exp(r)
	}
	return out
}

func testParams(universe ...string) Params {
	p := DefaultParams()
	p.Universe = universe
	p.CashProxy = "CASH"
	return p
}

func newEngine(t *testing.T, p Params) *Engine {
	t.Helper()
	e, err := New(p)
	require.NoError(t, err)
	return e
}

func TestEngine_FlatExcludedRisingSelected(t *testing.T) {
	e := newEngine(t, testParams("A", "B", "CASH"))
	panel := domain.PricePanel{
		"A":    series("A", flat(300, 100)),
		"B":    series("B", linear(300, 100, 150)),
		"CASH": series("CASH", flat(300, 100)),
	}

	assert.False(t, e.IsEligible("A", panel, 0))
	assert.True(t, e.IsEligible("B", panel, 0))

	d := e.Evaluate(panel)
	assert.Equal(t, "B", d.Winner)
	assert.False(t, d.RiskOff)
	assert.Equal(t, []string{"B", "CASH"}, d.Eligible())

	vol := e.RealizedVol("B", panel)
	require.False(t, math.IsNaN(vol))
	weight := math.Min(1, 0.12/vol)

	assert.InDelta(t, weight, d.Allocation["B"], 1e-12)
	assert.InDelta(t, 1.0, d.Weight+d.CashWeight, 1e-12)
	assert.InDelta(t, 1.0, d.Allocation.Total(), 1e-12)

	require.Len(t, d.Screening, 3)
	assert.Equal(t, ReasonBelowSMA, d.Screening[0].Reason)
	assert.InDelta(t, 0.0, d.CashReturn, 1e-12)
}

func TestEngine_ShortHistoryGoesToCash(t *testing.T) {
	e := newEngine(t, testParams("A", "B", "CASH"))
	panel := domain.PricePanel{
		"A":    series("A", linear(50, 100, 120)),
		"B":    series("B", linear(50, 100, 130)),
		"CASH": series("CASH", flat(50, 100)),
	}

	assert.Equal(t, domain.Allocation{"CASH": 1.0}, e.Decide(panel))

	d := e.Evaluate(panel)
	assert.Equal(t, ReasonInsufficientHistory, d.Screening[0].Reason)
	assert.Equal(t, ReasonInsufficientHistory, d.Screening[1].Reason)
}

func TestEngine_EmptyEligibleSetIsRiskOff(t *testing.T) {
	e := newEngine(t, testParams("A", "CASH"))
	panel := domain.PricePanel{
		"A": series("A", flat(300, 100)),
	}

	d := e.Evaluate(panel)
	assert.True(t, d.RiskOff)
	assert.Equal(t, domain.Allocation{"CASH": 1.0}, d.Allocation)
	assert.Empty(t, d.Scores)
	assert.True(t, math.IsInf(d.CashReturn, -1))
	assert.Equal(t, ReasonMissing, d.Screening[1].Reason)
}

func TestEngine_VolTargetingHalvesPosition(t *testing.T) {
	amp := 0.24 / math.Sqrt(252) * math.Sqrt(251.0/252.0)
	e := newEngine(t, testParams("B", "CASH"))
	panel := domain.PricePanel{
		"B":    series("B", zigzag(300, 0.002, amp)),
		"CASH": series("CASH", flat(300, 100)),
	}

	assert.InDelta(t, 0.24, e.RealizedVol("B", panel), 1e-9)

	d := e.Evaluate(panel)
	assert.Equal(t, "B", d.Winner)
	assert.InDelta(t, 0.5, d.Allocation["B"], 1e-9)
	assert.InDelta(t, 0.5, d.Allocation["CASH"], 1e-9)
}

func TestEngine_WeightClampedToMaxWeight(t *testing.T) {
	p := testParams("B", "CASH")
	p.MaxWeight = 0.6
	e := newEngine(t, p)
	panel := domain.PricePanel{
		"B":    series("B", linear(300, 100, 150)),
		"CASH": series("CASH", flat(300, 100)),
	}

	w := e.TargetWeight("B", panel)
	assert.Equal(t, 0.6, w)

	alloc := e.Decide(panel)
	assert.Equal(t, 0.6, alloc["B"])
	assert.InDelta(t, 0.4, alloc["CASH"], 1e-12)
}

func TestEngine_ZeroVolYieldsZeroWeight(t *testing.T) {
	e := newEngine(t, testParams("A", "CASH"))
	panel := domain.PricePanel{
		"A":    series("A", flat(300, 100)),
		"CASH": series("CASH", flat(300, 100)),
	}

	assert.Equal(t, 0.0, e.TargetWeight("A", panel))
	assert.Equal(t, 1.0, e.TargetWeight("CASH", panel))
	assert.Equal(t, 0.0, e.TargetWeight("MISSING", panel))
}

func TestEngine_CashProxyAlwaysEligible(t *testing.T) {
	e := newEngine(t, testParams("A", "CASH"))
	panel := domain.PricePanel{
		"A":    series("A", linear(300, 150, 100)),
		"CASH": series("CASH", linear(10, 100, 90)),
	}

	assert.True(t, e.IsEligible("CASH", panel, math.Inf(1)))
	assert.False(t, e.IsEligible("MISSING", panel, math.Inf(-1)))
	assert.Equal(t, domain.Allocation{"CASH": 1.0}, e.Decide(panel))
}

func TestEngine_AbsoluteReturnMustBeatCash(t *testing.T) {
	e := newEngine(t, testParams("A", "CASH"))
	// A trends up slowly, cash rises faster over the last 126 sessions
	panel := domain.PricePanel{
		"A":    series("A", linear(300, 100, 103)),
		"CASH": series("CASH", linear(300, 100, 110)),
	}

	d := e.Evaluate(panel)
	assert.Equal(t, ReasonBelowCashReturn, d.Screening[0].Reason)
	assert.Equal(t, domain.Allocation{"CASH": 1.0}, d.Allocation)
}

func TestEngine_MomentumRequiresLongestLookback(t *testing.T) {
	e := newEngine(t, testParams("A", "CASH"))
	panel := domain.PricePanel{
		"A": series("A", linear(252, 100, 120)),
		"B": series("B", linear(253, 100, 120)),
	}

	assert.True(t, math.IsInf(e.Momentum("A", panel), -1))
	assert.True(t, math.IsInf(e.Momentum("MISSING", panel), -1))
	assert.False(t, math.IsInf(e.Momentum("B", panel), 0))
}

func TestEngine_MomentumIsMeanOfLookbackReturns(t *testing.T) {
	p := testParams("A", "CASH")
	p.MomentumLookbacks = []int{1, 2}
	e := newEngine(t, p)
	panel := domain.PricePanel{"A": series("A", []float64{100, 110, 121})}

	// (121/110-1 + 121/100-1) / 2
	assert.InDelta(t, (0.1+0.21)/2, e.Momentum("A", panel), 1e-12)
}

func TestEngine_InteriorGapsAreDropped(t *testing.T) {
	e := newEngine(t, testParams("B", "CASH"))
	closes := linear(300, 100, 150)
	gapped := append([]float64{}, closes[:200]...)
	gapped = append(gapped, math.NaN(), 0, -1)
	gapped = append(gapped, closes[200:]...)

	clean := domain.PricePanel{"B": series("B", closes)}
	dirty := domain.PricePanel{"B": series("B", gapped)}

	assert.Equal(t, e.Momentum("B", clean), e.Momentum("B", dirty))
	assert.Equal(t, e.AbsoluteReturn("B", clean), e.AbsoluteReturn("B", dirty))
	assert.Equal(t, e.RealizedVol("B", clean), e.RealizedVol("B", dirty))
}

func TestEngine_TieBreakFollowsUniverseOrder(t *testing.T) {
	closes := linear(300, 100, 150)
	cash := series("CASH", flat(300, 100))

	first := newEngine(t, testParams("X", "Y", "CASH"))
	second := newEngine(t, testParams("Y", "X", "CASH"))
	panel := domain.PricePanel{
		"X":    series("X", closes),
		"Y":    series("Y", closes),
		"CASH": cash,
	}

	assert.Equal(t, "X", first.Evaluate(panel).Winner)
	assert.Equal(t, "Y", second.Evaluate(panel).Winner)
}

func TestEngine_Idempotent(t *testing.T) {
	e := newEngine(t, testParams("A", "B", "CASH"))
	panel := domain.PricePanel{
		"A":    series("A", zigzag(300, 0.001, 0.01)),
		"B":    series("B", zigzag(300, 0.002, 0.02)),
		"CASH": series("CASH", flat(300, 100)),
	}

	assert.Equal(t, e.Decide(panel), e.Decide(panel))
}

func TestEngine_CashProxyAppendedToUniverse(t *testing.T) {
	e := newEngine(t, testParams("A"))
	panel := domain.PricePanel{
		"A":    series("A", flat(300, 100)),
		"CASH": series("CASH", flat(300, 100)),
	}

	d := e.Evaluate(panel)
	require.Len(t, d.Screening, 2)
	assert.Equal(t, "CASH", d.Screening[1].Symbol)
	assert.Equal(t, domain.Allocation{"CASH": 1.0}, d.Allocation)
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	assert.Equal(t, 253, DefaultParams().RequiredHistory())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"empty universe", func(p *Params) { p.Universe = nil }},
		{"duplicate symbol", func(p *Params) { p.Universe = []string{"VT", "VT"} }},
		{"empty cash proxy", func(p *Params) { p.CashProxy = "" }},
		{"non-positive lookback", func(p *Params) { p.MomentumLookbacks = []int{21, 0} }},
		{"short vol lookback", func(p *Params) { p.VolLookback = 1 }},
		{"zero target vol", func(p *Params) { p.TargetVol = 0 }},
		{"max weight above one", func(p *Params) { p.MaxWeight = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := New(p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestDecision_JSONEncodesUndefinedAsNull(t *testing.T) {
	e := newEngine(t, testParams("A", "CASH"))
	panel := domain.PricePanel{"A": series("A", flat(30, 100))}

	d := e.Evaluate(panel)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cash_return":null`)
	assert.Contains(t, string(data), `"realized_vol":null`)

	var decoded Decision
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, math.IsInf(decoded.CashReturn, -1))
	assert.True(t, math.IsNaN(decoded.RealizedVol))
	assert.Equal(t, d.Allocation, decoded.Allocation)
}

// Package domain provides core domain models and types.
package domain

import (
	"math"
	"sort"
	"time"
)

// PricePoint is a single daily adjusted close
type PricePoint struct {
	Date  time.Time `json:"date" msgpack:"d"`
	Close float64   `json:"close" msgpack:"c"`
}

// Valid reports whether the close is a usable observation.
// NaN, ±Inf and non-positive closes are treated as missing.
func (p PricePoint) Valid() bool {
	return !math.IsNaN(p.Close) && !math.IsInf(p.Close, 0) && p.Close > 0
}

// PriceSeries is the chronologically ascending adjusted-close history of one instrument
type PriceSeries struct {
	Symbol string       `json:"symbol" msgpack:"s"`
	Points []PricePoint `json:"points" msgpack:"p"`
}

// Closes returns the valid closes in date order with missing observations dropped,
// so indexing from the end counts trading sessions, not calendar offsets.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid() {
			closes = append(closes, p.Close)
		}
	}
	return closes
}

// LastDate returns the date of the latest valid observation (zero time when none)
func (s PriceSeries) LastDate() time.Time {
	for i := len(s.Points) - 1; i >= 0; i-- {
		if s.Points[i].Valid() {
			return s.Points[i].Date
		}
	}
	return time.Time{}
}

// PricePanel maps instrument identifiers to their price series.
// Instruments may have shorter histories than others.
type PricePanel map[string]PriceSeries

// Has reports whether the symbol is present in the panel
func (p PricePanel) Has(symbol string) bool {
	_, ok := p[symbol]
	return ok
}

// Closes returns the valid closes for a symbol; ok is false when the symbol is absent
func (p PricePanel) Closes(symbol string) ([]float64, bool) {
	s, ok := p[symbol]
	if !ok {
		return nil, false
	}
	return s.Closes(), true
}

// Len returns the number of valid observations for a symbol (0 when absent)
func (p PricePanel) Len(symbol string) int {
	closes, _ := p.Closes(symbol)
	return len(closes)
}

// Symbols returns the panel's instruments sorted by name
func (p PricePanel) Symbols() []string {
	symbols := make([]string, 0, len(p))
	for s := range p {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// AsOf returns the latest valid observation date across all instruments
func (p PricePanel) AsOf() time.Time {
	var latest time.Time
	for _, s := range p {
		if d := s.LastDate(); d.After(latest) {
			latest = d
		}
	}
	return latest
}

// Allocation maps instrument identifiers to target weights (fractions of capital).
// Zero weights are omitted.
type Allocation map[string]float64

// Set assigns a weight, dropping the entry when the weight is zero
func (a Allocation) Set(symbol string, weight float64) {
	if weight == 0 {
		delete(a, symbol)
		return
	}
	a[symbol] = weight
}

// Total returns the sum of all weights
func (a Allocation) Total() float64 {
	total := 0.0
	for _, w := range a {
		total += w
	}
	return total
}

// Symbols returns the allocated instruments sorted by name
func (a Allocation) Symbols() []string {
	symbols := make([]string, 0, len(a))
	for s := range a {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// OrderSide is the direction of a rebalance order
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Order is a weight change produced when an allocation is applied
type Order struct {
	Symbol string    `json:"symbol"`
	Side   OrderSide `json:"side"`
	Weight float64   `json:"weight"` // Absolute weight traded
}

// Position is a held target weight
type Position struct {
	Symbol    string    `json:"symbol"`
	Weight    float64   `json:"weight"`
	UpdatedAt time.Time `json:"updated_at"`
}

package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/rotation/internal/domain"
)

// FetchCall records one MockPriceProvider request
type FetchCall struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// MockPriceProvider serves canned series and records requests
type MockPriceProvider struct {
	mu     sync.Mutex
	series map[string][]domain.PricePoint
	errs   map[string]error
	calls  []FetchCall
}

// NewMockPriceProvider creates a provider serving the given panel
func NewMockPriceProvider(panel domain.PricePanel) *MockPriceProvider {
	m := &MockPriceProvider{
		series: make(map[string][]domain.PricePoint),
		errs:   make(map[string]error),
	}
	for symbol, s := range panel {
		m.series[symbol] = s.Points
	}
	return m
}

// SetError makes requests for symbol fail
func (m *MockPriceProvider) SetError(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
}

// FetchHistory returns the points of symbol within [from, to]
func (m *MockPriceProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]domain.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, FetchCall{Symbol: symbol, From: from, To: to})
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	points, ok := m.series[symbol]
	if !ok {
		return nil, fmt.Errorf("no data found for symbol %s", symbol)
	}

	out := make([]domain.PricePoint, 0, len(points))
	for _, p := range points {
		if !p.Date.Before(from) && !p.Date.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Calls returns the recorded requests
func (m *MockPriceProvider) Calls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchCall(nil), m.calls...)
}

// MockExecutor records applied allocations
type MockExecutor struct {
	mu      sync.Mutex
	applied []domain.Allocation
	err     error
}

// NewMockExecutor creates a new mock executor
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// SetError makes Apply fail
func (m *MockExecutor) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Apply records the allocation and returns one buy order per weight
func (m *MockExecutor) Apply(ctx context.Context, allocation domain.Allocation) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	copied := make(domain.Allocation, len(allocation))
	for s, w := range allocation {
		copied[s] = w
	}
	m.applied = append(m.applied, copied)

	symbols := allocation.Symbols()
	orders := make([]domain.Order, 0, len(symbols))
	for _, s := range symbols {
		orders = append(orders, domain.Order{Symbol: s, Side: domain.OrderSideBuy, Weight: allocation[s]})
	}
	return orders, nil
}

// Name identifies the executor
func (m *MockExecutor) Name() string {
	return "mock"
}

// Applied returns every allocation passed to Apply
func (m *MockExecutor) Applied() []domain.Allocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Allocation(nil), m.applied...)
}

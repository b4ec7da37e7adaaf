// Package execution applies target allocations to a position book.
package execution

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/domain"
)

// weightEpsilon ignores float noise when diffing weights
const weightEpsilon = 1e-9

// PositionBook stores the paper positions
type PositionBook interface {
	GetPositions(ctx context.Context) ([]domain.Position, error)
	ReplacePositions(ctx context.Context, allocation domain.Allocation, at time.Time) error
}

// PaperBroker keeps target weights in the ledger instead of trading
type PaperBroker struct {
	book PositionBook
	now  func() time.Time
	log  zerolog.Logger
}

// NewPaperBroker creates a paper broker backed by book
func NewPaperBroker(book PositionBook, log zerolog.Logger) *PaperBroker {
	return &PaperBroker{
		book: book,
		now:  time.Now,
		log:  log.With().Str("component", "paper_broker").Logger(),
	}
}

// Name identifies the executor
func (b *PaperBroker) Name() string {
	return "paper"
}

// Apply liquidates every held position, then targets the new weights.
// The returned orders are the net weight changes, sells first.
func (b *PaperBroker) Apply(ctx context.Context, allocation domain.Allocation) ([]domain.Order, error) {
	current, err := b.book.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	held := make(domain.Allocation, len(current))
	for _, p := range current {
		held[p.Symbol] = p.Weight
	}

	orders := DiffOrders(held, allocation)

	if err := b.book.ReplacePositions(ctx, allocation, b.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to replace positions: %w", err)
	}

	for _, o := range orders {
		b.log.Info().
			Str("symbol", o.Symbol).
			Str("side", string(o.Side)).
			Float64("weight", o.Weight).
			Msg("Paper order filled")
	}
	return orders, nil
}

// DiffOrders returns the orders that move held to target: sells for removed
// or reduced weights, then buys for new or increased ones, each group sorted
// by symbol.
func DiffOrders(held, target domain.Allocation) []domain.Order {
	symbols := make(map[string]struct{}, len(held)+len(target))
	for s := range held {
		symbols[s] = struct{}{}
	}
	for s := range target {
		symbols[s] = struct{}{}
	}

	var sells, buys []domain.Order
	for s := range symbols {
		delta := target[s] - held[s]
		switch {
		case delta < -weightEpsilon:
			sells = append(sells, domain.Order{Symbol: s, Side: domain.OrderSideSell, Weight: math.Abs(delta)})
		case delta > weightEpsilon:
			buys = append(buys, domain.Order{Symbol: s, Side: domain.OrderSideBuy, Weight: delta})
		}
	}

	sort.Slice(sells, func(i, j int) bool { return sells[i].Symbol < sells[j].Symbol })
	sort.Slice(buys, func(i, j int) bool { return buys[i].Symbol < buys[j].Symbol })
	return append(sells, buys...)
}

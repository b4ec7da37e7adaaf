package domain

import (
	"context"
	"time"
)

// PriceProvider supplies daily adjusted-close history for one instrument.
// Implementations return points in ascending date order.
type PriceProvider interface {
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]PricePoint, error)
}

// Executor turns a target allocation into positions.
// Existing positions are liquidated before the new weights are targeted.
type Executor interface {
	Apply(ctx context.Context, allocation Allocation) ([]Order, error)
	Name() string
}

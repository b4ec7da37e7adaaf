package execution

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/domain"
)

// LogExecutor only logs the target allocation. Used for dry runs.
type LogExecutor struct {
	log zerolog.Logger
}

// NewLogExecutor creates a log-only executor
func NewLogExecutor(log zerolog.Logger) *LogExecutor {
	return &LogExecutor{log: log.With().Str("component", "log_executor").Logger()}
}

// Name identifies the executor
func (e *LogExecutor) Name() string {
	return "log"
}

// Apply logs each target weight and places no orders
func (e *LogExecutor) Apply(ctx context.Context, allocation domain.Allocation) ([]domain.Order, error) {
	for _, symbol := range allocation.Symbols() {
		e.log.Info().
			Str("symbol", symbol).
			Float64("weight", allocation[symbol]).
			Msg("Target weight (dry run)")
	}
	return []domain.Order{}, nil
}

// Package cleanup provides data cleanup and maintenance functionality.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HistoryStore is the part of the history repository the cleanup job uses
type HistoryStore interface {
	StoredSymbols(ctx context.Context) ([]string, error)
	DeleteSymbol(ctx context.Context, symbol string) (int64, error)
}

// HistoryCleanupJob removes stored history of symbols that are no longer
// part of the strategy, e.g. after the universe was changed in the strategy file
type HistoryCleanupJob struct {
	store  HistoryStore
	active map[string]bool
	log    zerolog.Logger
}

// NewHistoryCleanupJob creates a new history cleanup job; symbols are the
// instruments whose history is kept
func NewHistoryCleanupJob(store HistoryStore, symbols []string, log zerolog.Logger) *HistoryCleanupJob {
	active := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		active[s] = true
	}
	return &HistoryCleanupJob{
		store:  store,
		active: active,
		log:    log.With().Str("job", "history_cleanup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *HistoryCleanupJob) Name() string {
	return "history_cleanup"
}

// Run executes the cleanup job
func (j *HistoryCleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	j.log.Info().Msg("Starting history cleanup job")

	orphaned, err := j.findOrphanedSymbols(ctx)
	if err != nil {
		return fmt.Errorf("failed to find orphaned symbols: %w", err)
	}

	if len(orphaned) == 0 {
		j.log.Info().Msg("No orphaned symbols to clean up")
		return nil
	}

	j.log.Info().Int("count", len(orphaned)).Msg("Found orphaned symbols")

	cleaned := 0
	errors := 0
	for _, symbol := range orphaned {
		deletedRows, err := j.store.DeleteSymbol(ctx, symbol)
		if err != nil {
			j.log.Error().
				Err(err).
				Str("symbol", symbol).
				Msg("Failed to cleanup orphaned symbol")
			errors++
			continue
		}

		j.log.Info().
			Str("symbol", symbol).
			Int64("rows_deleted", deletedRows).
			Msg("Symbol cleaned up successfully")
		cleaned++
	}

	j.log.Info().
		Int("cleaned", cleaned).
		Int("errors", errors).
		Msg("History cleanup job completed")

	if errors > 0 {
		return fmt.Errorf("cleanup completed with %d errors", errors)
	}

	return nil
}

// findOrphanedSymbols returns symbols present in history but not in the strategy
func (j *HistoryCleanupJob) findOrphanedSymbols(ctx context.Context) ([]string, error) {
	stored, err := j.store.StoredSymbols(ctx)
	if err != nil {
		return nil, err
	}

	var orphaned []string
	for _, symbol := range stored {
		if !j.active[symbol] {
			orphaned = append(orphaned, symbol)
		}
	}
	return orphaned, nil
}

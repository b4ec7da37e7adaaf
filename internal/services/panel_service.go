package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/internal/metrics"
	"github.com/aristath/rotation/internal/modules/history"
)

// SyncResult summarizes one price sync
type SyncResult struct {
	Symbols   int            `json:"symbols"`
	Rows      int            `json:"rows"`
	PerSymbol map[string]int `json:"per_symbol"`
}

// PanelService keeps the price store current and builds panels from it
type PanelService struct {
	provider    domain.PriceProvider
	repo        *history.Repository
	metrics     *metrics.Registry
	historyDays int
	panelLimit  int
	now         func() time.Time
	log         zerolog.Logger
}

// NewPanelService creates a new panel service. historyDays is the calendar
// window fetched for a symbol with no stored data; panelLimit caps the
// sessions per symbol returned by Panel.
func NewPanelService(
	provider domain.PriceProvider,
	repo *history.Repository,
	metrics *metrics.Registry,
	historyDays int,
	panelLimit int,
	log zerolog.Logger,
) *PanelService {
	return &PanelService{
		provider:    provider,
		repo:        repo,
		metrics:     metrics,
		historyDays: historyDays,
		panelLimit:  panelLimit,
		now:         time.Now,
		log:         log.With().Str("service", "panel").Logger(),
	}
}

// Sync fetches new sessions for every symbol and stores them. Symbols with
// stored history are fetched from their latest stored date so a revised
// last close is picked up. Any provider failure fails the whole sync.
func (s *PanelService) Sync(ctx context.Context, symbols []string) (*SyncResult, error) {
	now := s.now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := to.AddDate(0, 0, -s.historyDays)

	result := &SyncResult{PerSymbol: make(map[string]int, len(symbols))}
	for _, symbol := range symbols {
		from := windowStart
		latest, ok, err := s.repo.LatestDate(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if ok && latest.After(from) {
			from = latest
		}

		points, err := s.provider.FetchHistory(ctx, symbol, from, to)
		if err != nil {
			if s.metrics != nil {
				s.metrics.SyncErrors.WithLabelValues(symbol).Inc()
			}
			return nil, fmt.Errorf("failed to sync %s: %w", symbol, err)
		}

		n, err := s.repo.SavePrices(ctx, symbol, points)
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.PriceRowsSynced.WithLabelValues(symbol).Add(float64(n))
		}

		result.Symbols++
		result.Rows += n
		result.PerSymbol[symbol] = n

		s.log.Debug().
			Str("symbol", symbol).
			Time("from", from).
			Int("rows", n).
			Msg("Symbol synced")
	}

	s.log.Info().Int("symbols", result.Symbols).Int("rows", result.Rows).Msg("Price sync completed")
	return result, nil
}

// Panel loads the stored panel for symbols
func (s *PanelService) Panel(ctx context.Context, symbols []string) (domain.PricePanel, error) {
	panel, err := s.repo.LoadPanel(ctx, symbols, s.panelLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load panel: %w", err)
	}
	return panel, nil
}

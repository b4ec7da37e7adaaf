package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/internal/events"
	"github.com/aristath/rotation/internal/metrics"
	"github.com/aristath/rotation/internal/modules/ledger"
	"github.com/aristath/rotation/internal/modules/rotation"
	"github.com/aristath/rotation/internal/reliability"
)

// ErrWarmingUp is returned when the cash proxy does not yet have enough
// history for every calculation to be defined
var ErrWarmingUp = errors.New("warming up: insufficient price history")

const eventModule = "rebalance"

// Trigger values recorded with each decision
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
	TriggerCLI       = "cli"
)

// RebalanceResult is the outcome of one rebalance run
type RebalanceResult struct {
	RunID       string                  `json:"run_id"`
	Trigger     string                  `json:"trigger"`
	Executor    string                  `json:"executor"`
	Decision    *rotation.Decision      `json:"decision"`
	Orders      []domain.Order          `json:"orders"`
	Sync        *SyncResult             `json:"sync"`
	Backup      *reliability.BackupInfo `json:"backup,omitempty"`
	StartedAt   time.Time               `json:"started_at"`
	CompletedAt time.Time               `json:"completed_at"`
}

// RebalanceService runs the full cycle: sync, decide, execute, record.
// Runs are serialized.
type RebalanceService struct {
	mu       sync.Mutex
	engine   *rotation.Engine
	panels   *PanelService
	executor domain.Executor
	ledger   *ledger.Repository
	events   *events.Manager
	metrics  *metrics.Registry
	backup   *reliability.BackupService
	now      func() time.Time
	log      zerolog.Logger
}

// NewRebalanceService creates a new rebalance service.
// metrics and backup may be nil.
func NewRebalanceService(
	engine *rotation.Engine,
	panels *PanelService,
	executor domain.Executor,
	ledgerRepo *ledger.Repository,
	eventManager *events.Manager,
	metricsRegistry *metrics.Registry,
	backup *reliability.BackupService,
	log zerolog.Logger,
) *RebalanceService {
	return &RebalanceService{
		engine:   engine,
		panels:   panels,
		executor: executor,
		ledger:   ledgerRepo,
		events:   eventManager,
		metrics:  metricsRegistry,
		backup:   backup,
		now:      time.Now,
		log:      log.With().Str("service", "rebalance").Logger(),
	}
}

// Params returns the active engine parameters
func (s *RebalanceService) Params() rotation.Params {
	return s.engine.Params()
}

// Sync refreshes stored history for the whole universe
func (s *RebalanceService) Sync(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	result, err := s.panels.Sync(ctx, s.engine.Params().Symbols())
	s.observe("sync", start, err)
	if err != nil {
		return nil, err
	}
	s.emit(&events.PricesSyncedData{Symbols: result.Symbols, Rows: result.Rows})
	return result, nil
}

// Preview evaluates the stored panel without syncing, gating or trading.
// The engine fails safe toward cash during warm-up, so the screening is
// still meaningful.
func (s *RebalanceService) Preview(ctx context.Context) (*rotation.Decision, error) {
	panel, err := s.panels.Panel(ctx, s.engine.Params().Symbols())
	if err != nil {
		return nil, err
	}
	return s.engine.Evaluate(panel), nil
}

// Rebalance runs one full cycle
func (s *RebalanceService) Rebalance(ctx context.Context, trigger string) (*RebalanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &RebalanceResult{
		RunID:     uuid.New().String(),
		Trigger:   trigger,
		Executor:  s.executor.Name(),
		StartedAt: s.now().UTC(),
	}
	log := s.log.With().Str("run_id", result.RunID).Str("trigger", trigger).Logger()
	log.Info().Msg("Rebalance started")
	s.emit(&events.RebalanceStartedData{RunID: result.RunID, Trigger: trigger})

	syncResult, err := s.Sync(ctx)
	if err != nil {
		return nil, s.fail(result, "sync", err)
	}
	result.Sync = syncResult

	params := s.engine.Params()
	panel, err := s.panels.Panel(ctx, params.Symbols())
	if err != nil {
		return nil, s.fail(result, "load_panel", err)
	}

	available := panel.Len(params.CashProxy)
	if required := params.RequiredHistory(); available < required {
		log.Info().
			Str("cash_proxy", params.CashProxy).
			Int("available", available).
			Int("required", required).
			Msg("Warming up, rebalance skipped")
		s.countRun(trigger, "skipped")
		s.emit(&events.RebalanceSkippedData{
			Trigger:   trigger,
			Reason:    "warming_up",
			Available: available,
			Required:  required,
		})
		return nil, fmt.Errorf("%w: %s has %d of %d sessions", ErrWarmingUp, params.CashProxy, available, required)
	}

	start := time.Now()
	decision := s.engine.Evaluate(panel)
	s.observe("evaluate", start, nil)
	result.Decision = decision
	logDecision(log, decision)

	start = time.Now()
	orders, err := s.executor.Apply(ctx, decision.Allocation)
	s.observe("execute", start, err)
	if err != nil {
		return nil, s.fail(result, "execute", err)
	}
	result.Orders = orders
	s.emit(&events.PositionsChangedData{Executor: result.Executor, Orders: len(orders)})

	result.CompletedAt = s.now().UTC()
	record := ledger.DecisionRecord{
		ID:        result.RunID,
		Trigger:   trigger,
		Executor:  result.Executor,
		AsOf:      decision.AsOf,
		CreatedAt: result.CompletedAt,
		Decision:  decision,
		Orders:    orders,
	}
	start = time.Now()
	err = s.ledger.SaveDecision(ctx, record, panel)
	s.observe("record", start, err)
	if err != nil {
		return nil, s.fail(result, "record", err)
	}

	if s.metrics != nil {
		s.metrics.RecordDecision(decision, result.CompletedAt)
	}
	s.countRun(trigger, "success")
	s.emit(&events.RebalanceCompletedData{
		RunID:      result.RunID,
		Trigger:    trigger,
		Winner:     decision.Winner,
		Weight:     decision.Weight,
		CashWeight: decision.CashWeight,
		RiskOff:    decision.RiskOff,
		Allocation: decision.Allocation,
		Eligible:   decision.Eligible(),
	})

	if s.backup.Enabled() {
		info, err := s.backup.Backup(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Ledger backup failed")
			s.emit(&events.ErrorEventData{
				Error:   err.Error(),
				Context: map[string]interface{}{"run_id": result.RunID, "stage": "backup"},
			})
		} else if info != nil {
			result.Backup = info
			s.emit(&events.BackupCompletedData{Key: info.Key, Bytes: info.SizeBytes})
		}
	}

	log.Info().
		Str("winner", decision.Winner).
		Float64("weight", decision.Weight).
		Float64("cash", decision.CashWeight).
		Int("orders", len(orders)).
		Dur("duration", result.CompletedAt.Sub(result.StartedAt)).
		Msg("Rebalance completed")
	return result, nil
}

func (s *RebalanceService) fail(result *RebalanceResult, stage string, err error) error {
	s.log.Error().
		Err(err).
		Str("run_id", result.RunID).
		Str("stage", stage).
		Msg("Rebalance failed")
	s.countRun(result.Trigger, "error")
	s.emit(&events.RebalanceFailedData{
		RunID:   result.RunID,
		Trigger: result.Trigger,
		Stage:   stage,
		Error:   err.Error(),
	})
	return fmt.Errorf("rebalance failed at %s: %w", stage, err)
}

func (s *RebalanceService) emit(data events.EventData) {
	if s.events != nil {
		s.events.EmitTyped(eventModule, data)
	}
}

func (s *RebalanceService) observe(stage string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, start, err)
	}
}

func (s *RebalanceService) countRun(trigger, result string) {
	if s.metrics != nil {
		s.metrics.RebalanceRuns.WithLabelValues(trigger, result).Inc()
	}
}

// logDecision writes the screening report, the momentum ranking and the selection
func logDecision(log zerolog.Logger, d *rotation.Decision) {
	for _, sc := range d.Screening {
		if sc.Eligible {
			log.Info().
				Str("symbol", sc.Symbol).
				Float64("abs_return", sc.AbsReturn).
				Msg("Eligible")
			continue
		}
		log.Info().
			Str("symbol", sc.Symbol).
			Str("reason", string(sc.Reason)).
			Float64("abs_return", sc.AbsReturn).
			Msg("Excluded")
	}

	for _, symbol := range d.Eligible() {
		log.Info().
			Str("symbol", symbol).
			Float64("momentum", d.Scores[symbol]).
			Msg("Momentum score")
	}

	if d.RiskOff {
		log.Warn().Msg("No eligible instruments, moving fully to cash")
	}
	log.Info().
		Str("winner", d.Winner).
		Float64("weight", d.Weight).
		Float64("cash", d.CashWeight).
		Float64("realized_vol", d.RealizedVol).
		Msg("Selected")
}

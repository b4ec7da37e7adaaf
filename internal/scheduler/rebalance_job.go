package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/services"
)

// Rebalancer runs one rebalance cycle
type Rebalancer interface {
	Rebalance(ctx context.Context, trigger string) (*services.RebalanceResult, error)
}

// RebalanceJob triggers the monthly rebalance. It is registered on a daily
// weekday schedule and only acts on the last session of the month.
type RebalanceJob struct {
	rebalancer Rebalancer
	loc        *time.Location
	timeout    time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewRebalanceJob creates a new RebalanceJob; loc is the exchange time zone
func NewRebalanceJob(rebalancer Rebalancer, loc *time.Location, log zerolog.Logger) *RebalanceJob {
	if loc == nil {
		loc = time.UTC
	}
	return &RebalanceJob{
		rebalancer: rebalancer,
		loc:        loc,
		timeout:    10 * time.Minute,
		now:        time.Now,
		log:        log.With().Str("job", "rebalance").Logger(),
	}
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return "rebalance"
}

// Run executes the rebalance when today is the month-end session
func (j *RebalanceJob) Run() error {
	today := j.now().In(j.loc)
	if !IsMonthEndSession(today) {
		j.log.Debug().Str("date", today.Format("2006-01-02")).Msg("Not a month-end session, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.rebalancer.Rebalance(ctx, services.TriggerScheduled)
	if errors.Is(err, services.ErrWarmingUp) {
		j.log.Info().Err(err).Msg("Rebalance deferred until enough history is stored")
		return nil
	}
	return err
}

// IsMonthEndSession reports whether t falls on the last weekday of its
// month. Exchange holidays are not considered.
func IsMonthEndSession(t time.Time) bool {
	if isWeekend(t) {
		return false
	}
	next := t.AddDate(0, 0, 1)
	for isWeekend(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Month() != t.Month()
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rotation/internal/services"
)

type stubRebalancer struct {
	calls    []string
	err      error
	deadline bool
}

func (s *stubRebalancer) Rebalance(ctx context.Context, trigger string) (*services.RebalanceResult, error) {
	s.calls = append(s.calls, trigger)
	_, s.deadline = ctx.Deadline()
	if s.err != nil {
		return nil, s.err
	}
	return &services.RebalanceResult{Trigger: trigger}, nil
}

func newTestRebalanceJob(r Rebalancer, at time.Time) *RebalanceJob {
	job := NewRebalanceJob(r, time.UTC, zerolog.Nop())
	job.now = func() time.Time { return at }
	return job
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
}

func TestIsMonthEndSession(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"last day is a weekday", date(2024, time.January, 31), true},
		{"day before last weekday", date(2024, time.January, 30), false},
		{"month ends on a weekend", date(2024, time.August, 30), true},
		{"weekend month end", date(2024, time.August, 31), false},
		{"leap february", date(2024, time.February, 29), true},
		{"february 28 in leap year", date(2024, time.February, 28), false},
		{"december", date(2025, time.December, 31), true},
		{"month ends on sunday", date(2025, time.November, 28), true},
		{"first of month", date(2025, time.December, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMonthEndSession(tt.day))
		})
	}
}

func TestRebalanceJob_Name(t *testing.T) {
	job := NewRebalanceJob(&stubRebalancer{}, nil, zerolog.Nop())
	assert.Equal(t, "rebalance", job.Name())
}

func TestRebalanceJob_SkipsOrdinaryDays(t *testing.T) {
	stub := &stubRebalancer{}
	job := newTestRebalanceJob(stub, date(2024, time.January, 15))

	require.NoError(t, job.Run())
	assert.Empty(t, stub.calls)
}

func TestRebalanceJob_RunsAtMonthEnd(t *testing.T) {
	stub := &stubRebalancer{}
	job := newTestRebalanceJob(stub, date(2024, time.May, 31))

	require.NoError(t, job.Run())
	assert.Equal(t, []string{services.TriggerScheduled}, stub.calls)
	assert.True(t, stub.deadline)
}

func TestRebalanceJob_UsesExchangeTimeZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	stub := &stubRebalancer{}
	job := NewRebalanceJob(stub, ny, zerolog.Nop())
	// 01:00 UTC on June 1st is still May 31st in New York
	job.now = func() time.Time { return time.Date(2024, time.June, 1, 1, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run())
	assert.Len(t, stub.calls, 1)
}

func TestRebalanceJob_WarmingUpIsNotAFailure(t *testing.T) {
	stub := &stubRebalancer{err: fmt.Errorf("%w: BIL has 10 of 253 sessions", services.ErrWarmingUp)}
	job := newTestRebalanceJob(stub, date(2024, time.May, 31))

	assert.NoError(t, job.Run())
}

func TestRebalanceJob_PropagatesFailures(t *testing.T) {
	stub := &stubRebalancer{err: errors.New("rebalance failed at sync: timeout")}
	job := newTestRebalanceJob(stub, date(2024, time.May, 31))

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync")
}

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/internal/modules/rotation"
)

func TestRegistry_RecordDecision(t *testing.T) {
	r := NewRegistry()
	at := time.Date(2024, 6, 28, 19, 30, 0, 0, time.UTC)

	r.RecordDecision(&rotation.Decision{
		Allocation:  domain.Allocation{"GLD": 0.7, "BIL": 0.3},
		Scores:      map[string]float64{"GLD": 0.12, "BIL": 0.01},
		Screening:   []rotation.Screening{{Symbol: "GLD", Eligible: true}, {Symbol: "BIL", Eligible: true}, {Symbol: "VT"}},
		RealizedVol: 0.17,
	}, at)

	assert.Equal(t, 0.7, testutil.ToFloat64(r.AllocationWeight.WithLabelValues("GLD")))
	assert.Equal(t, 0.12, testutil.ToFloat64(r.MomentumScore.WithLabelValues("GLD")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.EligibleCount))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.RiskOff))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(r.LastRebalance))

	// A risk-off decision clears the previous winner's gauge
	r.RecordDecision(&rotation.Decision{
		Allocation: domain.Allocation{"BIL": 1},
		Scores:     map[string]float64{},
		RiskOff:    true,
	}, at)
	assert.Equal(t, 1, testutil.CollectAndCount(r.AllocationWeight))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RiskOff))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.RebalanceRuns.WithLabelValues("manual", "success").Inc()
	r.ObserveStage("sync", time.Now(), errors.New("boom"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `rotation_rebalance_runs_total{result="success",trigger="manual"} 1`)
	assert.Contains(t, string(body), `rotation_stage_duration_seconds_count{result="error",stage="sync"} 1`)
}

func TestRegistry_ObserveJob(t *testing.T) {
	r := NewRegistry()
	start := time.Now().Add(-time.Second)

	r.ObserveJob("rebalance", start, nil)
	r.ObserveJob("rebalance", start, errors.New("sync failed"))
	r.ObserveJob("history_cleanup", start, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.JobRuns.WithLabelValues("rebalance", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.JobRuns.WithLabelValues("rebalance", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.JobDuration))
}

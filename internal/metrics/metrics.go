// Package metrics exposes Prometheus collectors for rebalance runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aristath/rotation/internal/modules/rotation"
)

// Registry holds all rotation metrics on a private Prometheus registry
type Registry struct {
	registry *prometheus.Registry

	RebalanceRuns     *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	AllocationWeight  *prometheus.GaugeVec
	MomentumScore     *prometheus.GaugeVec
	EligibleCount     prometheus.Gauge
	WinnerRealizedVol prometheus.Gauge
	RiskOff           prometheus.Gauge
	LastRebalance     prometheus.Gauge
	PriceRowsSynced   *prometheus.CounterVec
	SyncErrors        *prometheus.CounterVec
	JobRuns           *prometheus.CounterVec
	JobDuration       *prometheus.HistogramVec
}

// NewRegistry creates and registers all collectors
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		RebalanceRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotation_rebalance_runs_total",
				Help: "Rebalance runs by trigger and result",
			},
			[]string{"trigger", "result"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rotation_stage_duration_seconds",
				Help:    "Duration of each rebalance stage in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage", "result"},
		),

		AllocationWeight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rotation_allocation_weight",
				Help: "Target weight per instrument from the latest decision",
			},
			[]string{"symbol"},
		),

		MomentumScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rotation_momentum_score",
				Help: "Momentum score of each eligible instrument in the latest decision",
			},
			[]string{"symbol"},
		),

		EligibleCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rotation_eligible_instruments",
			Help: "Number of instruments that passed screening in the latest decision",
		}),

		WinnerRealizedVol: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rotation_winner_realized_vol",
			Help: "Annualized realized volatility of the latest winner",
		}),

		RiskOff: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rotation_risk_off",
			Help: "1 when the latest decision found no eligible instrument",
		}),

		LastRebalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rotation_last_rebalance_timestamp_seconds",
			Help: "Unix time of the latest successful rebalance",
		}),

		PriceRowsSynced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotation_price_rows_synced_total",
				Help: "Daily price rows written by symbol",
			},
			[]string{"symbol"},
		),

		SyncErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotation_price_sync_errors_total",
				Help: "Price sync failures by symbol",
			},
			[]string{"symbol"},
		),

		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotation_job_runs_total",
				Help: "Scheduled job executions by job and result",
			},
			[]string{"job", "result"},
		),

		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rotation_job_duration_seconds",
				Help:    "Duration of scheduled job executions in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"job"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RebalanceRuns,
		r.StageDuration,
		r.AllocationWeight,
		r.MomentumScore,
		r.EligibleCount,
		r.WinnerRealizedVol,
		r.RiskOff,
		r.LastRebalance,
		r.PriceRowsSynced,
		r.SyncErrors,
		r.JobRuns,
		r.JobDuration,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveStage records how long a stage took
func (r *Registry) ObserveStage(stage string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.StageDuration.WithLabelValues(stage, result).Observe(time.Since(start).Seconds())
}

// ObserveJob records one scheduled job execution
func (r *Registry) ObserveJob(name string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.JobRuns.WithLabelValues(name, result).Inc()
	r.JobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// RecordDecision replaces the per-decision gauges
func (r *Registry) RecordDecision(d *rotation.Decision, at time.Time) {
	r.AllocationWeight.Reset()
	for symbol, w := range d.Allocation {
		r.AllocationWeight.WithLabelValues(symbol).Set(w)
	}

	r.MomentumScore.Reset()
	for symbol, score := range d.Scores {
		r.MomentumScore.WithLabelValues(symbol).Set(score)
	}

	r.EligibleCount.Set(float64(len(d.Eligible())))
	r.WinnerRealizedVol.Set(d.RealizedVol)
	if d.RiskOff {
		r.RiskOff.Set(1)
	} else {
		r.RiskOff.Set(0)
	}
	r.LastRebalance.Set(float64(at.Unix()))
}

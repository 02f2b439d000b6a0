// Package metrics exposes analysis counters and timings to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records pipeline activity. A nil *Metrics is valid and records
// nothing, so library callers that do not care about metrics can pass nil.
type Metrics struct {
	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	retained      *prometheus.GaugeVec
	stalls        prometheus.Counter
}

// New registers the analysis metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbiter_analysis_runs_total",
				Help: "Analysis runs by final status.",
			},
			[]string{"status"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbiter_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		stageFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbiter_stage_failures_total",
				Help: "Pipeline stages that returned an error.",
			},
			[]string{"stage"},
		),
		retained: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbiter_filter_retained_candidates",
				Help: "Candidates kept by each filter in the latest run.",
			},
			[]string{"filter"},
		),
		stalls: f.NewCounter(prometheus.CounterOpts{
			Name: "arbiter_ranking_stalls_total",
			Help: "ELECTRE II exploitations that could not place any remaining candidate.",
		}),
	}
}

func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) StageFailed(stage string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) Retained(filter string, n int) {
	if m == nil {
		return
	}
	m.retained.WithLabelValues(filter).Set(float64(n))
}

func (m *Metrics) Stalled() {
	if m == nil {
		return
	}
	m.stalls.Inc()
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gathered maps "name{label}" to the counter, gauge, or histogram-count value.
func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				key += "{" + l.GetValue() + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RunFinished("completed")
	m.RunFinished("completed")
	m.RunFinished("failed")
	m.StageFailed("electre2")
	m.Retained("dominance", 7)
	m.Stalled()
	m.ObserveStage("normalize", 20*time.Millisecond)

	got := gathered(t, reg)
	assert.Equal(t, 2.0, got["arbiter_analysis_runs_total{completed}"])
	assert.Equal(t, 1.0, got["arbiter_analysis_runs_total{failed}"])
	assert.Equal(t, 1.0, got["arbiter_stage_failures_total{electre2}"])
	assert.Equal(t, 7.0, got["arbiter_filter_retained_candidates{dominance}"])
	assert.Equal(t, 1.0, got["arbiter_ranking_stalls_total"])
	assert.Equal(t, 1.0, got["arbiter_stage_duration_seconds{normalize}"])
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RunFinished("completed")
		m.ObserveStage("weighted", time.Second)
		m.StageFailed("topsis")
		m.Retained("satisfaction", 3)
		m.Stalled()
	})
}

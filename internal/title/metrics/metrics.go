// Package metrics holds the Prometheus instruments for the title analysis
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the analysis pipeline.
type Metrics struct {
	AnalysesTotal      *prometheus.CounterVec
	AnalysisDuration   prometheus.Histogram
	InstrumentsSkipped prometheus.Counter
	ReleasesUnmatched  prometheus.Counter
	BrokenChains       prometheus.Counter
}

// New creates and registers all pipeline metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "titlechain_analyses_total",
			Help: "Total analyses run, by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "titlechain_analysis_duration_seconds",
			Help:    "Wall time of a single property analysis.",
			Buckets: prometheus.DefBuckets,
		}),
		InstrumentsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "titlechain_instruments_skipped_total",
			Help: "Input instruments set aside by validation.",
		}),
		ReleasesUnmatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "titlechain_releases_unmatched_total",
			Help: "Release instruments left for manual review.",
		}),
		BrokenChains: promauto.NewCounter(prometheus.CounterOpts{
			Name: "titlechain_broken_chains_total",
			Help: "Analyses whose chain of title carried a broken link.",
		}),
	}
}

// ObserveAnalysis records one completed analysis.
func (m *Metrics) ObserveAnalysis(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(d.Seconds())
}

// AddSkipped counts instruments validation set aside.
func (m *Metrics) AddSkipped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.InstrumentsSkipped.Add(float64(n))
}

// AddUnmatched counts releases queued for review.
func (m *Metrics) AddUnmatched(n int) {
	if m == nil || n == 0 {
		return
	}
	m.ReleasesUnmatched.Add(float64(n))
}

// IncrementBrokenChains counts one broken-chain analysis.
func (m *Metrics) IncrementBrokenChains() {
	if m == nil {
		return
	}
	m.BrokenChains.Inc()
}

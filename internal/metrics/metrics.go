// Package metrics exposes analysis results as Prometheus gauges.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/mdhealth/internal/contracts"
)

const namespace = "mdhealth"

// Run outcome labels
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Metrics owns a private registry so several instances never collide
// ⭐ SSOT: Prometheus 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	aggregate *prometheus.GaugeVec
	dimension *prometheus.GaugeVec
	issues    *prometheus.GaugeVec
	runs      *prometheus.CounterVec
	duration  prometheus.Histogram
	lastRun   prometheus.Gauge
}

// New registers all collectors, plus Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		aggregate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregate_score",
			Help:      "Weighted 0-10 quality score per dataset.",
		}, []string{"dataset"}),
		dimension: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dimension_score",
			Help:      "Quality dimension percentage per dataset.",
		}, []string{"dataset", "dimension"}),
		issues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "issues",
			Help:      "Open issues per dataset and severity in the latest run.",
		}, []string{"dataset", "severity"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Analysis runs by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Load plus analysis time of a run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the latest successful run.",
		}),
	}

	m.registry.MustRegister(
		m.aggregate, m.dimension, m.issues, m.runs, m.duration, m.lastRun,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun replaces all per-dataset gauges with the run's values.
// Datasets missing from the run disappear from the output.
func (m *Metrics) ObserveRun(run *contracts.AnalysisRun) {
	if m == nil || run == nil {
		return
	}

	m.aggregate.Reset()
	m.dimension.Reset()
	m.issues.Reset()

	for name, score := range run.Scores {
		m.aggregate.WithLabelValues(name).Set(score)
	}
	for name, rep := range run.Reports {
		for _, d := range contracts.Dimensions {
			m.dimension.WithLabelValues(name, string(d)).Set(rep.Score(d))
		}
		for _, sev := range []contracts.Severity{contracts.SeverityHigh, contracts.SeverityMedium, contracts.SeverityLow} {
			m.issues.WithLabelValues(name, string(sev)).Set(float64(rep.IssueCount(sev)))
		}
	}

	m.runs.WithLabelValues(StatusSuccess).Inc()
	m.duration.Observe(run.Duration.Seconds())
	m.lastRun.Set(float64(run.StartedAt.Unix()))
}

// ObserveFailure counts a run that produced no result
func (m *Metrics) ObserveFailure(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(StatusFailed).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

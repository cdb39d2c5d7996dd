// Package metrics exposes assessment counters and latencies to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

const namespace = "vsat"

// Metrics holds the collectors recorded by the assessment pipeline
type Metrics struct {
	registry    *prometheus.Registry
	assessments *prometheus.CounterVec
	failures    prometheus.Counter
	duration    prometheus.Histogram
	questions   *prometheus.CounterVec
	gaps        *prometheus.CounterVec
	evidence    prometheus.Histogram
	degraded    prometheus.Counter
}

// New creates the collectors on a private registry together with the Go
// runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Completed assessments by overall risk level.",
		}, []string{"level"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_failures_total",
			Help:      "Assessments rejected or aborted before a report was produced.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "Wall time of one assessment, normalization through scoring.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Matched questions by confidence tier.",
		}, []string{"tier"}),
		gaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gaps_total",
			Help:      "Detected gaps by kind.",
		}, []string{"kind"}),
		evidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evidence_items",
			Help:      "Evidence items kept after normalization, per assessment.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_assessments_total",
			Help:      "Assessments scored lexically because the embedding backend failed.",
		}),
	}

	reg.MustRegister(
		m.assessments, m.failures, m.duration, m.questions, m.gaps, m.evidence, m.degraded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAssessment records a completed assessment
func (m *Metrics) ObserveAssessment(a *model.Assessment, elapsed time.Duration) {
	if m == nil || a == nil || a.Report == nil {
		return
	}
	m.assessments.WithLabelValues(string(a.Report.OverallLevel)).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.evidence.Observe(float64(a.Evidence.Len()))
	for tier, n := range a.Report.ConfidenceDistribution {
		m.questions.WithLabelValues(string(tier)).Add(float64(n))
	}
	for kind, n := range a.Report.Summary.GapCounts {
		m.gaps.WithLabelValues(string(kind)).Add(float64(n))
	}
	if a.Report.Degraded {
		m.degraded.Inc()
	}
}

// ObserveFailure records an assessment that produced no report
func (m *Metrics) ObserveFailure() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

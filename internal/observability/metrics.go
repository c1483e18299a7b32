// Package observability holds the Prometheus instruments of the chat pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	Submissions      *prometheus.CounterVec
	Attachments      *prometheus.CounterVec
	ExtractionCache  *prometheus.CounterVec
	MemoryOperations *prometheus.CounterVec
	ModelLatency     *prometheus.HistogramVec
	FirstToken       prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Chat submissions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		Attachments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_total",
			Help:      "Attachment processing by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ExtractionCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_cache_total",
			Help:      "Extraction cache lookups by result.",
		}, []string{"result"}),
		MemoryOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_operations_total",
			Help:      "Long-term memory operations by op and outcome.",
		}, []string{"op", "outcome"}),
		ModelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_latency_seconds",
			Help:      "Model completion latency by variant.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"variant"}),
		FirstToken: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "time_to_first_token_seconds",
			Help:      "Latency to the first streamed delta.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8},
		}),
	}
}

func (m *Metrics) ObserveSubmission(mode, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) ObserveAttachment(kind, outcome string) {
	if m == nil {
		return
	}
	m.Attachments.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ExtractionCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveMemory(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.MemoryOperations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObserveModelLatency(variant string, d time.Duration) {
	if m == nil {
		return
	}
	m.ModelLatency.WithLabelValues(variant).Observe(d.Seconds())
}

func (m *Metrics) ObserveFirstToken(d time.Duration) {
	if m == nil {
		return
	}
	m.FirstToken.Observe(d.Seconds())
}

// Registry exposes the underlying registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

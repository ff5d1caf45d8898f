// Package metrics exposes decode and validation counters for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one decoder/validator pair.
type Metrics struct {
	registry *prometheus.Registry

	pdus           *prometheus.CounterVec
	tags           *prometheus.CounterVec
	failures       *prometheus.CounterVec
	decodeDuration prometheus.Histogram
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pdus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asanti_pdus_total",
			Help: "PDUs handed to the decoder, by result.",
		}, []string{"result"}),
		tags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asanti_tags_total",
			Help: "Raw tags resolved against the schema, by state.",
		}, []string{"state"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asanti_validation_failures_total",
			Help: "Validation failures, by failure type.",
		}, []string{"type"}),
		decodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "asanti_decode_duration_seconds",
			Help:    "Time spent resolving one PDU.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.pdus, m.tags, m.failures, m.decodeDuration)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PDUDecoded records one resolved PDU.
func (m *Metrics) PDUDecoded(mapped, unmapped int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pdus.WithLabelValues("decoded").Inc()
	m.tags.WithLabelValues("mapped").Add(float64(mapped))
	m.tags.WithLabelValues("unmapped").Add(float64(unmapped))
	m.decodeDuration.Observe(elapsed.Seconds())
}

// PDUMalformed records a PDU the BER reader rejected.
func (m *Metrics) PDUMalformed() {
	if m == nil {
		return
	}
	m.pdus.WithLabelValues("malformed").Inc()
}

// ValidationFailure records one failure of the named type.
func (m *Metrics) ValidationFailure(failureType string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(failureType).Inc()
}

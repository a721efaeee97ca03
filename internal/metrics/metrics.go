// Package metrics exposes the verifier's Prometheus metrics, replacing the
// teacher's hand-rolled Counter/Gauge/Histogram/Registry types with the
// real github.com/prometheus/client_golang, a direct dependency surfaced
// across the wider example pack. The Registry wrapper and HTTPHandler
// convenience keep the teacher's call shape (construct a registry, ask it
// for an http.Handler) while delegating the metric machinery itself to
// the ecosystem library.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps a prometheus.Registry scoped to one namespace/subsystem,
// the same two-level naming the teacher's hand-rolled Registry used.
type Registry struct {
	prom      *prometheus.Registry
	namespace string
	subsystem string
}

// NewRegistry creates a new Registry.
func NewRegistry(namespace, subsystem string) *Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(prometheus.NewGoCollector())
	r.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return &Registry{prom: r, namespace: namespace, subsystem: subsystem}
}

// RegisterCounter registers a new counter with no labels.
func (r *Registry) RegisterCounter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	})
	r.prom.MustRegister(c)
	return c
}

// RegisterGauge registers a new gauge.
func (r *Registry) RegisterGauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	})
	r.prom.MustRegister(g)
	return g
}

// RegisterHistogram registers a new histogram.
func (r *Registry) RegisterHistogram(name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
	})
	r.prom.MustRegister(h)
	return h
}

// RegisterCounterVec registers a new counter vector, labeled by label.
func (r *Registry) RegisterCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	}, labels)
	r.prom.MustRegister(c)
	return c
}

// HTTPHandler returns an HTTP handler suitable for a /metrics scrape
// endpoint.
func (r *Registry) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}

// Global default registry.
var defaultRegistry = NewRegistry("tripverifier", "")

// Default returns the default global registry.
func Default() *Registry {
	return defaultRegistry
}

// SetDefault sets the default global registry.
func SetDefault(r *Registry) {
	defaultRegistry = r
}

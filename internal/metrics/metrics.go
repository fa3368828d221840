package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	Registry        *prometheus.Registry
	OperationErrors *prometheus.CounterVec
	Requests        *prometheus.HistogramVec
}

// New registers the product API collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		OperationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "productapi",
			Name:      "operation_errors_total",
			Help:      "Product operation failures by operation and error kind.",
		}, []string{"operation", "kind"}),
		Requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "productapi",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.OperationErrors,
		m.Requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveError counts a failed operation. Safe on a nil receiver.
func (m *Metrics) ObserveError(operation, kind string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(operation, kind).Inc()
}

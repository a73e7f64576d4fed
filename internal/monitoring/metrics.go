package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Execution outcome labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram
	ExecutionsActive  prometheus.Gauge

	CapabilityCalls    *prometheus.CounterVec
	CapabilityDuration *prometheus.HistogramVec

	Delegations *prometheus.CounterVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a metrics collector on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeact_executions_total",
				Help: "Total number of finished script executions",
			},
			[]string{"status"},
		),
		ExecutionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "codeact_execution_duration_seconds",
				Help:    "Script execution wall-clock duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		ExecutionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "codeact_executions_active",
				Help: "Number of executions currently running",
			},
		),
		CapabilityCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeact_capability_calls_total",
				Help: "Total number of host capability calls made by scripts",
			},
			[]string{"capability", "status"},
		),
		CapabilityDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codeact_capability_duration_seconds",
				Help:    "Host capability call duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 10},
			},
			[]string{"capability"},
		),
		Delegations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeact_delegations_total",
				Help: "Total number of delegated sub-agent tasks",
			},
			[]string{"status"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeact_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codeact_http_request_duration_seconds",
				Help:    "HTTP API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
	}
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ExecutionStarted tracks an execution entering the sandbox
func (m *Metrics) ExecutionStarted() {
	if m == nil {
		return
	}
	m.ExecutionsActive.Inc()
}

// RecordExecution records a finished execution
func (m *Metrics) RecordExecution(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ExecutionsActive.Dec()
	m.ExecutionsTotal.WithLabelValues(status).Inc()
	m.ExecutionDuration.Observe(duration.Seconds())
}

// RecordCapabilityCall records one host capability call
func (m *Metrics) RecordCapabilityCall(capability, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CapabilityCalls.WithLabelValues(capability, status).Inc()
	m.CapabilityDuration.WithLabelValues(capability).Observe(duration.Seconds())
}

// RecordDelegation records one delegated task
func (m *Metrics) RecordDelegation(status string) {
	if m == nil {
		return
	}
	m.Delegations.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

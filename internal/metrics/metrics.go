// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mashinman"

// Metrics holds Prometheus metrics for the API
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	UrgencyEvaluations *prometheus.CounterVec
	EmergencyMatches   prometheus.Histogram
	EmergencyRequests  *prometheus.CounterVec
	RemindersPublished *prometheus.CounterVec
	ServicesCompleted  prometheus.Counter
}

// New registers the API collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		UrgencyEvaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "maintenance",
				Name:      "urgency_evaluations_total",
				Help:      "Service urgency evaluations by resulting level",
			},
			[]string{"urgency"},
		),
		EmergencyMatches: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "emergency",
				Name:      "matched_providers",
				Help:      "Number of providers matched per SOS request",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		EmergencyRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "emergency",
				Name:      "requests_total",
				Help:      "SOS requests by emergency type",
			},
			[]string{"type"},
		),
		RemindersPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reminder",
				Name:      "published_total",
				Help:      "Service reminders by urgency and outcome",
			},
			[]string{"urgency", "outcome"},
		),
		ServicesCompleted: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "maintenance",
				Name:      "services_completed_total",
				Help:      "Services marked as completed",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveUrgency counts one evaluation at the given level.
func (m *Metrics) ObserveUrgency(level string) {
	if m == nil {
		return
	}
	m.UrgencyEvaluations.WithLabelValues(level).Inc()
}

// ObserveMatch records an SOS request and how many providers it matched.
func (m *Metrics) ObserveMatch(emergencyType string, matched int) {
	if m == nil {
		return
	}
	m.EmergencyRequests.WithLabelValues(emergencyType).Inc()
	m.EmergencyMatches.Observe(float64(matched))
}

// ObserveReminder counts a reminder publish attempt.
func (m *Metrics) ObserveReminder(level string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RemindersPublished.WithLabelValues(level, outcome).Inc()
}

// ObserveCompletion counts a completed service.
func (m *Metrics) ObserveCompletion() {
	if m == nil {
		return
	}
	m.ServicesCompleted.Inc()
}

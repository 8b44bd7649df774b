package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the tracker. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ItemsCreated    prometheus.Counter
	Transitions     *prometheus.CounterVec
	StatusOverrides *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a registry and registers all collectors on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ItemsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ewastetrack_items_created_total",
			Help: "Total number of e-waste items reported",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ewastetrack_transitions_total",
			Help: "Role-gated transition attempts by role and outcome",
		}, []string{"role", "outcome"}),
		StatusOverrides: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ewastetrack_status_overrides_total",
			Help: "Administrative status sets by target status and outcome",
		}, []string{"status", "outcome"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ewastetrack_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status code",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "code"}),
	}
}

// IncItemsCreated counts a newly reported item.
func (m *Metrics) IncItemsCreated() {
	if m != nil {
		m.ItemsCreated.Inc()
	}
}

// IncTransition records the outcome of a role-gated transition attempt.
func (m *Metrics) IncTransition(role, outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(role, outcome).Inc()
	}
}

// IncStatusOverride records the outcome of an administrative status set.
func (m *Metrics) IncStatusOverride(status, outcome string) {
	if m != nil {
		m.StatusOverrides.WithLabelValues(status, outcome).Inc()
	}
}

// ObserveRequest records the duration of one HTTP request.
func (m *Metrics) ObserveRequest(method string, code int, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, strconv.Itoa(code)).Observe(d.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

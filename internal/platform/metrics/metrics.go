package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Teardowns       *prometheus.CounterVec
	Logins          *prometheus.CounterVec
}

// New creates and registers all client metrics with reg.
// Pass prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_client_requests_total",
			Help: "Backend calls by HTTP method and classified outcome",
		}, []string{"method", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coursehub_client_request_duration_seconds",
			Help:    "Latency of backend calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		Teardowns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_session_teardowns_total",
			Help: "Session teardowns by reason",
		}, []string{"reason"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_auth_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
	}
}

// ObserveRequest records one completed backend call.
func (m *Metrics) ObserveRequest(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, outcome).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// IncrementTeardowns counts a session teardown.
func (m *Metrics) IncrementTeardowns(reason string) {
	if m == nil {
		return
	}
	m.Teardowns.WithLabelValues(reason).Inc()
}

// IncrementLogins counts a login attempt.
func (m *Metrics) IncrementLogins(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

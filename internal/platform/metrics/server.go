package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Server holds the stub backend's metrics. A nil *Server records nothing.
type Server struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPLatency   *prometheus.HistogramVec
	LoginAttempts *prometheus.CounterVec
	Revocations   prometheus.Counter
}

// NewServer creates and registers the stub backend metrics with reg.
func NewServer(reg prometheus.Registerer) *Server {
	factory := promauto.With(reg)
	return &Server{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_stub_http_requests_total",
			Help: "Requests served by route pattern and status",
		}, []string{"route", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coursehub_stub_http_request_duration_seconds",
			Help:    "Latency of served requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_stub_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		Revocations: factory.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_stub_token_revocations_total",
			Help: "Tokens revoked by logout",
		}),
	}
}

// ObserveHTTP records one served request.
func (m *Server) ObserveHTTP(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Server) IncrementLoginAttempts(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Server) IncrementRevocations() {
	if m == nil {
		return
	}
	m.Revocations.Inc()
}

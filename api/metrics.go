package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/raushankrgupta/fitly-api/models"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitly_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		// No status label, to keep histogram cardinality low.
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fitly_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitly_fit_transitions_total",
				Help: "Fit jobs entering each status, by generation mode.",
			},
			[]string{"mode", "status"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.transitions)
	return m
}

// observeRequest records one finished request. route is the matched
// route pattern, or "unmatched".
func (m *Metrics) observeRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) fitTransition(mode models.FitMode, status models.FitStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(mode), string(status)).Inc()
}

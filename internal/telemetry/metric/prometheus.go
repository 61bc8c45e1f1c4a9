package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "timi"

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeRecovered = "recovered"
	OutcomeError     = "error"
)

// Registry holds all application metrics.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	// Session metrics
	Transitions   *prometheus.CounterVec
	Recoveries    *prometheus.CounterVec
	Authenticated prometheus.Gauge

	// Route metrics
	RouteDecisions *prometheus.CounterVec

	// Backend metrics
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
}

// NewRegistry creates the metrics on a fresh Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session controller operations by outcome",
		}, []string{"op", "outcome"}),
		Recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "recoveries_total",
			Help:      "Stored sessions discarded during recovery, by error code",
		}, []string{"code"}),
		Authenticated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "authenticated",
			Help:      "1 when a user is signed in, 0 otherwise",
		}),
		RouteDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "decisions_total",
			Help:      "Route guard decisions by action and reason",
		}, []string{"action", "reason"}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend HTTP requests by endpoint and status code",
		}, []string{"endpoint", "code"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	r.reg.MustRegister(
		r.Transitions,
		r.Recoveries,
		r.Authenticated,
		r.RouteDecisions,
		r.BackendRequests,
		r.BackendDuration,
		collectors.NewGoCollector(),
	)
	return r
}

// Prometheus returns the underlying registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.reg.MustRegister(cs...)
}

// ObserveTransition counts a session controller operation.
func (r *Registry) ObserveTransition(op, outcome string, loggedIn bool) {
	if r == nil {
		return
	}
	r.Transitions.WithLabelValues(op, outcome).Inc()
	if loggedIn {
		r.Authenticated.Set(1)
	} else {
		r.Authenticated.Set(0)
	}
}

// ObserveRecovery counts a discarded stored session.
func (r *Registry) ObserveRecovery(code string) {
	if r == nil {
		return
	}
	r.Recoveries.WithLabelValues(code).Inc()
}

// ObserveDecision counts a route guard decision.
func (r *Registry) ObserveDecision(action, reason string) {
	if r == nil {
		return
	}
	r.RouteDecisions.WithLabelValues(action, reason).Inc()
}

// ObserveBackend records a backend request. Status 0 means a transport error.
func (r *Registry) ObserveBackend(endpoint string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.BackendRequests.WithLabelValues(endpoint, code).Inc()
	r.BackendDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// WriteToTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector.
func (r *Registry) WriteToTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}

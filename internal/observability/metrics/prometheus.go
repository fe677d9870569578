// Package metrics exposes session, guard and HTTP metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/service"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "viveconecta"

var _ service.SessionMetrics = (*Recorder)(nil)

// Options configures a Recorder.
type Options struct {
	Namespace string
	// Registry defaults to a fresh registry so tests never share state.
	Registry *prometheus.Registry
	// RuntimeCollectors adds the Go and process collectors.
	RuntimeCollectors bool
}

// Recorder owns the application collectors. It is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry
	ns       string

	sessionOps      *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
	guardDecisions  *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New(opts Options) *Recorder {
	ns := opts.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Recorder{
		registry: reg,
		ns:       ns,
		sessionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Session manager operations by outcome.",
		}, []string{"op", "outcome"}),
		sessionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "session",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in session manager operations, including backend latency.",
			Buckets:   []float64{.005, .025, .1, .25, .5, 1, 1.5, 2.5, 5, 10},
		}, []string{"op"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Route guard decisions for protected pages.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(r.sessionOps, r.sessionDuration, r.guardDecisions, r.httpRequests, r.httpDuration)
	if opts.RuntimeCollectors {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// RecordSessionEvent implements service.SessionMetrics.
func (r *Recorder) RecordSessionEvent(e service.SessionEvent) {
	r.sessionOps.WithLabelValues(string(e.Op), string(e.Outcome)).Inc()
	if e.Duration > 0 {
		r.sessionDuration.WithLabelValues(string(e.Op)).Observe(e.Duration.Seconds())
	}
}

// RecordGuardDecision counts one guard outcome.
func (r *Recorder) RecordGuardDecision(o guard.Outcome) {
	r.guardDecisions.WithLabelValues(o.String()).Inc()
}

// ObserveHTTP records a finished request. route should be the mux pattern, not the raw path.
func (r *Recorder) ObserveHTTP(method, route string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RegisterClients exposes the client registry size and eviction count.
func (r *Recorder) RegisterClients(stats func() service.LRUStats) {
	r.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: r.ns,
			Subsystem: "clients",
			Name:      "active",
			Help:      "Session managers currently held in memory.",
		}, func() float64 { return float64(stats().Size) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: r.ns,
			Subsystem: "clients",
			Name:      "evictions_total",
			Help:      "Session managers evicted for capacity.",
		}, func() float64 { return float64(stats().Evictions) }),
	)
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

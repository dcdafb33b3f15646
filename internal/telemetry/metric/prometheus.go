package metric

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "sdncli"

// Registry holds all CLI metrics on a private prometheus registry so that
// nothing leaks into the process-wide default one.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimitWait   prometheus.Histogram

	// Auth metrics
	AuthTotal   *prometheus.CounterVec
	AuthRetries prometheus.Counter

	// Name resolution metrics
	ResolveTotal *prometheus.CounterVec
}

// NewRegistry creates a registry with every metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "API requests sent, by method and HTTP status.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "API round trip latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting on the client side rate limiter.",
			Buckets:   prometheus.DefBuckets,
		}),
		AuthTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_total",
			Help:      "Token acquisitions, by auth version and result.",
		}, []string{"version", "result"}),
		AuthRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_retries_total",
			Help:      "Requests resent after a 401 with a fresh token.",
		}),
		ResolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Name to id resolutions, by outcome.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.RateLimitWait,
		r.AuthTotal,
		r.AuthRetries,
		r.ResolveTotal,
	)

	return r
}

var (
	globalRegistry *Registry
	globalOnce     sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveRequest records one HTTP round trip. A zero status means the
// request never got a response.
func (r *Registry) ObserveRequest(method string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.RequestsTotal.WithLabelValues(method, code).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveRateLimitWait records time spent blocked on the limiter.
func (r *Registry) ObserveRateLimitWait(d time.Duration) {
	r.RateLimitWait.Observe(d.Seconds())
}

// ObserveAuth records a token acquisition attempt.
func (r *Registry) ObserveAuth(version string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	r.AuthTotal.WithLabelValues(version, result).Inc()
}

// IncAuthRetry records a request resent after re-authentication.
func (r *Registry) IncAuthRetry() {
	r.AuthRetries.Inc()
}

// ObserveResolve records a name resolution outcome
// (direct, unique, chosen, not_found, failed).
func (r *Registry) ObserveResolve(result string) {
	r.ResolveTotal.WithLabelValues(result).Inc()
}

// WriteTextfile dumps the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

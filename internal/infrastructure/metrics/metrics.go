// Package metrics exposes Prometheus metrics for the pipeline and the HTTP API.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/pipeline"
)

// Recorder owns a private registry. It observes pipeline transitions and
// HTTP requests.
type Recorder struct {
	registry        *prometheus.Registry
	handler         http.Handler
	transitions     *prometheus.CounterVec
	failures        *prometheus.CounterVec
	panics          *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_transitions_total",
		Help: "Applied document status transitions.",
	}, []string{"document", "from", "to"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_orchestration_failures_total",
		Help: "Multi-step operations rolled back.",
	}, []string{"operation"})
	panics := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_http_panics_total",
		Help: "Handler panics recovered, by route.",
	}, []string{"route"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderflow_http_request_duration_seconds",
		Help:    "HTTP request duration by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "code"})

	registry.MustRegister(
		transitions,
		failures,
		panics,
		duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Recorder{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		transitions:     transitions,
		failures:        failures,
		panics:          panics,
		requestDuration: duration,
	}
}

func (r *Recorder) Transitioned(_ context.Context, t documents.Transition) {
	r.transitions.WithLabelValues(t.Document, t.From, t.To).Inc()
}

func (r *Recorder) OrchestrationFailed(_ context.Context, operation string, _ error) {
	r.failures.WithLabelValues(operation).Inc()
}

// Panicked counts a recovered handler panic.
func (r *Recorder) Panicked(route string) {
	r.panics.WithLabelValues(route).Inc()
}

// Registerer exposes the registry for extra collectors (pool gauges).
func (r *Recorder) Registerer() prometheus.Registerer {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() gin.HandlerFunc {
	return gin.WrapH(r.handler)
}

// Middleware observes request durations. Unmatched routes are labelled
// "unknown" to keep cardinality bounded.
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		r.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// PoolStats is a snapshot of database pool usage.
type PoolStats struct {
	Total    int32
	Acquired int32
	Idle     int32
	Max      int32
}

// RegisterPool exports gauges read from stats at scrape time.
func (r *Recorder) RegisterPool(stats func() PoolStats) {
	gauge := func(name, help string, pick func(PoolStats) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(pick(stats()))
		})
	}
	r.registry.MustRegister(
		gauge("orderflow_db_pool_connections", "Open database connections.", func(s PoolStats) int32 { return s.Total }),
		gauge("orderflow_db_pool_acquired_connections", "Database connections in use.", func(s PoolStats) int32 { return s.Acquired }),
		gauge("orderflow_db_pool_idle_connections", "Idle database connections.", func(s PoolStats) int32 { return s.Idle }),
		gauge("orderflow_db_pool_max_connections", "Configured pool size.", func(s PoolStats) int32 { return s.Max }),
	)
}

var _ pipeline.Observer = (*Recorder)(nil)

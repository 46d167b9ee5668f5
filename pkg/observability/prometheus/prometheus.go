// Package prometheus exports observability hooks as Prometheus metrics.
package prometheus

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/bedplan/pkg/observability"
)

const namespace = "bedplan"

// Metrics implements every observability hook interface.
type Metrics struct {
	plans          *prometheus.CounterVec
	planDuration   prometheus.Histogram
	plantsPlaced   prometheus.Counter
	plantsUnplaced prometheus.Counter

	decompositions    *prometheus.CounterVec
	decomposeDuration prometheus.Histogram
	incompleteRegions prometheus.Counter

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "plans_total",
			Help: "Planning runs by outcome.",
		}, []string{"outcome"}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "plan_duration_seconds",
			Help:    "Duration of planning runs.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		plantsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "plants_placed_total",
			Help: "Plants that received cells.",
		}),
		plantsUnplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "plants_unplaced_total",
			Help: "Plants that could not be placed.",
		}),
		decompositions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "decompositions_total",
			Help: "Specimen decomposition runs by outcome.",
		}, []string{"outcome"}),
		decomposeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "decompose_duration_seconds",
			Help:    "Duration of decomposition runs.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		incompleteRegions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "incomplete_regions_total",
			Help: "Regions with cells no specimen could claim.",
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_operations_total",
			Help: "Cache lookups and writes by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.plans, m.planDuration, m.plantsPlaced, m.plantsUnplaced,
		m.decompositions, m.decomposeDuration, m.incompleteRegions,
		m.cacheOps, m.cacheBytes,
		m.requests, m.requestDuration,
	)
	return m
}

// Register installs m as the global pipeline, cache and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnPlanStart implements observability.PipelineHooks.
func (m *Metrics) OnPlanStart(context.Context, int, int) {}

// OnPlanComplete implements observability.PipelineHooks.
func (m *Metrics) OnPlanComplete(_ context.Context, placed, unplaced int, d time.Duration, err error) {
	m.plans.WithLabelValues(outcome(err)).Inc()
	m.planDuration.Observe(d.Seconds())
	m.plantsPlaced.Add(float64(placed))
	m.plantsUnplaced.Add(float64(unplaced))
}

// OnDecomposeStart implements observability.PipelineHooks.
func (m *Metrics) OnDecomposeStart(context.Context, int) {}

// OnDecomposeComplete implements observability.PipelineHooks.
func (m *Metrics) OnDecomposeComplete(_ context.Context, _, incomplete int, d time.Duration, err error) {
	m.decompositions.WithLabelValues(outcome(err)).Inc()
	m.decomposeDuration.Observe(d.Seconds())
	m.incompleteRegions.Add(float64(incomplete))
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string) {}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

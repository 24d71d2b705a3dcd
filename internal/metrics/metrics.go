// Package metrics exports railsim events as Prometheus metrics.
//
// [Hooks] implements every hook interface of the observability package;
// register it at startup and serve the registry on /metrics:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	observability.SetSchedulerHooks(m)
//	observability.SetPipelineHooks(m)
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/railsim/pkg/observability"
)

const namespace = "railsim"

// Hooks records pipeline, scheduler, cache and HTTP events.
type Hooks struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	schedules    *prometheus.CounterVec
	workers      prometheus.Gauge
	activeNodes  prometheus.Gauge
	nodes        *prometheus.CounterVec
	nodeDuration prometheus.Histogram

	cacheRequests *prometheus.CounterVec
	cacheBytes    prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inflight        prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	return &Hooks{
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Dependency graphs built from scenarios.",
		}, []string{"status"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time to build and validate a dependency graph.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Simulation runs by mode and outcome.",
		}, []string{"mode", "status"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Simulation run duration.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"mode"}),
		schedules: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduler runs by outcome.",
		}, []string{"status"}),
		workers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "workers",
			Help:      "Workers of the most recent scheduler run.",
		}),
		activeNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "active_nodes",
			Help:      "Nodes currently being computed.",
		}),
		nodes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "nodes_total",
			Help:      "Node computations by outcome.",
		}, []string{"status"}),
		nodeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "node_duration_seconds",
			Help:      "Duration of a single node computation.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		cacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by entry kind and result.",
		}, []string{"kind", "result"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the result cache.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Requests being served.",
		}),
	}
}

// Register installs h as the hooks of every observability category.
func (h *Hooks) Register() {
	observability.SetPipelineHooks(h)
	observability.SetSchedulerHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *Hooks) OnBuildStart(context.Context, string) {}

func (h *Hooks) OnBuildComplete(_ context.Context, _ string, _, _ int, d time.Duration, err error) {
	h.builds.WithLabelValues(status(err)).Inc()
	h.buildDuration.Observe(d.Seconds())
}

func (h *Hooks) OnRunStart(context.Context, string, string) {}

func (h *Hooks) OnRunComplete(_ context.Context, _, mode string, d time.Duration, err error) {
	h.runs.WithLabelValues(mode, status(err)).Inc()
	h.runDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (h *Hooks) OnScheduleStart(_ context.Context, _, workers int) {
	h.workers.Set(float64(workers))
}

func (h *Hooks) OnNodeStart(context.Context, uint32) {
	h.activeNodes.Inc()
}

func (h *Hooks) OnNodeComplete(_ context.Context, _ uint32, d time.Duration, err error) {
	h.activeNodes.Dec()
	h.nodes.WithLabelValues(status(err)).Inc()
	h.nodeDuration.Observe(d.Seconds())
}

func (h *Hooks) OnScheduleComplete(_ context.Context, _ int, _ time.Duration, err error) {
	h.schedules.WithLabelValues(status(err)).Inc()
}

func (h *Hooks) OnCacheHit(_ context.Context, kind string) {
	h.cacheRequests.WithLabelValues(kind, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, kind string) {
	h.cacheRequests.WithLabelValues(kind, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, _ string, size int) {
	h.cacheBytes.Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string) {
	h.inflight.Inc()
}

func (h *Hooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.inflight.Dec()
	h.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks  = (*Hooks)(nil)
	_ observability.SchedulerHooks = (*Hooks)(nil)
	_ observability.CacheHooks     = (*Hooks)(nil)
	_ observability.HTTPHooks      = (*Hooks)(nil)
)

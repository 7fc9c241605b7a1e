// Package metrics implements the observability hooks with Prometheus
// collectors.
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	m.Install()
//	http.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/galaster/pkg/observability"
)

const namespace = "galaster"

// Metrics holds the collectors of one registry. It implements every hook
// interface of the observability package.
type Metrics struct {
	tickDuration  prometheus.Histogram
	maxAccel      prometheus.Gauge
	timestep      prometheus.Gauge
	ticksTotal    prometheus.Counter
	ticksPerFrame prometheus.Histogram
	engineRunning prometheus.Gauge

	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	layerVertices    *prometheus.GaugeVec
	layerEdges       *prometheus.GaugeVec

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	sessions      prometheus.Gauge
	streamedTotal prometheus.Counter
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_tick_duration_seconds",
			Help:      "Wall-clock duration of one layout pass over all layers",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14), // 50us to ~400ms
		}),
		maxAccel: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_max_acceleration",
			Help:      "Largest acceleration magnitude in the finest layer after the last tick",
		}),
		timestep: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_timestep",
			Help:      "Timestep used by the last tick",
		}),
		ticksTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_ticks_total",
			Help:      "Total layout passes",
		}),
		ticksPerFrame: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_ticks_per_frame",
			Help:      "Layout passes completed within one frame",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		}),
		engineRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_running",
			Help:      "1 while the layout loop is running",
		}),
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutations_total",
			Help:      "Topology changes by operation and result",
		}, []string{"op", "result"}),
		mutationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_mutation_duration_seconds",
			Help:      "Time spent holding the writer lock per mutation",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10), // 1us to ~260ms
		}, []string{"op"}),
		layerVertices: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layer_vertices",
			Help:      "Vertices per layer",
		}, []string{"level"}),
		layerEdges: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layer_edges",
			Help:      "Distinct edges per layer",
		}, []string{"level"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and outcome",
		}, []string{"key_type", "outcome"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_sessions",
			Help:      "Open websocket stream sessions",
		}),
		streamedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_frames_total",
			Help:      "Snapshots delivered over closed websocket sessions",
		}),
	}
}

// Install registers m as the global hook implementation for every category.
func (m *Metrics) Install() {
	observability.SetLayoutHooks(m)
	observability.SetGraphHooks(m)
	observability.SetCacheHooks(m)
	observability.SetStreamHooks(m)
}

func (m *Metrics) OnTick(_ context.Context, dt, maxAccel float64, d time.Duration) {
	m.tickDuration.Observe(d.Seconds())
	m.maxAccel.Set(maxAccel)
	m.timestep.Set(dt)
	m.ticksTotal.Inc()
}

func (m *Metrics) OnFrame(_ context.Context, ticks int, _ time.Duration) {
	m.ticksPerFrame.Observe(float64(ticks))
}

func (m *Metrics) OnEngineStart(context.Context, int) { m.engineRunning.Set(1) }

func (m *Metrics) OnEngineStop(context.Context, uint64) { m.engineRunning.Set(0) }

func (m *Metrics) OnMutation(_ context.Context, op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mutations.WithLabelValues(op, result).Inc()
	m.mutationDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) OnSize(_ context.Context, level, vertices, edges int) {
	l := strconv.Itoa(level)
	m.layerVertices.WithLabelValues(l).Set(float64(vertices))
	m.layerEdges.WithLabelValues(l).Set(float64(edges))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnSessionOpen(context.Context, string) { m.sessions.Inc() }

func (m *Metrics) OnSessionClose(_ context.Context, _ string, frames int, _ error) {
	m.sessions.Dec()
	m.streamedTotal.Add(float64(frames))
}

var (
	_ observability.LayoutHooks = (*Metrics)(nil)
	_ observability.GraphHooks  = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.StreamHooks = (*Metrics)(nil)
)

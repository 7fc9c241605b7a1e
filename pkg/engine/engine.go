// Package engine runs the layout loop of a graph on a dedicated goroutine.
//
// Each frame runs layout ticks until the configured cadence has elapsed since
// the frame began, then pauses briefly so writers waiting for the graph lock
// get a chance to run. The timestep adapts to the largest acceleration of the
// previous tick:
//
//	dt = clamp(ln(maxAccel), base, 2*base)
//
// so a graph that is still far from equilibrium advances in larger steps.
package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/galaster/pkg/config"
	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/errors"
	"github.com/matzehuels/galaster/pkg/graph"
	"github.com/matzehuels/galaster/pkg/observability"
)

// statsInterval is how often a running loop logs its progress.
const statsInterval = 5 * time.Second

// Engine drives the layout of one graph.
type Engine struct {
	g       *graph.Graph
	base    float64
	cadence time.Duration
	pause   time.Duration
	logger  *log.Logger

	mu      sync.Mutex // serializes Start and Stop
	stop    atomic.Bool
	done    chan struct{}
	running atomic.Bool

	ticks    atomic.Uint64
	frames   atomic.Uint64
	dt       atomic.Uint64 // float64 bits
	maxAccel atomic.Uint64 // float64 bits
	lastRate atomic.Uint64 // float64 bits, ticks per second of the last frame
}

// Stats is a point-in-time view of a running engine.
type Stats struct {
	Running        bool    `json:"running"`
	Ticks          uint64  `json:"ticks"`
	Frames         uint64  `json:"frames"`
	DT             float64 `json:"dt"`
	MaxAccel       float64 `json:"max_accel"`
	TicksPerSecond float64 `json:"ticks_per_second"`
}

// New creates a stopped engine for g.
func New(g *graph.Graph, cfg config.EngineConfig, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		g:       g,
		base:    cfg.DT,
		cadence: cfg.Cadence.Duration,
		pause:   cfg.Pause.Duration,
		logger:  logger,
	}
	e.dt.Store(math.Float64bits(cfg.DT))
	return e
}

// Timestep returns the adaptive step for the given acceleration.
func Timestep(maxAccel, base float64) float64 {
	dt := math.Log(maxAccel)
	if math.IsNaN(dt) || dt < base {
		return base
	}
	return math.Min(dt, 2*base)
}

// Step runs one layout tick and returns the largest acceleration of the
// finest layer.
func (e *Engine) Step(ctx context.Context) float64 {
	dt := math.Float64frombits(e.dt.Load())
	start := time.Now()
	maxAccel := e.g.Layout(dt)
	observability.Layout().OnTick(ctx, dt, maxAccel, time.Since(start))

	e.ticks.Add(1)
	e.maxAccel.Store(math.Float64bits(maxAccel))
	e.dt.Store(math.Float64bits(Timestep(maxAccel, e.base)))
	return maxAccel
}

// Run performs n ticks on the calling goroutine. It returns early with the
// context's error when ctx is cancelled.
func (e *Engine) Run(ctx context.Context, n int) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.Step(ctx)
	}
	return nil
}

// Start launches the layout loop. The loop runs until [Engine.Stop] is called
// or ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running.Load() {
		return errors.New(errors.ErrCodeRunning, "layout loop already running")
	}
	e.stop.Store(false)
	e.done = make(chan struct{})
	e.running.Store(true)

	vertices := 0
	e.g.View(func(l *multilevel.Layer) { vertices = l.NumVertices() })
	observability.Layout().OnEngineStart(ctx, vertices)
	e.logger.Info("layout started", "vertices", vertices, "cadence", e.cadence)

	go e.loop(ctx, e.done)
	return nil
}

// Stop sets the shutdown flag and waits for the loop to exit. Stopping an
// engine that is not running is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done == nil {
		return
	}
	e.stop.Store(true)
	<-e.done
	e.done = nil
}

// Wait blocks until the loop exits on its own or through Stop.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Stats returns the counters of the engine.
func (e *Engine) Stats() Stats {
	return Stats{
		Running:        e.running.Load(),
		Ticks:          e.ticks.Load(),
		Frames:         e.frames.Load(),
		DT:             math.Float64frombits(e.dt.Load()),
		MaxAccel:       math.Float64frombits(e.maxAccel.Load()),
		TicksPerSecond: math.Float64frombits(e.lastRate.Load()),
	}
}

func (e *Engine) stopped(ctx context.Context) bool {
	return e.stop.Load() || ctx.Err() != nil
}

func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		e.running.Store(false)
		ticks := e.ticks.Load()
		observability.Layout().OnEngineStop(context.WithoutCancel(ctx), ticks)
		e.logger.Info("layout stopped", "ticks", ticks, "frames", e.frames.Load())
	}()

	lastLog := time.Now()
	for !e.stopped(ctx) {
		frameStart := time.Now()
		n := 0
		for time.Since(frameStart) < e.cadence && !e.stopped(ctx) {
			e.Step(ctx)
			n++
		}
		elapsed := time.Since(frameStart)
		e.frames.Add(1)
		if elapsed > 0 {
			e.lastRate.Store(math.Float64bits(float64(n) / elapsed.Seconds()))
		}
		observability.Layout().OnFrame(ctx, n, elapsed)

		if time.Since(lastLog) >= statsInterval {
			s := e.Stats()
			e.logger.Debug("layout running", "ticks", s.Ticks, "tps", int(s.TicksPerSecond), "dt", s.DT, "max_accel", s.MaxAccel)
			lastLog = time.Now()
		}
		if e.pause > 0 {
			time.Sleep(e.pause)
		}
	}
}

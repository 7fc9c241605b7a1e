package engine

import (
	"context"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/galaster/pkg/config"
	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/errors"
	"github.com/matzehuels/galaster/pkg/graph"
	"github.com/matzehuels/galaster/pkg/observability"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Layout.Layers = 2
	cfg.Engine.Cadence = config.Duration{Duration: 2 * time.Millisecond}
	logger := log.New(io.Discard)

	g, err := graph.New(cfg, logger)
	require.NoError(t, err)
	a, _ := g.AddVertex(vec.New(-1, 0, 0))
	b, _ := g.AddVertex(vec.New(1, 0, 0))
	c, _ := g.AddVertex(vec.New(0, 1, 0))
	_, err = g.AddEdge(a, b, multilevel.EdgeOptions{})
	require.NoError(t, err)
	_, err = g.AddEdge(b, c, multilevel.EdgeOptions{})
	require.NoError(t, err)

	return New(g, cfg.Engine, logger)
}

func TestTimestep(t *testing.T) {
	tests := []struct {
		maxAccel float64
		want     float64
	}{
		{0, 1},
		{1, 1},
		{math.E, 1},
		{math.Exp(1.5), 1.5},
		{1e9, 2},
		{math.NaN(), 1},
	}
	for _, tt := range tests {
		got := Timestep(tt.maxAccel, 1)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Timestep(%v, 1) = %v, want %v", tt.maxAccel, got, tt.want)
		}
	}
}

func TestRun(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.Run(context.Background(), 25))

	s := e.Stats()
	require.EqualValues(t, 25, s.Ticks)
	require.False(t, s.Running)
	require.GreaterOrEqual(t, s.DT, 1.0)
	require.LessOrEqual(t, s.DT, 2.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.Run(ctx, 10), context.Canceled)
	require.EqualValues(t, 25, e.Stats().Ticks)
}

func TestStartStop(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Start(ctx))
	require.True(t, e.Running())
	err := e.Start(ctx)
	require.True(t, errors.Is(err, errors.ErrCodeRunning), "err = %v", err)

	require.Eventually(t, func() bool { return e.Stats().Frames >= 3 }, 2*time.Second, time.Millisecond)
	e.Stop()
	require.False(t, e.Running())

	ticks := e.Stats().Ticks
	require.Positive(t, ticks)
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, ticks, e.Stats().Ticks, "no ticks after Stop returns")

	e.Stop()
	require.NoError(t, e.Start(ctx), "engine should restart")
	e.Stop()
}

func TestContextCancelStopsLoop(t *testing.T) {
	e := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after cancel")
	}
	require.False(t, e.Running())
}

type countingHooks struct {
	observability.NoopLayoutHooks
	starts, stops, ticks atomic.Int64
}

func (c *countingHooks) OnTick(context.Context, float64, float64, time.Duration) { c.ticks.Add(1) }
func (c *countingHooks) OnEngineStart(context.Context, int)                      { c.starts.Add(1) }
func (c *countingHooks) OnEngineStop(context.Context, uint64)                    { c.stops.Add(1) }

func TestHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	e := newEngine(t)
	require.NoError(t, e.Start(context.Background()))
	require.Eventually(t, func() bool { return hooks.ticks.Load() > 0 }, 2*time.Second, time.Millisecond)
	e.Stop()

	require.EqualValues(t, 1, hooks.starts.Load())
	require.EqualValues(t, 1, hooks.stops.Load())
	require.EqualValues(t, e.Stats().Ticks, hooks.ticks.Load())
}

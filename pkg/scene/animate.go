package scene

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/graph"
)

// Step is one mutation of an animated sequence.
type Step func(g *graph.Graph) error

// Animate replays steps on a new goroutine, one every interval, while the
// layout loop keeps running. The returned channel yields the first error, or
// nil once every step ran, and is then closed. Cancelling ctx stops the
// sequence with the context's error.
func Animate(ctx context.Context, g *graph.Graph, steps []Step, interval time.Duration) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		if interval <= 0 {
			interval = time.Nanosecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for _, step := range steps {
			if err := step(g); err != nil {
				done <- err
				return
			}
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case <-ticker.C:
			}
		}
		done <- nil
	}()
	return done
}

// ChurnStats counts the operations of a [Churn] run.
type ChurnStats struct {
	Added   int
	Removed int
	Skipped int
}

// Churn applies ops random edge mutations to the vertices in ids. Each
// operation picks two vertices at random, self-loops included, and with equal
// probability either adds an edge between them or removes one of their shared
// edges; a removal between unconnected vertices is skipped. check, if not nil,
// runs after every operation and aborts the run on error.
func Churn(g *graph.Graph, rng *rand.Rand, ids []multilevel.VertexID, ops int, check func(op int) error) (ChurnStats, error) {
	var stats ChurnStats
	if len(ids) == 0 {
		return stats, nil
	}
	for op := range ops {
		a, b := ids[rng.IntN(len(ids))], ids[rng.IntN(len(ids))]
		if rng.IntN(2) == 1 {
			if _, err := g.AddEdge(a, b, multilevel.EdgeOptions{}); err != nil {
				return stats, err
			}
			stats.Added++
		} else if e, ok := g.SharedEdge(a, b); ok {
			if err := g.RemoveEdge(e); err != nil {
				return stats, err
			}
			stats.Removed++
		} else {
			stats.Skipped++
		}
		if check != nil {
			if err := check(op); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

// Teardown removes every edge of the finest layer one unit at a time and then
// every vertex, calling check after each removal.
func Teardown(g *graph.Graph, check func() error) error {
	for {
		snap := g.Snapshot()
		if len(snap.Edges) == 0 {
			break
		}
		if err := g.RemoveEdge(snap.Edges[0].ID); err != nil {
			return err
		}
		if check != nil {
			if err := check(); err != nil {
				return err
			}
		}
	}
	for _, v := range g.Snapshot().Vertices {
		if err := g.RemoveVertex(v.ID); err != nil {
			return err
		}
		if check != nil {
			if err := check(); err != nil {
				return err
			}
		}
	}
	return nil
}

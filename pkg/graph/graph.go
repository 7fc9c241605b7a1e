package graph

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/galaster/pkg/config"
	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/errors"
	"github.com/matzehuels/galaster/pkg/observability"
)

// BoundsSeed is the half-extent of the smallest bounding box reported by
// [Graph.BoundingBox].
const BoundsSeed = 10

// Graph is a multilevel layer stack guarded by one reader/writer lock.
type Graph struct {
	mu     sync.RWMutex
	layers []*multilevel.Layer
	rng    *rand.Rand
	closed bool
	broken error // first panic of a mutation; the layers can no longer be trusted
	logger *log.Logger
}

// New builds a stack of cfg.Layout.Layers layers with the physical constants
// of cfg. The random source used by [Graph.Randomize] is seeded from
// cfg.Scene.Seed.
func New(cfg config.Config, logger *log.Logger) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	seed := cfg.Scene.Seed
	return &Graph{
		layers: multilevel.NewStack(cfg.Layout.Layers, cfg.Params()),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger: logger,
	}, nil
}

// NumLayers returns the depth of the stack.
func (g *Graph) NumLayers() int {
	return len(g.layers)
}

// =============================================================================
// Mutations
// =============================================================================

// AddVertex inserts a visible vertex at x and returns its handle.
func (g *Graph) AddVertex(x vec.Vec3) (multilevel.VertexID, error) {
	var id multilevel.VertexID
	err := g.mutate("add_vertex", func(finest *multilevel.Layer) error {
		if err := errors.ValidateCoordinates(x.X, x.Y, x.Z); err != nil {
			return err
		}
		id = finest.AddVertex(x).ID
		g.logger.Debug("vertex added", "id", id, "pos", x)
		return nil
	})
	return id, err
}

// RemoveVertex removes a vertex together with all its edges.
func (g *Graph) RemoveVertex(id multilevel.VertexID) error {
	return g.mutate("remove_vertex", func(finest *multilevel.Layer) error {
		v, err := vertex(finest, id)
		if err != nil {
			return err
		}
		degree := v.Degree()
		finest.RemoveVertex(id)
		g.logger.Debug("vertex removed", "id", id, "edges", degree)
		return nil
	})
}

// SetVisible shows or hides a vertex. Hidden vertices keep taking part in the
// layout but are left out of the bounding box.
func (g *Graph) SetVisible(id multilevel.VertexID, visible bool) error {
	return g.mutate("set_visible", func(finest *multilevel.Layer) error {
		v, err := vertex(finest, id)
		if err != nil {
			return err
		}
		v.Visible = visible
		return nil
	})
}

// AddEdge connects a and b. For refcounted edges the returned handle may name
// an existing edge whose multiplicity was raised; removing it once undoes one
// insertion.
func (g *Graph) AddEdge(a, b multilevel.VertexID, opts multilevel.EdgeOptions) (multilevel.EdgeID, error) {
	var id multilevel.EdgeID
	err := g.mutate("add_edge", func(finest *multilevel.Layer) error {
		if err := errors.ValidateStrength(opts.Strength); err != nil {
			return err
		}
		if _, err := vertex(finest, a); err != nil {
			return err
		}
		if _, err := vertex(finest, b); err != nil {
			return err
		}
		e := finest.AddEdge(a, b, opts)
		id = e.ID
		g.logger.Debug("edge added", "id", id, "from", a, "to", b, "count", e.Cnt)
		return nil
	})
	return id, err
}

// RemoveEdge removes one unit of multiplicity from an edge.
func (g *Graph) RemoveEdge(id multilevel.EdgeID) error {
	return g.mutate("remove_edge", func(finest *multilevel.Layer) error {
		if _, err := edge(finest, id); err != nil {
			return err
		}
		finest.RemoveEdge(id)
		g.logger.Debug("edge removed", "id", id)
		return nil
	})
}

// SetSpline turns the spline centroid of an edge on or off.
func (g *Graph) SetSpline(id multilevel.EdgeID, on bool) error {
	return g.mutate("set_spline", func(finest *multilevel.Layer) error {
		if _, err := edge(finest, id); err != nil {
			return err
		}
		finest.SetSpline(id, on)
		return nil
	})
}

// Randomize scatters all vertices over the cube [-r, r]^3.
func (g *Graph) Randomize(r float64) error {
	return g.mutate("randomize", func(finest *multilevel.Layer) error {
		finest.Randomize(g.rng, r)
		return nil
	})
}

// Close removes every vertex and rejects further mutations. Closing twice is
// a no-op.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	finest := g.layers[0]
	for finest.NumVertices() > 0 {
		finest.RemoveVertex(finest.Vertices()[0].ID)
	}
	g.closed = true
	g.logger.Debug("graph closed")
	return nil
}

// mutate runs fn under the writer lock. A panic inside fn may have left the
// layers half rewritten, so it closes the graph for good: the panic is
// returned as a contract violation and every later mutation fails with
// ErrCodeClosed. The hooks see the outcome either way.
func (g *Graph) mutate(op string, fn func(finest *multilevel.Layer) error) (err error) {
	ctx := context.Background()
	start := time.Now()

	g.mu.Lock()
	func() {
		defer func() {
			if r := recover(); r != nil {
				cause := errors.Recover(r)
				if errors.Is(cause, errors.ErrCodeContractViolation) {
					err = cause
				} else {
					err = errors.Wrap(errors.ErrCodeContractViolation, cause, "%s panicked", op)
				}
				g.closed, g.broken = true, err
				g.logger.Error("mutation aborted, graph closed", "op", op, "err", err)
			}
		}()
		if g.broken != nil {
			err = errors.Wrap(errors.ErrCodeClosed, g.broken, "%s: graph closed after a failed mutation", op)
			return
		}
		if g.closed {
			err = errors.New(errors.ErrCodeClosed, "%s: graph is closed", op)
			return
		}
		err = fn(g.layers[0])
	}()
	if err == nil {
		hooks := observability.Graph()
		for _, l := range g.layers {
			hooks.OnSize(ctx, l.Level(), l.NumVertices(), l.NumEdges())
		}
	}
	g.mu.Unlock()

	observability.Graph().OnMutation(ctx, op, time.Since(start), err)
	return err
}

func vertex(l *multilevel.Layer, id multilevel.VertexID) (*multilevel.Vertex, error) {
	v, ok := l.Vertex(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeVertexNotFound, "vertex %d", id)
	}
	return v, nil
}

func edge(l *multilevel.Layer, id multilevel.EdgeID) (*multilevel.Edge, error) {
	e, ok := l.Edge(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeEdgeNotFound, "edge %d", id)
	}
	return e, nil
}

// =============================================================================
// Layout and readers
// =============================================================================

// Layout runs one step of length dt on every layer, coarsest first, and
// returns the largest acceleration of the finest layer. A graph closed by a
// failed mutation no longer moves and reports 0.
func (g *Graph) Layout(dt float64) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.broken != nil {
		return 0
	}
	var maxAccel float64
	for i := len(g.layers) - 1; i >= 0; i-- {
		maxAccel = g.layers[i].Layout(dt)
	}
	return maxAccel
}

// BoundingBox returns the box around the visible vertices of the finest
// layer, never smaller than [-BoundsSeed, BoundsSeed] on any axis.
func (g *Graph) BoundingBox() (lo, hi vec.Vec3) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.layers[0].BoundingBox(BoundsSeed)
}

// View calls fn with the finest layer under the read lock. fn must not keep
// references to the layer or its vertices after it returns.
func (g *Graph) View(fn func(l *multilevel.Layer)) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(g.layers[0])
}

// ViewLayer is like [Graph.View] for an arbitrary level.
func (g *Graph) ViewLayer(level int, fn func(l *multilevel.Layer)) error {
	if err := errors.ValidateLevel(level, len(g.layers)); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(g.layers[level])
	return nil
}

// Vertex returns the current state of a finest-layer vertex.
func (g *Graph) Vertex(id multilevel.VertexID) (VertexState, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, err := vertex(g.layers[0], id)
	if err != nil {
		return VertexState{}, err
	}
	return vertexState(v), nil
}

// SharedEdge returns the first edge joining a and b in either direction.
func (g *Graph) SharedEdge(a, b multilevel.VertexID) (multilevel.EdgeID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.layers[0].SharedEdge(a, b)
	if !ok {
		return 0, false
	}
	return e.ID, true
}

// Snapshot copies the finest layer.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	finest := g.layers[0]
	lo, hi := finest.BoundingBox(BoundsSeed)
	snap := Snapshot{
		Vertices: make([]VertexState, 0, finest.NumVertices()),
		Edges:    make([]EdgeState, 0, finest.NumEdges()),
		Min:      array(lo),
		Max:      array(hi),
	}
	for _, v := range finest.Vertices() {
		snap.Vertices = append(snap.Vertices, vertexState(v))
	}
	for _, e := range finest.Edges() {
		es := EdgeState{
			ID:         e.ID,
			From:       e.A,
			To:         e.B,
			Count:      e.Cnt,
			Strength:   e.Strength,
			Oriented:   e.Oriented,
			Refcounted: e.Refcounted,
			Spline:     e.Spline,
		}
		if c, ok := e.Centroid(); ok {
			a := array(c)
			es.Centroid = &a
		}
		snap.Edges = append(snap.Edges, es)
	}
	return snap
}

func vertexState(v *multilevel.Vertex) VertexState {
	return VertexState{ID: v.ID, X: v.X.X, Y: v.X.Y, Z: v.X.Z, Visible: v.Visible}
}

// Stats summarizes every layer, finest first.
func (g *Graph) Stats() []LayerStats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]LayerStats, len(g.layers))
	for i, l := range g.layers {
		out[i] = LayerStats{
			Level:        l.Level(),
			Kind:         l.Kind().String(),
			Vertices:     l.NumVertices(),
			Edges:        l.NumEdges(),
			Multiplicity: l.Multiplicity(),
			Integrity:    l.VerifyIntegrity(),
			Redundancy:   l.VerifyRedundancy(),
		}
	}
	return out
}

// Verify checks integrity and redundancy of every layer and returns the first
// failure.
func (g *Graph) Verify() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, l := range g.layers {
		if err := l.CheckIntegrity(); err != nil {
			return fmt.Errorf("layer %d integrity: %w", l.Level(), err)
		}
		if err := l.CheckRedundancy(); err != nil {
			return fmt.Errorf("layer %d redundancy: %w", l.Level(), err)
		}
	}
	return nil
}

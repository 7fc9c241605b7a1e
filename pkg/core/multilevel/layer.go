package multilevel

import (
	"slices"

	"github.com/matzehuels/galaster/pkg/core/octree"
	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/errors"
)

// Layer is one level of the coarsening hierarchy. It owns its vertices and
// edges; the only reference it holds outside itself is the next coarser layer.
//
// A Layer is not safe for concurrent mutation. The graph façade serializes
// topology changes with its writer lock; [Layer.Layout] may run concurrently
// with readers.
type Layer struct {
	kind    Kind
	level   int
	params  Params
	seq     *Sequence
	coarser *Layer

	vertices map[VertexID]*Vertex
	order    []*Vertex
	edges    map[EdgeID]*Edge

	tree   *octree.Tree
	bodies []*Vertex
}

// NewStack builds n layers sharing params and one id sequence. The returned
// slice is ordered finest first; every layer links to its successor.
func NewStack(n int, params Params) []*Layer {
	if n < 1 {
		panic(errors.Violation("layer stack needs at least one layer, got %d", n))
	}
	seq := &Sequence{}
	layers := make([]*Layer, n)
	var coarser *Layer
	for i := n - 1; i >= 0; i-- {
		kind := KindGeneric
		if i == 0 {
			kind = KindFinest
		}
		layers[i] = NewLayer(kind, i, params, seq, coarser)
		coarser = layers[i]
	}
	return layers
}

// NewLayer returns an empty layer. coarser may be nil for the coarsest level.
func NewLayer(kind Kind, level int, params Params, seq *Sequence, coarser *Layer) *Layer {
	if seq == nil {
		seq = &Sequence{}
	}
	return &Layer{
		kind:     kind,
		level:    level,
		params:   params,
		seq:      seq,
		coarser:  coarser,
		vertices: make(map[VertexID]*Vertex),
		edges:    make(map[EdgeID]*Edge),
		tree:     octree.New(nil),
	}
}

func (l *Layer) Kind() Kind       { return l.kind }
func (l *Layer) Level() int       { return l.level }
func (l *Layer) Params() Params   { return l.params }
func (l *Layer) Coarser() *Layer  { return l.coarser }
func (l *Layer) NumVertices() int { return len(l.order) }
func (l *Layer) NumEdges() int    { return len(l.edges) }

// SetParams replaces the physical constants. The caller must hold exclusive
// access to the layer.
func (l *Layer) SetParams(p Params) {
	l.params = p
}

// Vertices returns the vertices in layer order. The slice is owned by the
// layer and must not be modified.
func (l *Layer) Vertices() []*Vertex {
	return l.order
}

// Vertex looks up a vertex by id.
func (l *Layer) Vertex(id VertexID) (*Vertex, bool) {
	v, ok := l.vertices[id]
	return v, ok
}

// Edge looks up an edge by id.
func (l *Layer) Edge(id EdgeID) (*Edge, bool) {
	e, ok := l.edges[id]
	return e, ok
}

// SharedEdge returns the first edge joining a and b in either direction.
func (l *Layer) SharedEdge(a, b VertexID) (*Edge, bool) {
	va, ok := l.vertices[a]
	if !ok {
		return nil, false
	}
	vb, ok := l.vertices[b]
	if !ok {
		return nil, false
	}
	e := va.sharedEdge(vb)
	return e, e != nil
}

// Edges returns every edge once, ordered by the layer position of its source
// vertex and then by adjacency order.
func (l *Layer) Edges() []*Edge {
	out := make([]*Edge, 0, len(l.edges))
	for _, v := range l.order {
		for _, e := range v.edges {
			if e.a == v {
				out = append(out, e)
			}
		}
	}
	return out
}

func (l *Layer) mustVertex(id VertexID) *Vertex {
	v, ok := l.vertices[id]
	if !ok {
		panic(errors.Violation("layer %d: unknown vertex %d", l.level, id))
	}
	return v
}

func (l *Layer) mustEdge(id EdgeID) *Edge {
	e, ok := l.edges[id]
	if !ok {
		panic(errors.Violation("layer %d: unknown edge %d", l.level, id))
	}
	return e
}

// AddVertex inserts a new visible vertex at x. When a coarser layer exists, a
// coarse image at the same position is created there recursively.
func (l *Layer) AddVertex(x vec.Vec3) *Vertex {
	v := &Vertex{
		ID:      VertexID(l.seq.Next()),
		X:       x,
		Visible: true,
	}
	l.attach(v)
	if l.coarser != nil {
		v.Coarser = l.coarser.AddVertex(x).ID
	}
	return v
}

func (l *Layer) attach(v *Vertex) {
	v.index = len(l.order)
	l.order = append(l.order, v)
	l.vertices[v.ID] = v
}

// RemoveVertex removes every incident edge, as many times as its
// multiplicity, and then deletes the vertex together with its coarse images.
func (l *Layer) RemoveVertex(id VertexID) {
	v := l.mustVertex(id)
	for len(v.edges) > 0 {
		e := v.edges[0]
		for n := e.Cnt; n > 0; n-- {
			l.removeEdge(e)
		}
	}
	l.detach(v)
}

// detach deletes an isolated vertex and cascades to its coarse image. A vertex
// that still has edges is a contract violation.
func (l *Layer) detach(v *Vertex) {
	if len(v.edges) > 0 {
		panic(errors.Violation("layer %d: vertex %d still has %d edges", l.level, v.ID, len(v.edges)))
	}
	if l.coarser != nil && v.Coarser != NoVertex {
		l.coarser.detach(l.coarser.mustVertex(v.Coarser))
	}

	last := l.order[len(l.order)-1]
	l.order[v.index] = last
	last.index = v.index
	l.order = l.order[:len(l.order)-1]
	delete(l.vertices, v.ID)
	v.Coarser = NoVertex
}

// connect links a and b. A refcounted insertion that finds an existing
// refcounted edge a->b raises its multiplicity and returns it instead.
func (l *Layer) connect(a, b *Vertex, opts EdgeOptions) *Edge {
	if opts.Refcounted {
		if e := a.firstEdgeTo(b); e != nil && e.Refcounted {
			e.Cnt++
			return e
		}
	}

	strength := opts.Strength
	if strength == 0 {
		strength = 1
	}
	e := &Edge{
		ID:         EdgeID(l.seq.Next()),
		A:          a.ID,
		B:          b.ID,
		Cnt:        1,
		Strength:   strength,
		Oriented:   opts.Oriented,
		Refcounted: opts.Refcounted,
		a:          a,
		b:          b,
	}
	l.edges[e.ID] = e
	a.edges = append(a.edges, e)
	if a != b {
		b.edges = append(b.edges, e)
	}
	if opts.Spline && l.kind == KindFinest {
		l.setSpline(e, true)
	}
	return e
}

// disconnect drops one unit of multiplicity and unlinks the edge when none
// remain.
func (l *Layer) disconnect(e *Edge) {
	if e.Cnt <= 0 {
		panic(errors.Violation("layer %d: disconnect edge %d with multiplicity %d", l.level, e.ID, e.Cnt))
	}
	e.Cnt--
	if e.Cnt > 0 {
		return
	}
	e.a.edges = unlink(e.a.edges, e)
	if e.a != e.b {
		e.b.edges = unlink(e.b.edges, e)
	}
	delete(l.edges, e.ID)
	e.centroid = nil
}

func unlink(es []*Edge, e *Edge) []*Edge {
	if i := slices.Index(es, e); i >= 0 {
		return slices.Delete(es, i, i+1)
	}
	return es
}

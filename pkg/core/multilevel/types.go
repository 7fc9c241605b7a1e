package multilevel

import (
	"runtime"
	"sync/atomic"

	"github.com/matzehuels/galaster/pkg/core/vec"
)

// VertexID identifies a vertex within its layer. IDs are unique across all
// layers of one stack; zero is never assigned.
type VertexID int64

// EdgeID identifies an edge within its layer.
type EdgeID int64

// NoVertex is the coarser handle of vertices in the coarsest layer and of
// spline centroids.
const NoVertex VertexID = 0

// OrientedBias is the constant vertical push applied to both endpoints of an
// oriented edge: downwards on the target, upwards on the source.
const OrientedBias = 0.4

// Sequence hands out identifiers for one layer stack.
type Sequence struct {
	next atomic.Int64
}

// Next returns a fresh, strictly increasing identifier.
func (s *Sequence) Next() int64 {
	return s.next.Add(1)
}

// Vertex is a point mass in one layer.
//
// The numeric fields are written by the layout pass and read concurrently by
// renderers without synchronization. Topology (edges, Coarser) only changes
// under the owning graph's writer lock.
type Vertex struct {
	ID VertexID

	X       vec.Vec3 // position
	DX      vec.Vec3 // velocity
	DDX     vec.Vec3 // acceleration of the previous tick
	DDXNext vec.Vec3 // acceleration being computed in the current tick
	Delta   vec.Vec3 // displacement applied in the last tick

	// Coarser is the image of this vertex one layer up, or NoVertex.
	Coarser VertexID

	// Visible is consumed by renderers and by bounding-box computation.
	Visible bool

	edges []*Edge
	index int

	// spline is set on the virtual centroid of a spline edge.
	spline *Edge
}

// Degree returns the number of distinct incident edges. A self-loop counts once.
func (v *Vertex) Degree() int {
	return len(v.edges)
}

// Edges returns the incident edges. The slice is owned by the vertex and must
// not be modified.
func (v *Vertex) Edges() []*Edge {
	return v.edges
}

// IsCentroid reports whether v is the virtual centroid of a spline edge.
func (v *Vertex) IsCentroid() bool {
	return v.spline != nil
}

// sharedEdge returns the first edge joining v and w in either direction.
func (v *Vertex) sharedEdge(w *Vertex) *Edge {
	for _, e := range v.edges {
		if (e.a == v && e.b == w) || (e.a == w && e.b == v) {
			return e
		}
	}
	return nil
}

// firstEdgeTo returns the first edge pointing from v to w.
func (v *Vertex) firstEdgeTo(w *Vertex) *Edge {
	for _, e := range v.edges {
		if e.a == v && e.b == w {
			return e
		}
	}
	return nil
}

// EdgeOptions describes an edge to be inserted.
type EdgeOptions struct {
	// Strength multiplies the spring constant. Zero means 1.
	Strength float64

	// Oriented adds a vertical bias separating source and target.
	Oriented bool

	// Refcounted edges merge with an existing edge of the same direction,
	// raising its multiplicity instead of creating a parallel edge.
	Refcounted bool

	// Spline edges get a virtual centroid body in the finest layer.
	Spline bool
}

// Edge joins two vertices of the same layer. A and B may be equal.
type Edge struct {
	ID       EdgeID
	A, B     VertexID
	Cnt      int
	Strength float64

	Oriented   bool
	Refcounted bool
	Spline     bool

	a, b     *Vertex
	centroid *Vertex
}

// IsLoop reports whether the edge is a self-loop.
func (e *Edge) IsLoop() bool {
	return e.a == e.b
}

// Other returns the endpoint opposite to id.
func (e *Edge) Other(id VertexID) VertexID {
	if e.A == id {
		return e.B
	}
	return e.A
}

// Centroid returns the position of the spline centroid, if the edge has one.
func (e *Edge) Centroid() (vec.Vec3, bool) {
	if e.centroid == nil {
		return vec.Zero, false
	}
	return e.centroid.X, true
}

// Kind distinguishes the finest layer, which carries spline centroids, from
// the coarser layers.
type Kind int

const (
	KindGeneric Kind = iota
	KindFinest
)

func (k Kind) String() string {
	if k == KindFinest {
		return "finest"
	}
	return "generic"
}

// Params holds the physical constants of a layer.
type Params struct {
	F0       float64 // repulsion constant
	K        float64 // spring constant
	Eps      float64 // singularity guard; repulsion saturates near 1/sqrt(Eps)
	Damping  float64 // velocity multiplier per tick, in (0, 1]
	Dilation float64 // coupling to the coarser image's acceleration

	// OctreeThreshold is the body count above which repulsion uses the
	// Barnes-Hut octree instead of the exact pairwise sum.
	OctreeThreshold int

	// Padding grows the octree volume beyond the outermost body.
	Padding float64

	// MaxDisplacement clamps every axis of a single tick's displacement.
	MaxDisplacement float64

	// Workers bounds the goroutines used by each layout phase.
	Workers int
}

// DefaultParams returns the constants used by the interactive viewer.
func DefaultParams() Params {
	return Params{
		F0:              250,
		K:               0.02,
		Eps:             0.001,
		Damping:         0.6,
		Dilation:        1.2,
		OctreeThreshold: 2000,
		Padding:         10,
		MaxDisplacement: 3,
		Workers:         runtime.GOMAXPROCS(0),
	}
}

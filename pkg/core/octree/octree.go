package octree

import (
	"math/rand/v2"

	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/errors"
)

// DuplicateTolerance is the distance below which two bodies are treated as
// coincident. The second body is not stored; it still feels the first one
// through the jitter branch of [Repel].
const DuplicateTolerance = 1e-6

const none int32 = -1

type node struct {
	min, max, mid vec.Vec3
	diag          float64

	// leaf nodes hold exactly one body
	leaf bool
	body int
	pos  vec.Vec3

	n        int
	sum      vec.Vec3
	children [8]int32
}

// Tree is a Barnes-Hut octree whose nodes live in a bump arena. A Tree is
// rebuilt every tick: [Tree.Reset] drops all nodes without freeing the backing
// storage, so steady-state rebuilds allocate nothing.
//
// Inserting is single-threaded. Once built, [Tree.Repulsion] may be called from
// any number of goroutines concurrently.
type Tree struct {
	nodes []node
	rng   *rand.Rand
}

// New returns an empty tree. A nil rng uses the package-level generator, which
// is safe for the concurrent force pass.
func New(rng *rand.Rand) *Tree {
	return &Tree{rng: rng}
}

// Reset discards every node and installs an empty root spanning [lo, hi].
// Callers normally pass bounds produced by [CubicBounds].
func (t *Tree) Reset(lo, hi vec.Vec3) {
	t.nodes = t.nodes[:0]
	t.alloc(lo, hi)
}

func (t *Tree) alloc(lo, hi vec.Vec3) int32 {
	t.nodes = append(t.nodes, node{
		min:      lo,
		max:      hi,
		mid:      lo.Mid(hi),
		diag:     hi.Sub(lo).Len(),
		body:     -1,
		children: [8]int32{none, none, none, none, none, none, none, none},
	})
	return int32(len(t.nodes) - 1)
}

// Clear rewinds the arena, leaving the tree without a root. The backing
// storage is kept for the next [Tree.Reset].
func (t *Tree) Clear() {
	t.nodes = t.nodes[:0]
}

// Nodes returns the number of arena slots in use.
func (t *Tree) Nodes() int {
	return len(t.nodes)
}

// Count returns the number of bodies stored in the tree.
func (t *Tree) Count() int {
	if len(t.nodes) == 0 {
		return 0
	}
	return t.nodes[0].n
}

// Centroid returns the mean position of all stored bodies.
func (t *Tree) Centroid() vec.Vec3 {
	if t.Count() == 0 {
		return vec.Zero
	}
	return t.nodes[0].sum.Scale(1 / float64(t.nodes[0].n))
}

// Bounds returns the region covered by the root.
func (t *Tree) Bounds() (lo, hi vec.Vec3) {
	if len(t.nodes) == 0 {
		return vec.Zero, vec.Zero
	}
	return t.nodes[0].min, t.nodes[0].max
}

// Insert stores body i at position x. It reports false when x coincides with
// an already stored body and was skipped. Inserting outside the root volume
// is a contract violation and panics.
func (t *Tree) Insert(i int, x vec.Vec3) bool {
	if len(t.nodes) == 0 {
		panic(errors.Violation("octree: insert into a tree without root"))
	}
	root := &t.nodes[0]
	if x.X < root.min.X || x.Y < root.min.Y || x.Z < root.min.Z ||
		x.X > root.max.X || x.Y > root.max.Y || x.Z > root.max.Z {
		panic(errors.Violation("octree: body %d at %v outside bounds [%v, %v]", i, x, root.min, root.max))
	}
	return t.insert(0, i, x)
}

// insert places body i below the internal node ni and updates the aggregates
// of every node on the path when the body was actually stored.
func (t *Tree) insert(ni int32, i int, x vec.Vec3) bool {
	oct := octant(t.nodes[ni].mid, x)
	ci := t.nodes[ni].children[oct]

	var stored bool
	switch {
	case ci == none:
		lo, hi := childBounds(&t.nodes[ni], oct)
		ci = t.alloc(lo, hi)
		t.nodes[ni].children[oct] = ci
		c := &t.nodes[ci]
		c.leaf = true
		c.body = i
		c.pos = x
		c.n = 1
		c.sum = x
		stored = true

	case t.nodes[ci].leaf:
		c := &t.nodes[ci]
		if x.Sub(c.pos).Len() < DuplicateTolerance {
			return false
		}
		j, xj := c.body, c.pos
		c.leaf = false
		c.body = -1
		c.n = 0
		c.sum = vec.Zero
		t.insert(ci, j, xj)
		stored = t.insert(ci, i, x)

	default:
		stored = t.insert(ci, i, x)
	}

	if stored {
		nd := &t.nodes[ni]
		nd.n++
		nd.sum = nd.sum.Add(x)
	}
	return stored
}

// octant selects a child by comparing x against the node's midpoint on every
// axis: bit 2 for X, bit 1 for Y, bit 0 for Z.
func octant(mid, x vec.Vec3) int {
	var o int
	if x.X >= mid.X {
		o |= 4
	}
	if x.Y >= mid.Y {
		o |= 2
	}
	if x.Z >= mid.Z {
		o |= 1
	}
	return o
}

func childBounds(n *node, oct int) (lo, hi vec.Vec3) {
	lo, hi = n.min, n.mid
	if oct&4 != 0 {
		lo.X, hi.X = n.mid.X, n.max.X
	}
	if oct&2 != 0 {
		lo.Y, hi.Y = n.mid.Y, n.max.Y
	}
	if oct&1 != 0 {
		lo.Z, hi.Z = n.mid.Z, n.max.Z
	}
	return lo, hi
}

// Repulsion returns the approximate repulsive force exerted by every stored
// body on body i at position x. Body i itself contributes nothing.
//
// A subtree is collapsed into a point mass at its centroid when it is a leaf or
// when its diagonal is shorter than the distance from x to that centroid.
func (t *Tree) Repulsion(i int, x vec.Vec3, f0, reps float64) vec.Vec3 {
	if len(t.nodes) == 0 {
		return vec.Zero
	}
	return t.repulsion(0, i, x, f0, reps)
}

func (t *Tree) repulsion(ni int32, i int, x vec.Vec3, f0, reps float64) vec.Vec3 {
	nd := &t.nodes[ni]
	if nd.n == 0 || (nd.leaf && nd.body == i) {
		return vec.Zero
	}

	var d vec.Vec3
	if nd.leaf {
		d = x.Sub(nd.pos)
		return Repel(t.rng, d, float64(nd.n), f0, reps)
	}
	d = x.Sub(nd.sum.Scale(1 / float64(nd.n)))
	if d.Len() > nd.diag {
		return Repel(t.rng, d, float64(nd.n), f0, reps)
	}

	var f vec.Vec3
	for _, ci := range nd.children {
		if ci != none {
			f = f.Add(t.repulsion(ci, i, x, f0, reps))
		}
	}
	return f
}

// Repel is the inverse-square repulsion kernel of the tree walk. d points
// from the source towards the affected body and weight is the number of
// bodies the source stands for.
//
// When 1/|d| exceeds 2*reps the bodies are so close that the force would
// explode; the separation is then replaced by a random vector in
// [-reps, reps]^3 with unit factor. A zero f0 disables repulsion entirely,
// jitter included. The brute-force pass uses [RepelSpread] with twice that
// jitter range.
func Repel(rng *rand.Rand, d vec.Vec3, weight, f0, reps float64) vec.Vec3 {
	return RepelSpread(rng, d, weight, f0, reps, reps)
}

// RepelSpread is [Repel] with the jitter drawn from [-spread, spread]^3.
func RepelSpread(rng *rand.Rand, d vec.Vec3, weight, f0, reps, spread float64) vec.Vec3 {
	if f0 == 0 {
		return vec.Zero
	}
	rdd := d.InvLen()
	if rdd > 2*reps {
		return vec.Random(rng, spread).Scale(weight)
	}
	return d.Scale(weight * f0 * rdd * rdd * rdd)
}

// CubicBounds grows the axis-aligned box [lo, hi] by padding on every side and
// then extends the shorter axes so that all three have the same length. The
// result keeps octants cubic at every depth.
func CubicBounds(lo, hi vec.Vec3, padding float64) (vec.Vec3, vec.Vec3) {
	pad := vec.Splat(padding)
	lo, hi = lo.Sub(pad), hi.Add(pad)
	side := hi.Sub(lo).MaxCoord()
	mid := lo.Mid(hi)
	half := vec.Splat(side / 2)
	return mid.Sub(half), mid.Add(half)
}

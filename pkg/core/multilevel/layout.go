package multilevel

import (
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/galaster/pkg/core/octree"
	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/errors"
)

// minParallel is the body count below which layout phases run inline.
const minParallel = 256

// Layout advances the layer by one Verlet step of length dt and returns the
// largest acceleration magnitude computed in this step.
//
// The step runs in three phases, each spread over the configured workers:
// displacement, force evaluation and velocity update. In the finest layer the
// centroids of spline edges take part as extra bodies.
//
// Layout only writes numeric vertex fields. It must not overlap with topology
// changes but may overlap with readers.
func (l *Layer) Layout(dt float64) float64 {
	bodies := l.collectBodies()
	n := len(bodies)
	if n == 0 {
		return 0
	}
	p := l.params

	l.parallel(n, func(_, lo, hi int) {
		for _, v := range bodies[lo:hi] {
			l.displace(v, dt)
		}
	})

	reps := 1 / math.Sqrt(p.Eps)
	useTree := n > p.OctreeThreshold
	if useTree {
		lo, hi := extent(bodies, p.Padding)
		lo, hi = octree.CubicBounds(lo, hi, p.Padding)
		l.tree.Reset(lo, hi)
		for i, v := range bodies {
			l.tree.Insert(i, v.X)
		}
	}

	maxes := make([]float64, l.workers(n))
	l.parallel(n, func(chunk, lo, hi int) {
		for i := lo; i < hi; i++ {
			v := bodies[i]
			var fr vec.Vec3
			if useTree {
				fr = l.tree.Repulsion(i, v.X, p.F0, reps)
			} else {
				fr = bruteRepulsion(bodies, i, p.F0, reps)
			}
			v.DDXNext = fr.Add(l.springs(v))
			maxes[chunk] = math.Max(maxes[chunk], v.DDXNext.Len())
		}
	})
	if useTree {
		l.tree.Clear()
	}

	l.parallel(n, func(_, lo, hi int) {
		for _, v := range bodies[lo:hi] {
			l.updateVelocity(v, dt)
		}
	})

	var maxDDX float64
	for _, m := range maxes {
		maxDDX = math.Max(maxDDX, m)
	}
	return maxDDX
}

// collectBodies returns the bodies simulated in this tick. For the finest
// layer that is every vertex followed by one centroid per spline edge, taken
// from the edge's source vertex.
func (l *Layer) collectBodies() []*Vertex {
	if l.kind != KindFinest {
		return l.order
	}
	l.bodies = append(l.bodies[:0], l.order...)
	for _, v := range l.order {
		for _, e := range v.edges {
			if e.centroid != nil && e.a == v {
				l.bodies = append(l.bodies, e.centroid)
			}
		}
	}
	return l.bodies
}

func (l *Layer) displace(v *Vertex, dt float64) {
	d := v.DX.Scale(dt).Add(v.DDX.Scale(0.5 * dt * dt))
	v.Delta = d.Clamp(l.params.MaxDisplacement)
	v.X = v.X.Add(v.Delta)
}

func bruteRepulsion(bodies []*Vertex, i int, f0, reps float64) vec.Vec3 {
	x := bodies[i].X
	var f vec.Vec3
	for j, u := range bodies {
		if j != i {
			f = f.Add(octree.RepelSpread(nil, x.Sub(u.X), 1, f0, reps, 2*reps))
		}
	}
	return f
}

// springs returns the Hookean pull on v. Self-loops exert nothing unless they
// are spline edges, whose springs attach to the edge centroid instead of the
// opposite endpoint.
func (l *Layer) springs(v *Vertex) vec.Vec3 {
	k := l.params.K
	var f vec.Vec3

	if e := v.spline; e != nil {
		f = f.Sub(v.X.Sub(e.a.X).Scale(k))
		if e.a != e.b {
			f = f.Sub(v.X.Sub(e.b.X).Scale(k))
		}
		return f
	}

	for _, e := range v.edges {
		var other *Vertex
		switch {
		case e.centroid != nil:
			other = e.centroid
		case e.a == e.b:
			continue
		case e.a == v:
			other = e.b
		default:
			other = e.a
		}
		f = f.Sub(v.X.Sub(other.X).Scale(k * e.Strength))
		if e.Oriented {
			if e.b == v {
				f.Y -= OrientedBias
			} else {
				f.Y += OrientedBias
			}
		}
	}
	return f
}

func (l *Layer) updateVelocity(v *Vertex, dt float64) {
	if l.coarser != nil && v.Coarser != NoVertex {
		if cv, ok := l.coarser.vertices[v.Coarser]; ok {
			v.DDXNext = v.DDXNext.Add(cv.DDX.Scale(l.params.Dilation))
		}
	}
	v.DX = v.DX.Add(v.DDX.Add(v.DDXNext).Scale(0.5 * dt))
	v.DX = v.DX.Scale(l.params.Damping)
	v.DDX = v.DDXNext
}

func (l *Layer) workers(n int) int {
	w := l.params.Workers
	if w < 1 || n < minParallel {
		return 1
	}
	return min(w, n)
}

// parallel splits [0, n) into one contiguous chunk per worker and waits for
// all of them.
func (l *Layer) parallel(n int, fn func(chunk, lo, hi int)) {
	w := l.workers(n)
	if w == 1 {
		fn(0, 0, n)
		return
	}
	size := (n + w - 1) / w
	var g errgroup.Group
	for chunk, lo := 0, 0; lo < n; chunk, lo = chunk+1, lo+size {
		hi := min(lo+size, n)
		g.Go(func() error {
			fn(chunk, lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// extent returns the axis-aligned box around the bodies, never smaller than
// [-seed, seed] on any axis.
func extent(bodies []*Vertex, seed float64) (lo, hi vec.Vec3) {
	lo, hi = vec.Splat(-seed), vec.Splat(seed)
	for _, v := range bodies {
		lo, hi = lo.Min(v.X), hi.Max(v.X)
	}
	return lo, hi
}

// BoundingBox returns the box around the visible vertices, never smaller than
// [-seed, seed] on any axis.
func (l *Layer) BoundingBox(seed float64) (lo, hi vec.Vec3) {
	lo, hi = vec.Splat(-seed), vec.Splat(seed)
	for _, v := range l.order {
		if v.Visible {
			lo, hi = lo.Min(v.X), hi.Max(v.X)
		}
	}
	return lo, hi
}

// SetSpline turns the spline flag of a finest-layer edge on or off. Turning it
// on places a centroid body at the midpoint of the endpoints; turning it off
// drops the centroid.
func (l *Layer) SetSpline(id EdgeID, on bool) {
	if l.kind != KindFinest {
		panic(errors.Violation("layer %d: spline edges exist only in the finest layer", l.level))
	}
	l.setSpline(l.mustEdge(id), on)
}

func (l *Layer) setSpline(e *Edge, on bool) {
	e.Spline = on
	switch {
	case on && e.centroid == nil:
		e.centroid = &Vertex{
			X:       e.a.X.Mid(e.b.X),
			Visible: true,
			spline:  e,
		}
	case !on:
		e.centroid = nil
	}
}

// Centroids returns the spline centroids in body order.
func (l *Layer) Centroids() []*Vertex {
	var out []*Vertex
	for _, v := range l.order {
		for _, e := range v.edges {
			if e.centroid != nil && e.a == v {
				out = append(out, e.centroid)
			}
		}
	}
	return out
}

// Randomize scatters the vertices uniformly over [-r, r]^3, copies every new
// position down the coarse chain and scatters the spline centroids as well.
// Velocities and accelerations are left untouched.
func (l *Layer) Randomize(rng *rand.Rand, r float64) {
	for _, v := range l.order {
		v.X = vec.Random(rng, r)
		for c, id := l.coarser, v.Coarser; c != nil && id != NoVertex; {
			cv := c.vertices[id]
			cv.X = v.X
			c, id = c.coarser, cv.Coarser
		}
		for _, e := range v.edges {
			if e.centroid != nil {
				e.centroid.X = vec.Random(rng, r)
			}
		}
	}
}

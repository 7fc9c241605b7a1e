package multilevel

import (
	"slices"

	"github.com/matzehuels/galaster/pkg/errors"
)

// coarseEdge is the shape of every edge created in a coarser layer.
var coarseEdge = EdgeOptions{Strength: 1, Refcounted: true}

// AddEdge inserts an edge from a to b and mirrors it into every coarser layer.
//
// When neither endpoint is matched yet, the new edge becomes a matching edge:
// the coarse images of a and b are merged into one. The returned edge is the
// one holding the multiplicity, which differs from a fresh edge when a
// refcounted insertion merged into an existing one.
func (l *Layer) AddEdge(a, b VertexID, opts EdgeOptions) *Edge {
	return l.addEdge(l.mustVertex(a), l.mustVertex(b), opts)
}

func (l *Layer) addEdge(a, b *Vertex, opts EdgeOptions) *Edge {
	loop := a == b
	matched := l.eligible(a, loop) && l.eligible(b, loop)
	e := l.connect(a, b, opts)
	if l.coarser == nil {
		return e
	}

	c := l.coarser
	ca, cb := c.mustVertex(a.Coarser), c.mustVertex(b.Coarser)
	c.addEdge(ca, cb, coarseEdge)
	if matched && ca != cb {
		l.match(a, b)
	}
	return e
}

// RemoveEdge drops one unit of multiplicity from the edge and from its coarse
// image. Removing the last edge that held a matched pair together splits the
// pair's coarse vertex.
func (l *Layer) RemoveEdge(id EdgeID) {
	l.removeEdge(l.mustEdge(id))
}

func (l *Layer) removeEdge(e *Edge) {
	a, b := e.a, e.b
	l.disconnect(e)
	stillConnected := a.sharedEdge(b) != nil
	if l.coarser == nil {
		return
	}

	c := l.coarser
	ca, cb := c.mustVertex(a.Coarser), c.mustVertex(b.Coarser)
	ce := ca.sharedEdge(cb)
	if ce == nil {
		panic(errors.Violation("layer %d: no coarse edge between %d and %d", c.level, ca.ID, cb.ID))
	}
	c.removeEdge(ce)
	if a != b && ca == cb && !stillConnected {
		l.split(a, b)
	}
}

// eligible reports whether v may take part in a new matching edge: the edge
// must not be a self-loop and v must not already be matched.
func (l *Layer) eligible(v *Vertex, loop bool) bool {
	if loop {
		return false
	}
	for _, e := range v.edges {
		if l.collapsed(e) {
			return false
		}
	}
	return true
}

// collapsed reports whether e joins two distinct vertices that share a coarse
// image.
func (l *Layer) collapsed(e *Edge) bool {
	return e.a != e.b && e.a.Coarser != NoVertex && e.a.Coarser == e.b.Coarser
}

// Collapsed reports whether e is a matching edge, i.e. its endpoints are
// distinct but merged one layer up.
func (l *Layer) Collapsed(e *Edge) bool {
	return l.collapsed(e)
}

// match merges the coarse image of b into the coarse image of a. Every coarse
// edge incident to cb is re-homed onto ca one unit at a time, so parallel edges
// merge and edges between ca and cb become self-loops. Afterwards the whole
// matched component of b points at ca and cb is deleted.
func (l *Layer) match(a, b *Vertex) {
	c := l.coarser
	ca, cb := c.mustVertex(a.Coarser), c.mustVertex(b.Coarser)
	if ca == cb {
		panic(errors.Violation("layer %d: match of already merged %d and %d", l.level, a.ID, b.ID))
	}

	for _, e := range slices.Clone(cb.edges) {
		var na, nb *Vertex
		switch {
		case e.a == e.b:
			na, nb = ca, ca
		case e.a == cb:
			na, nb = ca, e.b
		default:
			na, nb = e.a, ca
		}
		for n := e.Cnt; n > 0; n-- {
			c.removeEdge(e)
			c.addEdge(na, nb, coarseEdge)
		}
	}

	for _, v := range l.matchedComponent(b) {
		v.Coarser = ca.ID
	}
	c.detach(cb)
}

// split separates b's matched component from a after the edge joining them
// disappeared. If a and b are still matched through other vertices nothing
// changes. Otherwise the component moves to a fresh coarse vertex placed at
// b's position, taking its share of coarse edges with it.
func (l *Layer) split(a, b *Vertex) {
	c := l.coarser
	if a == b || a.Coarser != b.Coarser {
		panic(errors.Violation("layer %d: split of %d and %d which are not merged", l.level, a.ID, b.ID))
	}
	ca := c.mustVertex(a.Coarser)

	comp := l.matchedComponent(b)
	in := make(map[*Vertex]bool, len(comp))
	for _, v := range comp {
		in[v] = true
	}
	if in[a] {
		return
	}

	nb := c.AddVertex(b.X)

	for _, v := range comp {
		for _, e := range v.edges {
			var cv, na, nbb *Vertex
			switch {
			case in[e.a] && in[e.b]:
				if e.a != v {
					continue // handled from the source side
				}
				cv = c.mustVertex(e.b.Coarser)
				na, nbb = nb, nb
			case e.a == v:
				cv = c.mustVertex(e.b.Coarser)
				na, nbb = nb, cv
			default:
				cv = c.mustVertex(e.a.Coarser)
				na, nbb = cv, nb
			}
			for n := e.Cnt; n > 0; n-- {
				old := ca.sharedEdge(cv)
				if old == nil {
					panic(errors.Violation("layer %d: no coarse edge between %d and %d", c.level, ca.ID, cv.ID))
				}
				c.removeEdge(old)
				c.addEdge(na, nbb, coarseEdge)
			}
		}
	}

	for _, v := range comp {
		v.Coarser = nb.ID
	}
}

// matchedComponent returns every vertex reachable from v through matching
// edges, v included, in breadth-first order.
func (l *Layer) matchedComponent(v *Vertex) []*Vertex {
	seen := map[*Vertex]bool{v: true}
	comp := []*Vertex{v}
	for i := 0; i < len(comp); i++ {
		u := comp[i]
		for _, e := range u.edges {
			if !l.collapsed(e) {
				continue
			}
			w := e.a
			if w == u {
				w = e.b
			}
			if !seen[w] {
				seen[w] = true
				comp = append(comp, w)
			}
		}
	}
	return comp
}

// MatchedComponent returns the vertices merged with id into one coarse vertex.
func (l *Layer) MatchedComponent(id VertexID) []VertexID {
	comp := l.matchedComponent(l.mustVertex(id))
	ids := make([]VertexID, len(comp))
	for i, v := range comp {
		ids[i] = v.ID
	}
	return ids
}

package multilevel

import "fmt"

// Multiplicity returns the total number of edge endpoints in the layer: every
// edge contributes its multiplicity once per endpoint, so self-loops count
// twice.
func (l *Layer) Multiplicity() int {
	n := 0
	for _, v := range l.order {
		for _, e := range v.edges {
			if e.IsLoop() {
				n += 2 * e.Cnt
			} else {
				n += e.Cnt
			}
		}
	}
	return n
}

// VerifyIntegrity checks that every edge has a coarse counterpart joining the
// images of its endpoints and that the multiplicity totals of this layer and
// the next coarser one agree. It always holds for the coarsest layer.
func (l *Layer) VerifyIntegrity() bool {
	return l.CheckIntegrity() == nil
}

// CheckIntegrity is [Layer.VerifyIntegrity] returning the first discrepancy.
func (l *Layer) CheckIntegrity() error {
	c := l.coarser
	if c == nil {
		return nil
	}
	for _, v := range l.order {
		if v.Coarser == NoVertex {
			return fmt.Errorf("layer %d: vertex %d has no coarse image", l.level, v.ID)
		}
		if _, ok := c.vertices[v.Coarser]; !ok {
			return fmt.Errorf("layer %d: vertex %d maps to missing coarse vertex %d", l.level, v.ID, v.Coarser)
		}
	}
	for _, v := range l.order {
		for _, e := range v.edges {
			ca, cb := c.vertices[e.a.Coarser], c.vertices[e.b.Coarser]
			if ca.sharedEdge(cb) == nil {
				return fmt.Errorf("layer %d: edge %d (%d-%d) has no coarse edge %d-%d",
					l.level, e.ID, e.A, e.B, ca.ID, cb.ID)
			}
		}
	}
	if m, mc := l.Multiplicity(), c.Multiplicity(); m != mc {
		return fmt.Errorf("layer %d: multiplicity %d, coarser layer has %d", l.level, m, mc)
	}
	return nil
}

// VerifyRedundancy checks that every vertex of the coarser layer is the image
// of at least one vertex of this layer.
func (l *Layer) VerifyRedundancy() bool {
	return l.CheckRedundancy() == nil
}

// CheckRedundancy is [Layer.VerifyRedundancy] returning the first orphan.
func (l *Layer) CheckRedundancy() error {
	c := l.coarser
	if c == nil {
		return nil
	}
	used := make(map[VertexID]bool, len(c.order))
	for _, v := range l.order {
		used[v.Coarser] = true
	}
	for _, cv := range c.order {
		if !used[cv.ID] {
			return fmt.Errorf("layer %d: vertex %d has no finer preimage", c.level, cv.ID)
		}
	}
	return nil
}

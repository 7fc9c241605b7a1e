// Package multilevel implements the coarsening hierarchy and the force-directed
// integrator of the layout engine.
//
// # Layers
//
// A stack of [Layer] values holds the same graph at decreasing resolution.
// Layer 0 is the finest and is the only one callers mutate directly; every
// vertex there has exactly one image in layer 1, every vertex of layer 1 one
// image in layer 2, and so on. Each edge of a layer is mirrored by an edge
// between the images of its endpoints one layer up, so total edge
// multiplicity is the same at every level.
//
// # Matching
//
// When an edge joins two vertices that are both still unmatched, their coarse
// images are merged: the edge "collapses" into a self-loop one level up. When
// the last edge holding a matched pair together is removed, the pair's coarse
// vertex is split again. Both operations recurse through the stack because
// re-homing coarse edges is itself a sequence of edge removals and insertions.
//
//	layers := multilevel.NewStack(2, multilevel.DefaultParams())
//	fine := layers[0]
//	a := fine.AddVertex(vec.New(-1, 0, 0))
//	b := fine.AddVertex(vec.New(1, 0, 0))
//	e := fine.AddEdge(a.ID, b.ID, multilevel.EdgeOptions{})
//	// layers[1] now has one vertex carrying a self-loop.
//	fine.RemoveEdge(e.ID)
//	// layers[1] has two isolated vertices again.
//
// # Layout
//
// [Layer.Layout] advances one velocity-Verlet step. Forces are inverse-square
// repulsion between all bodies, computed exactly or through an octree above a
// size threshold, plus linear springs along edges. Every vertex is also
// dragged by the acceleration of its coarse image, which lets the coarse
// layout unfold large structures quickly while the fine layers refine detail.
//
// # Failure
//
// Broken preconditions, such as unknown handles or removing a vertex whose
// edges remain, panic with an error carrying errors.ErrCodeContractViolation.
// [Layer.VerifyIntegrity] and [Layer.VerifyRedundancy] are non-panicking
// diagnostics.
package multilevel

// Package octree implements the Barnes-Hut spatial subdivision used to
// approximate all-pairs repulsion in O(N log N).
//
// # Structure
//
// Every node covers a cubic region. A node is either empty (absent from its
// parent), a leaf holding exactly one body, or internal with up to eight
// children plus a running position sum and body count. The centroid of a
// subtree is sum/count.
//
// # Lifecycle
//
// The layout engine rebuilds the tree on every tick:
//
//	lo, hi := octree.CubicBounds(minX, maxX, padding)
//	tree.Reset(lo, hi)
//	for i, x := range positions {
//	    tree.Insert(i, x)
//	}
//	// concurrent, read-only:
//	f := tree.Repulsion(i, positions[i], f0, reps)
//
// Nodes come from an arena owned by the [Tree]; Reset rewinds it.
package octree

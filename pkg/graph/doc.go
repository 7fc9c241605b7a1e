// Package graph is the concurrent façade over a multilevel layer stack.
//
// A [Graph] owns the layers of one stack, finest first, and a single
// reader/writer lock that guards all of them. Topology changes take the writer
// lock. A layout pass takes the reader lock and runs the layers from coarsest
// to finest, so the coarse accelerations are available when the finer layers
// compute their velocities. Renderers are readers too.
//
// Layout writes vertex positions while renderers read them without further
// synchronization. A renderer may therefore observe a frame in which some
// vertices have moved and others have not. The topology is never torn.
//
// # Handles
//
// Vertex and edge identifiers handed out by the façade refer to the finest
// layer. Unknown identifiers are reported as errors with the
// [errors.ErrCodeVertexNotFound] or [errors.ErrCodeEdgeNotFound] code instead
// of the contract-violation panics raised by the layer itself.
//
// # Usage
//
//	g, err := graph.New(config.Default(), logger)
//	if err != nil {
//	    return err
//	}
//	a, _ := g.AddVertex(vec.New(-1, 0, 0))
//	b, _ := g.AddVertex(vec.New(1, 0, 0))
//	g.AddEdge(a, b, multilevel.EdgeOptions{Refcounted: true})
//	for range 100 {
//	    g.Layout(1)
//	}
//	snap := g.Snapshot()
package graph

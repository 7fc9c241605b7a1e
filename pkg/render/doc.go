// Package render groups the renderers of layer diagnostics.
//
// The engine draws nothing itself; interactive rendering belongs to clients
// of the snapshot API in [graph] and the websocket stream in [server]. The
// subpackages here only visualize the layer stack for debugging:
//
//   - [dot] writes a layer as Graphviz DOT and renders it to SVG or PNG
//     with the embedded Graphviz of github.com/goccy/go-graphviz.
//
// Collapsed edges, those standing for a contracted pair of vertices, are
// drawn with a heavier pen so the matching chosen by coarsening is visible:
//
//	src, err := dot.Layer(g, 2)
//	svg, err := dot.RenderSVG(ctx, src)
package render

// Package dot dumps multilevel layers as Graphviz DOT for diagnostics.
//
// Every vertex becomes a node named after its id. Every edge becomes one
// directed line from its source to its target; matching edges, whose distinct
// endpoints share one coarse image, are drawn with a heavy pen so the
// coarsening of a layer can be read off the picture:
//
//	digraph G {
//	node [ shape = "circle" ];
//	  v1 [ label = "v1" ];
//	  v2 [ label = "v2" ];
//	  v1 -> v2 [ penwidth = 4 ];
//	}
//
// [RenderSVG] and [RenderPNG] lay the DOT source out with the Graphviz
// library compiled into the binary; no external tools are needed.
package dot

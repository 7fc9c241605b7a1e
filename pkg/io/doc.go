// Package io reads and writes graph scenes as JSON.
//
// A scene file lists vertices with their positions and the edges between
// them:
//
//	{
//	  "vertices": [
//	    {"id": 1, "x": -1, "y": 0, "z": 0},
//	    {"id": 2, "x": 1, "y": 0, "z": 0, "visible": false}
//	  ],
//	  "edges": [
//	    {"from": 1, "to": 2, "refcounted": true, "count": 2},
//	    {"from": 2, "to": 2, "spline": true}
//	  ]
//	}
//
// Vertex ids only need to be unique within the file; [Apply] maps them to the
// handles the graph assigns. Omitted fields take their defaults: vertices
// are visible, edges have strength 1 and multiplicity 1.
//
// A [graph.Snapshot] converts back into a scene with [FromSnapshot], so a
// running layout can be saved and later resumed from the saved positions.
package io

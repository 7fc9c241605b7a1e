package graph

import (
	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/core/vec"
)

// Snapshot is a copy of the finest layer taken under the read lock.
type Snapshot struct {
	Vertices []VertexState `json:"vertices"`
	Edges    []EdgeState   `json:"edges"`
	Min      [3]float64    `json:"min"`
	Max      [3]float64    `json:"max"`
}

// VertexState is the rendered state of one vertex.
type VertexState struct {
	ID      multilevel.VertexID `json:"id"`
	X       float64             `json:"x"`
	Y       float64             `json:"y"`
	Z       float64             `json:"z"`
	Visible bool                `json:"visible"`
}

// Position returns the vertex position as a vector.
func (v VertexState) Position() vec.Vec3 {
	return vec.New(v.X, v.Y, v.Z)
}

// EdgeState is the rendered state of one edge. Centroid is set for spline
// edges.
type EdgeState struct {
	ID         multilevel.EdgeID   `json:"id"`
	From       multilevel.VertexID `json:"from"`
	To         multilevel.VertexID `json:"to"`
	Count      int                 `json:"count"`
	Strength   float64             `json:"strength"`
	Oriented   bool                `json:"oriented,omitempty"`
	Refcounted bool                `json:"refcounted,omitempty"`
	Spline     bool                `json:"spline,omitempty"`
	Centroid   *[3]float64         `json:"centroid,omitempty"`
}

// LayerStats summarizes one layer.
type LayerStats struct {
	Level        int    `json:"level"`
	Kind         string `json:"kind"`
	Vertices     int    `json:"vertices"`
	Edges        int    `json:"edges"`
	Multiplicity int    `json:"multiplicity"`
	Integrity    bool   `json:"integrity"`
	Redundancy   bool   `json:"redundancy"`
}

func array(v vec.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

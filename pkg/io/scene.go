package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/errors"
	"github.com/matzehuels/galaster/pkg/graph"
)

// Scene is the file representation of a graph.
type Scene struct {
	Vertices []Vertex `json:"vertices"`
	Edges    []Edge   `json:"edges"`
}

// Vertex is one vertex of a scene file.
type Vertex struct {
	ID      int64   `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Visible *bool   `json:"visible,omitempty"`
}

// Edge is one edge of a scene file. Count is the multiplicity; refcounted
// edges are inserted Count times into one edge, others become Count parallel
// edges.
type Edge struct {
	From       int64   `json:"from"`
	To         int64   `json:"to"`
	Count      int     `json:"count,omitempty"`
	Strength   float64 `json:"strength,omitempty"`
	Oriented   bool    `json:"oriented,omitempty"`
	Spline     bool    `json:"spline,omitempty"`
	Refcounted bool    `json:"refcounted,omitempty"`
}

// ReadScene decodes and validates a scene.
//
// ReadScene returns an error with the INVALID_SCENE code if:
//   - The JSON is malformed
//   - Two vertices share an id
//   - A coordinate or strength is not finite, or a count is negative
//   - An edge references an unknown vertex id
func ReadScene(r io.Reader) (*Scene, error) {
	var s Scene
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode scene")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks ids, references and numeric fields.
func (s *Scene) Validate() error {
	seen := make(map[int64]bool, len(s.Vertices))
	for _, v := range s.Vertices {
		if seen[v.ID] {
			return errors.New(errors.ErrCodeInvalidScene, "duplicate vertex id %d", v.ID)
		}
		seen[v.ID] = true
		if err := errors.ValidateCoordinates(v.X, v.Y, v.Z); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "vertex %d", v.ID)
		}
	}
	for i, e := range s.Edges {
		if !seen[e.From] || !seen[e.To] {
			return errors.New(errors.ErrCodeInvalidScene, "edge %d: %d->%d references an unknown vertex", i, e.From, e.To)
		}
		if err := errors.ValidateStrength(e.Strength); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "edge %d", i)
		}
		if e.Count < 0 {
			return errors.New(errors.ErrCodeInvalidScene, "edge %d: negative count %d", i, e.Count)
		}
	}
	return nil
}

// WriteScene encodes s as indented JSON.
func WriteScene(w io.Writer, s *Scene) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Apply adds the vertices and edges of s to g and returns the graph handle of
// every file id.
func Apply(g *graph.Graph, s *Scene) (map[int64]multilevel.VertexID, error) {
	ids := make(map[int64]multilevel.VertexID, len(s.Vertices))
	for _, v := range s.Vertices {
		id, err := g.AddVertex(vec.New(v.X, v.Y, v.Z))
		if err != nil {
			return ids, fmt.Errorf("vertex %d: %w", v.ID, err)
		}
		if v.Visible != nil && !*v.Visible {
			if err := g.SetVisible(id, false); err != nil {
				return ids, err
			}
		}
		ids[v.ID] = id
	}
	for _, e := range s.Edges {
		a, okA := ids[e.From]
		b, okB := ids[e.To]
		if !okA || !okB {
			return ids, errors.New(errors.ErrCodeInvalidScene, "edge %d->%d references an unknown vertex", e.From, e.To)
		}
		opts := multilevel.EdgeOptions{
			Strength:   e.Strength,
			Oriented:   e.Oriented,
			Spline:     e.Spline,
			Refcounted: e.Refcounted,
		}
		for range max(e.Count, 1) {
			if _, err := g.AddEdge(a, b, opts); err != nil {
				return ids, fmt.Errorf("edge %d->%d: %w", e.From, e.To, err)
			}
		}
	}
	return ids, nil
}

// ImportScene reads the scene file at path into g.
func ImportScene(path string, g *graph.Graph) (map[int64]multilevel.VertexID, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s, err := ReadScene(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Apply(g, s)
}

// FromSnapshot converts a snapshot into a scene that reproduces it, using
// the graph handles as file ids.
func FromSnapshot(snap graph.Snapshot) *Scene {
	s := &Scene{
		Vertices: make([]Vertex, len(snap.Vertices)),
		Edges:    make([]Edge, len(snap.Edges)),
	}
	for i, v := range snap.Vertices {
		s.Vertices[i] = Vertex{ID: int64(v.ID), X: v.X, Y: v.Y, Z: v.Z}
		if !v.Visible {
			hidden := false
			s.Vertices[i].Visible = &hidden
		}
	}
	for i, e := range snap.Edges {
		s.Edges[i] = Edge{
			From:       int64(e.From),
			To:         int64(e.To),
			Strength:   e.Strength,
			Oriented:   e.Oriented,
			Spline:     e.Spline,
			Refcounted: e.Refcounted,
		}
		if e.Count > 1 {
			s.Edges[i].Count = e.Count
		}
	}
	return s
}

// WriteSnapshot writes snap as a scene file.
func WriteSnapshot(w io.Writer, snap graph.Snapshot) error {
	return WriteScene(w, FromSnapshot(snap))
}

// ExportScene writes the current state of g to path.
func ExportScene(path string, g *graph.Graph) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSnapshot(f, g.Snapshot()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

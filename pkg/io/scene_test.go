package io

import (
	"bytes"
	stdio "io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/galaster/pkg/config"
	"github.com/matzehuels/galaster/pkg/errors"
	"github.com/matzehuels/galaster/pkg/graph"
)

const sample = `{
  "vertices": [
    {"id": 10, "x": -1, "y": 0, "z": 0},
    {"id": 20, "x": 1, "y": 0, "z": 0},
    {"id": 30, "x": 0, "y": 3, "z": 0, "visible": false}
  ],
  "edges": [
    {"from": 10, "to": 20, "refcounted": true, "count": 2},
    {"from": 20, "to": 30, "oriented": true, "strength": 2},
    {"from": 30, "to": 30, "spline": true}
  ]
}`

func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	cfg := config.Default()
	cfg.Layout.Layers = 3
	g, err := graph.New(cfg, log.New(stdio.Discard))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestReadSceneAndApply(t *testing.T) {
	s, err := ReadScene(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ReadScene() error = %v", err)
	}
	g := newGraph(t)
	ids, err := Apply(g, s)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("mapped %d ids, want 3", len(ids))
	}

	snap := g.Snapshot()
	if len(snap.Edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(snap.Edges))
	}
	for _, e := range snap.Edges {
		switch {
		case e.From == ids[10]:
			if e.Count != 2 || !e.Refcounted {
				t.Errorf("refcounted edge = %+v, want count 2", e)
			}
		case e.From == ids[20]:
			if !e.Oriented || e.Strength != 2 {
				t.Errorf("oriented edge = %+v", e)
			}
		case e.From == ids[30]:
			if !e.Spline || e.Centroid == nil {
				t.Errorf("spline loop = %+v", e)
			}
		}
	}
	hidden, err := g.Vertex(ids[30])
	if err != nil {
		t.Fatal(err)
	}
	if hidden.Visible {
		t.Error("vertex 30 should be hidden")
	}
	if err := g.Verify(); err != nil {
		t.Error(err)
	}
}

func TestReadSceneRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"vertices": [`},
		{"unknown field", `{"vertices": [], "nodes": []}`},
		{"duplicate id", `{"vertices": [{"id": 1}, {"id": 1}]}`},
		{"unknown endpoint", `{"vertices": [{"id": 1}], "edges": [{"from": 1, "to": 2}]}`},
		{"negative strength", `{"vertices": [{"id": 1}], "edges": [{"from": 1, "to": 1, "strength": -1}]}`},
		{"negative count", `{"vertices": [{"id": 1}], "edges": [{"from": 1, "to": 1, "count": -2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadScene(strings.NewReader(tt.json))
			if !errors.Is(err, errors.ErrCodeInvalidScene) {
				t.Errorf("ReadScene() error = %v, want INVALID_SCENE", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	s, err := ReadScene(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	g1 := newGraph(t)
	if _, err := Apply(g1, s); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, g1.Snapshot()); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}
	s2, err := ReadScene(&buf)
	if err != nil {
		t.Fatalf("re-read: %v\n%s", err, buf.String())
	}
	g2 := newGraph(t)
	if _, err := Apply(g2, s2); err != nil {
		t.Fatal(err)
	}

	a, b := g1.Stats(), g2.Stats()
	for i := range a {
		if a[i].Vertices != b[i].Vertices || a[i].Edges != b[i].Edges || a[i].Multiplicity != b[i].Multiplicity {
			t.Errorf("layer %d: %+v vs %+v", i, a[i], b[i])
		}
	}
	va, vb := g1.Snapshot().Vertices, g2.Snapshot().Vertices
	for i := range va {
		if va[i].Position() != vb[i].Position() || va[i].Visible != vb[i].Visible {
			t.Errorf("vertex %d: %+v vs %+v", i, va[i], vb[i])
		}
	}
}

func TestImportExportFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(in, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}

	g := newGraph(t)
	if _, err := ImportScene(in, g); err != nil {
		t.Fatalf("ImportScene() error = %v", err)
	}
	out := filepath.Join(dir, "out.json")
	if err := ExportScene(out, g); err != nil {
		t.Fatalf("ExportScene() error = %v", err)
	}
	g2 := newGraph(t)
	if _, err := ImportScene(out, g2); err != nil {
		t.Fatalf("ImportScene(exported) error = %v", err)
	}
	if got := len(g2.Snapshot().Vertices); got != 3 {
		t.Errorf("vertices = %d, want 3", got)
	}

	_, err := ImportScene(filepath.Join(dir, "missing.json"), g)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportScene(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

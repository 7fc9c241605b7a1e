package dot

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/galaster/pkg/cache"
	"github.com/matzehuels/galaster/pkg/config"
	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/graph"
)

func TestToDOT(t *testing.T) {
	layers := multilevel.NewStack(2, multilevel.DefaultParams())
	fine, coarse := layers[0], layers[1]
	a := fine.AddVertex(vec.New(-1, 0, 0))
	b := fine.AddVertex(vec.New(1, 0, 0))
	fine.AddEdge(a.ID, b.ID, multilevel.EdgeOptions{})

	wantFine := `digraph G {
node [ shape = "circle" ];
  v1 [ label = "v1" ];
  v3 [ label = "v3" ];
  v1 -> v3 [ penwidth = 4 ];
}
`
	if got := ToDOT(fine); got != wantFine {
		t.Errorf("finest layer:\n%s\nwant:\n%s", got, wantFine)
	}

	wantCoarse := `digraph G {
node [ shape = "circle" ];
  v2 [ label = "v2" ];
  v2 -> v2 [ penwidth = 1 ];
}
`
	if got := ToDOT(coarse); got != wantCoarse {
		t.Errorf("coarse layer:\n%s\nwant:\n%s", got, wantCoarse)
	}
}

func TestToDOTPlainEdges(t *testing.T) {
	l := multilevel.NewStack(2, multilevel.DefaultParams())[0]
	a := l.AddVertex(vec.Zero)
	b := l.AddVertex(vec.Zero)
	c := l.AddVertex(vec.Zero)
	l.AddEdge(a.ID, b.ID, multilevel.EdgeOptions{})
	l.AddEdge(b.ID, c.ID, multilevel.EdgeOptions{})

	got := ToDOT(l)
	if n := strings.Count(got, "penwidth = 4"); n != 1 {
		t.Errorf("collapsed edges = %d, want 1 (b is already matched)\n%s", n, got)
	}
	if n := strings.Count(got, "penwidth = 1"); n != 1 {
		t.Errorf("plain edges = %d, want 1\n%s", n, got)
	}
}

func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	cfg := config.Default()
	cfg.Layout.Layers = 3
	g, err := graph.New(cfg, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := g.AddVertex(vec.New(-1, 0, 0))
	b, _ := g.AddVertex(vec.New(1, 0, 0))
	if _, err := g.AddEdge(a, b, multilevel.EdgeOptions{}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestWriteLayers(t *testing.T) {
	g := newGraph(t)
	dir := filepath.Join(t.TempDir(), "dump")

	paths, err := WriteLayers(dir, g)
	if err != nil {
		t.Fatalf("WriteLayers() error = %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("wrote %d files, want 3", len(paths))
	}
	for i, p := range paths {
		if filepath.Base(p) != "layer_"+string(rune('0'+i))+".dot" {
			t.Errorf("path %d = %s", i, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte("digraph G {\n")) {
			t.Errorf("%s does not start with a digraph header", p)
		}
	}

	if _, err := Layer(g, 7); err == nil {
		t.Error("Layer(7) should fail on a 3-layer graph")
	}
}

func TestRenderSVG(t *testing.T) {
	src, err := Layer(newGraph(t), 0)
	if err != nil {
		t.Fatal(err)
	}
	svg, err := RenderSVG(context.Background(), src)
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)) {
		t.Errorf("missing normalized root element:\n%s", svg)
	}
	if !bytes.Contains(svg, []byte("v1")) {
		t.Error("SVG should mention vertex v1")
	}
}

func TestCachedSVG(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewLRUCache(4)
	if err != nil {
		t.Fatal(err)
	}
	src := "digraph G {\n  v1 [ label = \"v1\" ];\n}\n"
	key := cache.Key("svg", cache.Hash([]byte(src)))

	if err := c.Set(ctx, key, []byte("<svg>cached</svg>"), 0); err != nil {
		t.Fatal(err)
	}
	got, err := CachedSVG(ctx, c, src, 0)
	if err != nil {
		t.Fatalf("CachedSVG() error = %v", err)
	}
	if string(got) != "<svg>cached</svg>" {
		t.Errorf("CachedSVG() should serve the cached entry, got %s", got)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	got, err = CachedSVG(ctx, c, src, 0)
	if err != nil {
		t.Fatalf("CachedSVG() error = %v", err)
	}
	if stored, ok, _ := c.Get(ctx, key); !ok || !bytes.Equal(stored, got) {
		t.Error("rendered SVG should be stored under the source hash")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() =\n%s\nwant\n%s", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Errorf("svg without viewBox should be unchanged, got %s", got)
	}
}

package dot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/galaster/pkg/cache"
	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/graph"
)

// Pen widths of matching and ordinary edges.
const (
	CollapsedPen = 4
	PlainPen     = 1
)

// ToDOT converts a layer to DOT. Vertices appear in layer order; edges are
// listed once, from their source vertex.
func ToDOT(l *multilevel.Layer) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("node [ shape = \"circle\" ];\n")

	for _, v := range l.Vertices() {
		fmt.Fprintf(&buf, "  v%d [ label = \"v%d\" ];\n", v.ID, v.ID)
	}
	for _, v := range l.Vertices() {
		for _, e := range v.Edges() {
			if e.A != v.ID {
				continue
			}
			pen := PlainPen
			if l.Collapsed(e) {
				pen = CollapsedPen
			}
			fmt.Fprintf(&buf, "  v%d -> v%d [ penwidth = %d ];\n", e.A, e.B, pen)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// Layer renders one level of g to DOT under the graph's read lock.
func Layer(g *graph.Graph, level int) (string, error) {
	var out string
	err := g.ViewLayer(level, func(l *multilevel.Layer) {
		out = ToDOT(l)
	})
	return out, err
}

// WriteLayers writes every layer of g to dir as layer_<level>.dot and returns
// the paths written.
func WriteLayers(dir string, g *graph.Graph) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	paths := make([]string, 0, g.NumLayers())
	for level := range g.NumLayers() {
		src, err := Layer(g, level)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, fmt.Sprintf("layer_%d.dot", level))
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// RenderSVG lays out DOT source and renders it as SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG lays out DOT source and renders it as PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element, whose point-based size
// and transform vary between releases, by one sized to the viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// CachedSVG renders DOT source through c, keyed by the hash of the source.
// Identical layers are laid out once.
func CachedSVG(ctx context.Context, c cache.Cache, src string, ttl time.Duration) ([]byte, error) {
	key := cache.Key("svg", cache.Hash([]byte(src)))
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		return data, nil
	}
	svg, err := RenderSVG(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, svg, ttl); err != nil {
		return nil, fmt.Errorf("cache svg: %w", err)
	}
	return svg, nil
}

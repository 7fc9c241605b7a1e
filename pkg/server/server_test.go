package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/galaster/pkg/cache"
	"github.com/matzehuels/galaster/pkg/config"
	"github.com/matzehuels/galaster/pkg/engine"
	"github.com/matzehuels/galaster/pkg/graph"
	"github.com/matzehuels/galaster/pkg/observability/metrics"
)

type fixture struct {
	g   *graph.Graph
	eng *engine.Engine
	svg *cache.LRUCache
	ts  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Layout.Layers = 3
	logger := log.New(io.Discard)
	g, err := graph.New(cfg, logger)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics.New(reg)

	svg, err := cache.NewLRUCache(8)
	require.NoError(t, err)

	f := &fixture{
		g:   g,
		eng: engine.New(g, cfg.Engine, logger),
		svg: svg,
	}
	srv := New(Options{
		Graph:          g,
		Engine:         f.eng,
		SVGCache:       f.svg,
		Gatherer:       reg,
		StreamInterval: 5 * time.Millisecond,
		Logger:         logger,
	})
	f.ts = httptest.NewServer(srv.Handler())
	t.Cleanup(f.ts.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (f *fixture) create(t *testing.T, path, body string) int64 {
	t.Helper()
	status, data := f.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, status, string(data))
	var out idResponse
	require.NoError(t, json.Unmarshal(data, &out))
	return out.ID
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	status, data := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestMutations(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "/vertices", `{"x":-1}`)
	b := f.create(t, "/vertices", `{"x":1,"visible":false}`)
	e := f.create(t, "/edges", fmt.Sprintf(`{"a":%d,"b":%d,"refcounted":true}`, a, b))
	again := f.create(t, "/edges", fmt.Sprintf(`{"a":%d,"b":%d,"refcounted":true}`, a, b))
	require.Equal(t, e, again, "refcounted insert should reuse the edge")

	status, data := f.do(t, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, status)
	var snap graph.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	require.Len(t, snap.Vertices, 2)
	require.Len(t, snap.Edges, 1)
	require.Equal(t, 2, snap.Edges[0].Count)
	require.False(t, snap.Vertices[1].Visible)

	status, _ = f.do(t, http.MethodPatch, fmt.Sprintf("/edges/%d", e), `{"spline":true}`)
	require.Equal(t, http.StatusNoContent, status)
	require.NotNil(t, f.g.Snapshot().Edges[0].Centroid)

	status, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/edges/%d", e), "")
	require.Equal(t, http.StatusNoContent, status)
	require.Equal(t, 1, f.g.Snapshot().Edges[0].Count)

	status, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/vertices/%d", b), "")
	require.Equal(t, http.StatusNoContent, status)
	snap = f.g.Snapshot()
	require.Len(t, snap.Vertices, 1)
	require.Empty(t, snap.Edges)
	require.NoError(t, f.g.Verify())
}

func TestErrors(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "/vertices", `{}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown vertex", http.MethodDelete, "/vertices/999", "", http.StatusNotFound, "VERTEX_NOT_FOUND"},
		{"unknown edge", http.MethodDelete, "/edges/999", "", http.StatusNotFound, "EDGE_NOT_FOUND"},
		{"edge to unknown vertex", http.MethodPost, "/edges", fmt.Sprintf(`{"a":%d,"b":999}`, a), http.StatusNotFound, "VERTEX_NOT_FOUND"},
		{"bad id", http.MethodDelete, "/vertices/abc", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed body", http.MethodPost, "/vertices", `{"x":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", http.MethodPost, "/vertices", `{"w":1}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"negative strength", http.MethodPost, "/edges", fmt.Sprintf(`{"a":%d,"b":%d,"strength":-1}`, a, a), http.StatusBadRequest, "INVALID_INPUT"},
		{"bad radius", http.MethodPost, "/randomize", `{"radius":-3}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown layer", http.MethodGet, "/layers/7/dot", "", http.StatusNotFound, "LAYER_NOT_FOUND"},
		{"bad layer", http.MethodGet, "/layers/x/dot", "", http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := f.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, status, string(data))
			var out errorResponse
			require.NoError(t, json.Unmarshal(data, &out))
			require.Equal(t, tt.code, string(out.Error))
			require.NotEmpty(t, out.Message)
		})
	}
}

func TestRandomize(t *testing.T) {
	f := newFixture(t)
	for range 10 {
		f.create(t, "/vertices", `{}`)
	}
	status, _ := f.do(t, http.MethodPost, "/randomize", "")
	require.Equal(t, http.StatusNoContent, status)

	status, data := f.do(t, http.MethodGet, "/bbox", "")
	require.Equal(t, http.StatusOK, status)
	var box boxResponse
	require.NoError(t, json.Unmarshal(data, &box))
	// Radius 5 stays inside the seed box.
	require.Equal(t, [3]float64{-graph.BoundsSeed, -graph.BoundsSeed, -graph.BoundsSeed}, box.Min)
	require.Equal(t, [3]float64{graph.BoundsSeed, graph.BoundsSeed, graph.BoundsSeed}, box.Max)
	for _, v := range f.g.Snapshot().Vertices {
		p := v.Position()
		require.Equal(t, p, p.Clamp(5))
	}
}

func TestLayers(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "/vertices", `{"x":-1}`)
	b := f.create(t, "/vertices", `{"x":1}`)
	f.create(t, "/edges", fmt.Sprintf(`{"a":%d,"b":%d}`, a, b))

	status, data := f.do(t, http.MethodGet, "/layers", "")
	require.Equal(t, http.StatusOK, status)
	var stats []graph.LayerStats
	require.NoError(t, json.Unmarshal(data, &stats))
	require.Len(t, stats, 3)
	require.Equal(t, 2, stats[0].Vertices)
	for _, s := range stats {
		require.True(t, s.Integrity, "layer %d", s.Level)
	}

	status, data = f.do(t, http.MethodGet, "/layers/0/dot", "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, strings.HasPrefix(string(data), "digraph G {\n"), string(data))

	status, data = f.do(t, http.MethodGet, "/layers/0/svg", "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, bytes.Contains(data, []byte("<svg")))
	require.Equal(t, 1, f.svg.Len())

	status, _ = f.do(t, http.MethodGet, "/layers/0/svg", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, f.svg.Len(), "unchanged layer should hit the cache")
}

func TestEngineStats(t *testing.T) {
	f := newFixture(t)
	f.create(t, "/vertices", `{}`)
	require.NoError(t, f.eng.Run(t.Context(), 3))

	status, data := f.do(t, http.MethodGet, "/engine", "")
	require.Equal(t, http.StatusOK, status)
	var stats engine.Stats
	require.NoError(t, json.Unmarshal(data, &stats))
	require.False(t, stats.Running)
	require.EqualValues(t, 3, stats.Ticks)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	status, data := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(data), "galaster_engine_running")
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	f.create(t, "/vertices", `{"x":2}`)

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first, second Frame
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	require.NotEmpty(t, first.Session)
	require.Equal(t, first.Session, second.Session)
	require.Equal(t, 0, first.Sequence)
	require.Equal(t, 1, second.Sequence)
	require.Len(t, first.Graph.Vertices, 1)
	require.Equal(t, 2.0, first.Graph.Vertices[0].X)
}

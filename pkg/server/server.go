// Package server exposes a running layout over HTTP.
//
// The API mutates the finest layer and reads snapshots of it:
//
//	GET    /healthz
//	GET    /graph                  snapshot of the finest layer
//	GET    /bbox                   bounding box of the visible vertices
//	GET    /engine                 layout loop counters
//	GET    /layers                 per-layer counts and invariant checks
//	GET    /layers/{level}/dot     Graphviz source of one layer
//	GET    /layers/{level}/svg     rendered layer, cached by source hash
//	POST   /vertices               {"x","y","z","visible"} -> {"id"}
//	DELETE /vertices/{id}
//	POST   /edges                  {"a","b","strength","oriented","spline","refcounted"} -> {"id"}
//	PATCH  /edges/{id}             {"spline"}
//	DELETE /edges/{id}             removes one unit of multiplicity
//	POST   /randomize              {"radius"}
//	GET    /stream                 websocket of snapshots
//	GET    /metrics                Prometheus metrics
//
// Errors are JSON objects with the error code and message. Unknown handles
// answer 404, malformed requests 400.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/galaster/pkg/cache"
	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/engine"
	"github.com/matzehuels/galaster/pkg/errors"
	"github.com/matzehuels/galaster/pkg/graph"
	"github.com/matzehuels/galaster/pkg/render/dot"
)

// Options configures a [Server].
type Options struct {
	Graph  *graph.Graph
	Engine *engine.Engine // optional; /engine answers 404 without it

	// SVGCache stores rendered layers. Nil disables caching.
	SVGCache cache.Cache

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	// StreamInterval is the period of /stream snapshots.
	StreamInterval time.Duration

	Logger *log.Logger
}

// Server serves one graph.
type Server struct {
	g        *graph.Graph
	eng      *engine.Engine
	svg      cache.Cache
	interval time.Duration
	logger   *log.Logger
	router   chi.Router
}

// New wires the routes for opts.
func New(opts Options) *Server {
	s := &Server{
		g:        opts.Graph,
		eng:      opts.Engine,
		svg:      opts.SVGCache,
		interval: opts.StreamInterval,
		logger:   opts.Logger,
	}
	if s.svg == nil {
		s.svg = cache.NewNullCache()
	}
	if s.interval <= 0 {
		s.interval = 50 * time.Millisecond
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Get("/graph", s.snapshot)
	r.Get("/bbox", s.boundingBox)
	r.Get("/engine", s.engineStats)
	r.Get("/layers", s.layers)
	r.Get("/layers/{level}/dot", s.layerDOT)
	r.Get("/layers/{level}/svg", s.layerSVG)
	r.Post("/vertices", s.addVertex)
	r.Delete("/vertices/{id}", s.removeVertex)
	r.Post("/edges", s.addEdge)
	r.Patch("/edges/{id}", s.updateEdge)
	r.Delete("/edges/{id}", s.removeEdge)
	r.Post("/randomize", s.randomize)
	r.Get("/stream", s.stream)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Readers
// =============================================================================

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.g.Snapshot())
}

type boxResponse struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

func (s *Server) boundingBox(w http.ResponseWriter, _ *http.Request) {
	lo, hi := s.g.BoundingBox()
	writeJSON(w, http.StatusOK, boxResponse{
		Min: [3]float64{lo.X, lo.Y, lo.Z},
		Max: [3]float64{hi.X, hi.Y, hi.Z},
	})
}

func (s *Server) engineStats(w http.ResponseWriter, _ *http.Request) {
	if s.eng == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no layout engine attached"))
		return
	}
	writeJSON(w, http.StatusOK, s.eng.Stats())
}

func (s *Server) layers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.g.Stats())
}

func (s *Server) layerDOT(w http.ResponseWriter, r *http.Request) {
	src, err := s.layerSource(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(src))
}

func (s *Server) layerSVG(w http.ResponseWriter, r *http.Request) {
	src, err := s.layerSource(r)
	if err != nil {
		writeError(w, err)
		return
	}
	svg, err := dot.CachedSVG(r.Context(), s.svg, src, 0)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render layer"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) layerSource(r *http.Request) (string, error) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "layer level must be an integer")
	}
	return dot.Layer(s.g, level)
}

// =============================================================================
// Mutations
// =============================================================================

type vertexRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Visible *bool   `json:"visible"`
}

type edgeRequest struct {
	A          multilevel.VertexID `json:"a"`
	B          multilevel.VertexID `json:"b"`
	Strength   float64             `json:"strength"`
	Oriented   bool                `json:"oriented"`
	Spline     bool                `json:"spline"`
	Refcounted bool                `json:"refcounted"`
}

type edgePatch struct {
	Spline *bool `json:"spline"`
}

type randomizeRequest struct {
	Radius float64 `json:"radius"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) addVertex(w http.ResponseWriter, r *http.Request) {
	var req vertexRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := s.g.AddVertex(vec.New(req.X, req.Y, req.Z))
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Visible != nil && !*req.Visible {
		if err := s.g.SetVisible(id, false); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: int64(id)})
}

func (s *Server) removeVertex(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.g.RemoveVertex(multilevel.VertexID(id)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := s.g.AddEdge(req.A, req.B, multilevel.EdgeOptions{
		Strength:   req.Strength,
		Oriented:   req.Oriented,
		Spline:     req.Spline,
		Refcounted: req.Refcounted,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: int64(id)})
}

func (s *Server) updateEdge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req edgePatch
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Spline != nil {
		if err := s.g.SetSpline(multilevel.EdgeID(id), *req.Spline); err != nil {
			writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeEdge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.g.RemoveEdge(multilevel.EdgeID(id)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) randomize(w http.ResponseWriter, r *http.Request) {
	req := randomizeRequest{Radius: 5}
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Radius <= 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "radius must be positive"))
		return
	}
	if err := s.g.Randomize(req.Radius); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

const maxBodyBytes = 1 << 20

// decode reads a JSON body into v. An empty body leaves v unchanged.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "id must be an integer")
	}
	return id, nil
}

type errorResponse struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Error: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeVertexNotFound, errors.ErrCodeEdgeNotFound,
		errors.ErrCodeLayerNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidScene, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeContractViolation:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeClosed, errors.ErrCodeRunning:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

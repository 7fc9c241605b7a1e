// Package observability provides hooks for metrics and tracing of the layout
// engine.
//
// The engine, the graph façade, the cache and the HTTP server report events
// through small hook interfaces. No-op implementations are installed by
// default; the serve command registers the Prometheus implementation from the
// metrics subpackage at startup.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Libraries never import a metrics backend; main wires one in.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(metrics.New(prometheus.DefaultRegisterer))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnTick(ctx, dt, maxAccel, elapsed)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout loop.
type LayoutHooks interface {
	// OnTick records one pass over all layers.
	OnTick(ctx context.Context, dt, maxAccel float64, duration time.Duration)

	// OnFrame records one frame of the loop: the ticks run inside it and the
	// frame's wall-clock length.
	OnFrame(ctx context.Context, ticks int, duration time.Duration)

	// Loop lifecycle events
	OnEngineStart(ctx context.Context, vertices int)
	OnEngineStop(ctx context.Context, ticks uint64)
}

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from topology changes on the graph façade.
type GraphHooks interface {
	// OnMutation records one mutation such as "add_vertex" or "remove_edge".
	OnMutation(ctx context.Context, op string, duration time.Duration, err error)

	// OnSize records the vertex and edge count of a layer after a mutation.
	OnSize(ctx context.Context, level, vertices, edges int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Stream Hooks
// =============================================================================

// StreamHooks receives events from the websocket snapshot stream.
type StreamHooks interface {
	OnSessionOpen(ctx context.Context, sessionID string)
	OnSessionClose(ctx context.Context, sessionID string, frames int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnTick(context.Context, float64, float64, time.Duration) {}
func (NoopLayoutHooks) OnFrame(context.Context, int, time.Duration)             {}
func (NoopLayoutHooks) OnEngineStart(context.Context, int)                      {}
func (NoopLayoutHooks) OnEngineStop(context.Context, uint64)                    {}

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnMutation(context.Context, string, time.Duration, error) {}
func (NoopGraphHooks) OnSize(context.Context, int, int, int)                    {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopStreamHooks is a no-op implementation of StreamHooks.
type NoopStreamHooks struct{}

func (NoopStreamHooks) OnSessionOpen(context.Context, string)              {}
func (NoopStreamHooks) OnSessionClose(context.Context, string, int, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	graphHooks  GraphHooks  = NoopGraphHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	streamHooks StreamHooks = NoopStreamHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before the loop starts.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetGraphHooks registers custom graph hooks.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetStreamHooks registers custom stream hooks.
func SetStreamHooks(h StreamHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		streamHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Stream returns the registered stream hooks.
func Stream() StreamHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return streamHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	graphHooks = NoopGraphHooks{}
	cacheHooks = NoopCacheHooks{}
	streamHooks = NoopStreamHooks{}
}

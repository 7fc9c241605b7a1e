// Package pkg provides the libraries of the galaster layout engine.
//
// # Overview
//
// Galaster lays out large graphs in three dimensions with a multilevel
// force-directed method. The graph is kept as a stack of layers: the finest
// layer holds the graph as built by the caller, every coarser layer is a
// matching-based contraction of the one below it. Edits to the finest layer
// are propagated up the stack immediately, and each layout tick relaxes the
// stack from the coarsest layer down so coarse structure settles first.
//
// The pkg directory is organized into these areas:
//
//  1. [core] - The engine itself: [core/vec], [core/octree], [core/multilevel]
//  2. [graph] - The locked façade the rest of the program mutates and reads
//  3. [engine] - The background layout loop with its adaptive timestep
//  4. [scene] and [io] - Generators and JSON scene files
//  5. [render/dot] - Graphviz diagnostics of individual layers
//  6. [server] - HTTP and websocket access for external renderers
//
// Supporting packages: [config] (TOML configuration), [errors] (coded
// errors and contract violations), [cache] (rendered layer cache) and
// [observability] (hooks with a Prometheus implementation).
//
// # Architecture
//
// The typical data flow:
//
//	scene generator / scene file / HTTP mutation
//	         ↓
//	    [graph] package (writer lock, finest layer edits)
//	         ↓
//	    [core/multilevel] (coarsening propagates to every layer)
//	         ↓
//	    [engine] loop (layout ticks under the reader lock)
//	         ↓
//	    snapshots → renderer, websocket stream, DOT/SVG
//
// # Quick Start
//
//	cfg := config.Default()
//	cfg.Scene.Generator = "cube"
//	cfg.Scene.Size = 8
//
//	g, err := scene.Build(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	eng := engine.New(g, cfg.Engine, logger)
//	if err := eng.Start(ctx); err != nil {
//	    return err
//	}
//	defer eng.Stop()
//
//	snap := g.Snapshot() // positions of the finest layer
//
// # Concurrency
//
// Mutations take the graph's writer lock; layout ticks and snapshots take
// the reader lock. Layout writes vertex positions while holding only the
// reader lock, so a snapshot taken during a tick may mix positions from
// before and after it. Renderers tolerate this; topology is never torn.
package pkg

// Package scene populates graphs with the demonstration scenes of the viewer.
//
// Every generator drives a [graph.Graph] through its public mutators, using a
// seeded random source so a scene can be reproduced:
//
//	rng := rand.New(rand.NewPCG(seed, seed))
//	ids, err := scene.Random(g, rng, 300, 3)
//
// [Build] selects a generator by name from the configuration, applies the
// physical constants the scene was tuned for and returns the populated graph.
// Some scenes keep changing after they are built; [Animate] replays such
// mutation sequences on their own goroutine while the layout loop runs.
package scene

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/galaster/pkg/config"
	"github.com/matzehuels/galaster/pkg/errors"
	"github.com/matzehuels/galaster/pkg/graph"
)

// Generator describes one named scene.
type Generator struct {
	Name        string
	Description string

	// F0 and Dilation override the configured constants when non-zero.
	F0       float64
	Dilation float64

	// Build populates g. size and edges are the scene's two size knobs; their
	// meaning depends on the generator. Scenes that keep changing return an
	// Animation, the others nil.
	Build func(g *graph.Graph, rng *rand.Rand, size, edges int) (Animation, error)
}

// Animation yields the next batch of mutations of a live scene and the
// interval at which [Animate] should replay them.
type Animation func() ([]Step, time.Duration)

var generators = map[string]Generator{
	"random": {
		Name:        "random",
		Description: "size vertices, each linked forward to 1..edges others",
		Build: func(g *graph.Graph, rng *rand.Rand, size, edges int) (Animation, error) {
			_, err := Random(g, rng, size, edges)
			return nil, err
		},
	},
	"cube": {
		Name:        "cube",
		Description: "size^3 lattice with axis-neighbour edges",
		F0:          30,
		Dilation:    0.8,
		Build: func(g *graph.Graph, rng *rand.Rand, size, _ int) (Animation, error) {
			_, err := Cube(g, rng, size, false)
			return nil, err
		},
	},
	"spline-cube": {
		Name:        "spline-cube",
		Description: "cube with spline edges",
		F0:          30,
		Dilation:    0.8,
		Build: func(g *graph.Graph, rng *rand.Rand, size, _ int) (Animation, error) {
			_, err := Cube(g, rng, size, true)
			return nil, err
		},
	},
	"membrane": {
		Name:        "membrane",
		Description: "size rows by edges lines sheet",
		F0:          30,
		Dilation:    0.8,
		Build: func(g *graph.Graph, rng *rand.Rand, size, edges int) (Animation, error) {
			m, err := NewMembrane(g, rng, size, edges)
			if err != nil {
				return nil, err
			}
			return m.Next, nil
		},
	},
	"splines": {
		Name:        "splines",
		Description: "size vertices with edges random spline edges each",
		Build: func(g *graph.Graph, rng *rand.Rand, size, edges int) (Animation, error) {
			_, err := Splines(g, rng, size, edges)
			return nil, err
		},
	},
	"tree": {
		Name:        "tree",
		Description: "binary search tree of size random keys with oriented edges",
		F0:          30,
		Dilation:    0.8,
		Build: func(g *graph.Graph, rng *rand.Rand, size, _ int) (Animation, error) {
			t, err := NewBinaryTree(g, rng)
			if err != nil {
				return nil, err
			}
			for t.Size() < size {
				if err := t.InsertRandom(); err != nil {
					return nil, err
				}
			}
			return func() ([]Step, time.Duration) {
				return t.Steps(treeBatch), treeInterval
			}, nil
		},
	},
}

// Names returns the registered generator names in sorted order.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the generator registered under name.
func Lookup(name string) (Generator, error) {
	gen, ok := generators[name]
	if !ok {
		return Generator{}, errors.New(errors.ErrCodeInvalidScene, "unknown scene %q (available: %v)", name, Names())
	}
	return gen, nil
}

// Configure applies the generator's constants to cfg.
func (gen Generator) Configure(cfg *config.Config) {
	if gen.F0 != 0 {
		cfg.Layout.F0 = gen.F0
	}
	if gen.Dilation != 0 {
		cfg.Layout.Dilation = gen.Dilation
	}
}

// NewRand returns the random source used for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xda942042e4dd58b5))
}

// Growth of the animated tree scene.
const (
	treeBatch    = 10
	treeInterval = 100 * time.Millisecond
)

// Build creates a graph for cfg and populates it with the scene named by
// cfg.Scene.Generator.
func Build(cfg config.Config, logger *log.Logger) (*graph.Graph, error) {
	g, _, err := BuildAnimated(cfg, logger)
	return g, err
}

// BuildAnimated is [Build] for callers that also replay the scene's
// animation. The Animation is nil for static scenes.
func BuildAnimated(cfg config.Config, logger *log.Logger) (*graph.Graph, Animation, error) {
	if logger == nil {
		logger = log.Default()
	}
	gen, err := Lookup(cfg.Scene.Generator)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Scene.Size < 1 {
		return nil, nil, errors.New(errors.ErrCodeInvalidScene, "scene size must be positive, got %d", cfg.Scene.Size)
	}
	gen.Configure(&cfg)

	g, err := graph.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	anim, err := gen.Build(g, NewRand(cfg.Scene.Seed), cfg.Scene.Size, cfg.Scene.Edges)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "build %s scene", gen.Name)
	}
	stats := g.Stats()
	logger.Debug("scene built", "scene", gen.Name, "vertices", stats[0].Vertices, "edges", stats[0].Edges, "animated", anim != nil)
	return g, anim, nil
}

// Play replays anim batch after batch until ctx is cancelled, a step fails or
// anim runs dry. It returns nil on cancellation.
func Play(ctx context.Context, g *graph.Graph, anim Animation) error {
	for ctx.Err() == nil {
		steps, interval := anim()
		if len(steps) == 0 {
			return nil
		}
		if err := <-Animate(ctx, g, steps, interval); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/galaster/pkg/graph"
	"github.com/matzehuels/galaster/pkg/render/dot"
	"github.com/matzehuels/galaster/pkg/scene"
)

// verifyRadius bounds the random vertex positions of the stress test.
const verifyRadius = 100

// verifyOpts holds the command-line flags for the verify command.
type verifyOpts struct {
	vertices int
	layers   int
	ops      int
	seed     uint64
	dotDir   string // dump every layer as DOT after the churn phase
}

// verifyCommand runs the randomized coarsening stress test: random edge
// insertions and removals followed by a full teardown, checking the layer
// invariants after every operation.
func (c *CLI) verifyCommand() *cobra.Command {
	opts := verifyOpts{vertices: 100, layers: 6, ops: 600, seed: 1}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Stress-test coarsening with random edits",
		Long: `Verify adds random vertices, applies random edge insertions and removals,
then tears the graph down edge by edge. The integrity and redundancy of every
layer are checked after each operation; the first failure aborts the run.`,
		Example: `  galaster verify --vertices 200 --ops 5000 --seed 7
  galaster verify --dot-dir ./layers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVerify(cmd, &opts)
		},
	}

	cmd.Flags().IntVar(&opts.vertices, "vertices", opts.vertices, "number of vertices")
	cmd.Flags().IntVarP(&opts.layers, "layers", "l", opts.layers, "number of layers")
	cmd.Flags().IntVar(&opts.ops, "ops", opts.ops, "number of random edge operations")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "random seed")
	cmd.Flags().StringVar(&opts.dotDir, "dot-dir", "", "write layer_<i>.dot files after the random phase")

	return cmd
}

func (c *CLI) runVerify(cmd *cobra.Command, opts *verifyOpts) error {
	if opts.vertices < 1 || opts.ops < 0 {
		return fmt.Errorf("need at least one vertex and a non-negative op count")
	}
	cfg, err := c.loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	cfg.Layout.Layers = opts.layers
	if err := cfg.Validate(); err != nil {
		return err
	}

	g, err := graph.New(cfg, c.Logger)
	if err != nil {
		return err
	}
	defer g.Close()

	rng := scene.NewRand(opts.seed)
	ids, err := scene.AddVertices(g, rng, opts.vertices, verifyRadius)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(cmd.Context(), "Applying random edits...")
	spinner.Start()
	stats, err := scene.Churn(g, rng, ids, opts.ops, func(op int) error {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		if err := g.Verify(); err != nil {
			return fmt.Errorf("after op %d: %w", op, err)
		}
		return nil
	})
	if err != nil {
		spinner.StopWithError("Random phase failed")
		return err
	}
	spinner.StopWithSuccess("%d edits: %d added, %d removed, %d skipped",
		opts.ops, stats.Added, stats.Removed, stats.Skipped)
	printLayers(g.Stats())

	if opts.dotDir != "" {
		paths, err := dot.WriteLayers(opts.dotDir, g)
		if err != nil {
			return err
		}
		for _, p := range paths {
			printFile(p)
		}
	}

	removals := 0
	if err := scene.Teardown(g, func() error {
		removals++
		if err := g.Verify(); err != nil {
			return fmt.Errorf("after removal %d: %w", removals, err)
		}
		return nil
	}); err != nil {
		printError("Teardown failed")
		return err
	}
	for _, s := range g.Stats() {
		if s.Vertices != 0 || s.Edges != 0 {
			return fmt.Errorf("layer %d not empty after teardown: %d vertices, %d edges", s.Level, s.Vertices, s.Edges)
		}
	}
	printSuccess("Teardown clean after %d removals", removals)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/galaster/pkg/cache"
	"github.com/matzehuels/galaster/pkg/engine"
	"github.com/matzehuels/galaster/pkg/graph"
	"github.com/matzehuels/galaster/pkg/render/dot"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPNG = "png"

	// svgCacheTTL is the lifetime of rendered layers in the file cache.
	svgCacheTTL = 7 * 24 * time.Hour
)

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatDOT: true, formatSVG: true, formatPNG: true}

// dotOpts holds the command-line flags for the dot command.
type dotOpts struct {
	scene   sceneOpts
	ticks   int    // layout ticks before the layers are written
	format  string // dot, svg or png
	outDir  string
	noCache bool
}

// dotCommand writes every layer of a scene as a Graphviz file or image.
func (c *CLI) dotCommand() *cobra.Command {
	opts := dotOpts{format: formatDOT, outDir: "."}

	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Write every layer of a scene as DOT, SVG or PNG",
		Example: `  galaster dot --scene membrane --size 6 --edges 8 -o layers
  galaster dot --input scene.json --format svg --ticks 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormats[opts.format] {
				return fmt.Errorf("invalid format: %s (must be 'dot', 'svg' or 'png')", opts.format)
			}
			return c.runDot(cmd, &opts)
		},
	}

	opts.scene.register(cmd)
	cmd.Flags().IntVarP(&opts.ticks, "ticks", "t", 0, "layout ticks to run before writing")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot (default), svg, png")
	cmd.Flags().StringVarP(&opts.outDir, "output", "o", opts.outDir, "output directory")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "render SVGs without the file cache")

	return cmd
}

func (c *CLI) runDot(cmd *cobra.Command, opts *dotOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig(cmd, &opts.scene)
	if err != nil {
		return err
	}
	g, err := c.buildGraph(cfg, &opts.scene)
	if err != nil {
		return err
	}
	defer g.Close()

	if opts.ticks > 0 {
		if err := engine.New(g, cfg.Engine, c.Logger).Run(ctx, opts.ticks); err != nil {
			return err
		}
	}

	var paths []string
	switch opts.format {
	case formatDOT:
		paths, err = dot.WriteLayers(opts.outDir, g)
	default:
		paths, err = c.writeImages(ctx, g, opts)
	}
	if err != nil {
		return err
	}

	printSuccess("Wrote %d layers", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeImages renders every layer through Graphviz. SVGs go through the file
// cache so unchanged layers are not laid out again.
func (c *CLI) writeImages(ctx context.Context, g *graph.Graph, opts *dotOpts) ([]string, error) {
	store, err := newCache(opts.noCache)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	store = cache.Instrument(store, formatSVG)

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", opts.outDir, err)
	}

	spinner := newSpinnerWithContext(ctx, "Rendering layers...")
	spinner.Start()
	defer spinner.Stop()

	paths := make([]string, 0, g.NumLayers())
	for level := range g.NumLayers() {
		spinner.SetMessage("Rendering layer %d of %d...", level+1, g.NumLayers())
		src, err := dot.Layer(g, level)
		if err != nil {
			return paths, err
		}

		var data []byte
		if opts.format == formatSVG {
			data, err = dot.CachedSVG(ctx, store, src, svgCacheTTL)
		} else {
			data, err = dot.RenderPNG(ctx, src)
		}
		if err != nil {
			return paths, fmt.Errorf("layer %d: %w", level, err)
		}

		path := filepath.Join(opts.outDir, fmt.Sprintf("layer_%d.%s", level, opts.format))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

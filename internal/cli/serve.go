package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/galaster/pkg/cache"
	"github.com/matzehuels/galaster/pkg/engine"
	"github.com/matzehuels/galaster/pkg/observability/metrics"
	"github.com/matzehuels/galaster/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	scene sceneOpts
	addr  string
}

// serveCommand runs the layout loop behind the HTTP and websocket API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout and serve it over HTTP",
		Long: `Serve builds a scene, starts the layout loop and exposes the graph over HTTP:
snapshots, mutations, per-layer DOT and SVG, a websocket stream of positions
and Prometheus metrics.`,
		Example: `  galaster serve --scene tree --size 300 --addr :9000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	opts.scene.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig(cmd, &opts.scene)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	metrics.New(prometheus.DefaultRegisterer).Install()

	g, err := c.buildGraph(cfg, &opts.scene)
	if err != nil {
		return err
	}
	defer g.Close()

	svg, err := cache.NewLRUCache(cfg.Server.SVGCacheSize)
	if err != nil {
		return err
	}
	defer svg.Close()

	eng := engine.New(g, cfg.Engine, c.Logger)
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	srv := server.New(server.Options{
		Graph:          g,
		Engine:         eng,
		SVGCache:       cache.Instrument(svg, formatSVG),
		Gatherer:       prometheus.DefaultGatherer,
		StreamInterval: cfg.Server.StreamInterval.Duration,
		Logger:         c.Logger,
	})

	printInfo("Serving %s scene on %s", cfg.Scene.Generator, cfg.Server.Addr)
	printNextStep("Snapshot", "curl http://localhost"+cfg.Server.Addr+"/graph")
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

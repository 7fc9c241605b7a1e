// Package cli implements the galaster command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/galaster/pkg/buildinfo"
	"github.com/matzehuels/galaster/pkg/cache"
	"github.com/matzehuels/galaster/pkg/config"
	"github.com/matzehuels/galaster/pkg/graph"
	sceneio "github.com/matzehuels/galaster/pkg/io"
	"github.com/matzehuels/galaster/pkg/scene"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "galaster"

	// randomizeRadius is the scatter radius of the watch view's reset key.
	randomizeRadius = 5
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Galaster lays out large graphs in 3D",
		Long:         `Galaster is a multilevel force-directed layout engine. It keeps a stack of coarsened copies of a graph consistent under live edits and relaxes them from the coarsest to the finest.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML configuration file")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration and Scenes
// =============================================================================

// sceneOpts holds the flags shared by every command that builds a graph.
// Flags override the configuration file only when given explicitly.
type sceneOpts struct {
	input     string // scene file; replaces the generator when set
	generator string
	size      int
	edges     int
	seed      uint64
	layers    int
}

func (o *sceneOpts) register(cmd *cobra.Command) {
	def := config.Default()
	cmd.Flags().StringVarP(&o.input, "input", "i", "", "scene file (JSON) to load instead of a generator")
	cmd.Flags().StringVarP(&o.generator, "scene", "s", def.Scene.Generator, "scene generator")
	cmd.Flags().IntVarP(&o.size, "size", "n", def.Scene.Size, "scene size")
	cmd.Flags().IntVar(&o.edges, "edges", def.Scene.Edges, "edges per vertex (scene dependent)")
	cmd.Flags().Uint64Var(&o.seed, "seed", def.Scene.Seed, "random seed")
	cmd.Flags().IntVarP(&o.layers, "layers", "l", def.Layout.Layers, "number of layers")

	_ = cmd.RegisterFlagCompletionFunc("scene", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return scene.Names(), cobra.ShellCompDirectiveNoFileComp
	})
}

// loadConfig reads --config (or the defaults) and applies the scene flags
// that were set on cmd.
func (c *CLI) loadConfig(cmd *cobra.Command, o *sceneOpts) (config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return cfg, err
		}
	}
	if o == nil {
		return cfg, nil
	}

	flags := cmd.Flags()
	if flags.Changed("scene") {
		cfg.Scene.Generator = o.generator
	}
	if flags.Changed("size") {
		cfg.Scene.Size = o.size
	}
	if flags.Changed("edges") {
		cfg.Scene.Edges = o.edges
	}
	if flags.Changed("seed") {
		cfg.Scene.Seed = o.seed
	}
	if flags.Changed("layers") {
		cfg.Layout.Layers = o.layers
	}
	return cfg, cfg.Validate()
}

// buildGraph populates a graph from --input or from the configured generator.
func (c *CLI) buildGraph(cfg config.Config, o *sceneOpts) (*graph.Graph, error) {
	g, _, err := c.buildScene(cfg, o)
	return g, err
}

// buildScene is buildGraph plus the generator's animation, which is nil for
// static scenes and scene files.
func (c *CLI) buildScene(cfg config.Config, o *sceneOpts) (*graph.Graph, scene.Animation, error) {
	if o.input == "" {
		return scene.BuildAnimated(cfg, c.Logger)
	}
	g, err := graph.New(cfg, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	if _, err := sceneio.ImportScene(o.input, g); err != nil {
		return nil, nil, err
	}
	return g, nil, nil
}

// =============================================================================
// Cache
// =============================================================================

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/galaster/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

package cli

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/galaster/pkg/engine"
	"github.com/matzehuels/galaster/pkg/scene"
)

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	scene   sceneOpts
	refresh time.Duration
	animate bool
}

// watchCommand runs the layout loop under a live terminal dashboard.
func (c *CLI) watchCommand() *cobra.Command {
	opts := watchOpts{refresh: 200 * time.Millisecond}

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Run the layout with a live dashboard",
		Example: `  galaster watch --scene random --size 2000 --edges 3
  galaster watch --scene membrane --size 20 --edges 20 --animate`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd, &opts)
		},
	}

	opts.scene.register(cmd)
	cmd.Flags().DurationVar(&opts.refresh, "refresh", opts.refresh, "dashboard refresh interval")
	cmd.Flags().BoolVar(&opts.animate, "animate", false, "keep mutating scenes that animate (membrane, tree)")

	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, opts *watchOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig(cmd, &opts.scene)
	if err != nil {
		return err
	}
	g, anim, err := c.buildScene(cfg, &opts.scene)
	if err != nil {
		return err
	}
	defer g.Close()

	// The dashboard owns the terminal; keep log lines out of it.
	c.SetLogLevel(LogWarn)

	eng := engine.New(g, cfg.Engine, c.Logger)
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	model := newWatchModel(cfg.Scene.Generator, g, eng, opts.refresh)
	if !opts.animate || anim == nil {
		_, err = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
		return err
	}

	// The animation must be done with the graph before it is closed.
	ctx, cancel := context.WithCancel(ctx)
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return scene.Play(ctx, g, anim)
	})
	grp.Go(func() error {
		defer cancel()
		_, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	return grp.Wait()
}

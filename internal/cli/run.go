package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/galaster/pkg/engine"
	sceneio "github.com/matzehuels/galaster/pkg/io"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	scene    sceneOpts
	duration time.Duration // how long the layout loop runs
	output   string        // optional scene file written after the run
}

// runCommand builds a scene, relaxes it for a fixed time and reports the
// resulting layer stack.
func (c *CLI) runCommand() *cobra.Command {
	opts := runOpts{duration: 5 * time.Second}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a scene and run the layout for a while",
		Example: `  galaster run --scene cube --size 8 --duration 10s
  galaster run --input scene.json -o relaxed.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd, &opts)
		},
	}

	opts.scene.register(cmd)
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", opts.duration, "how long to run the layout")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the relaxed scene to this file")

	return cmd
}

func (c *CLI) runRun(cmd *cobra.Command, opts *runOpts) error {
	if opts.duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", opts.duration)
	}
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

	eng := engine.New(g, cfg.Engine, c.Logger)
	prog := newProgress(c.Logger)
	if err := relax(ctx, eng, opts.duration); err != nil {
		return err
	}
	stats := eng.Stats()
	prog.done("Layout finished", "ticks", stats.Ticks)

	printSuccess("Ran %d ticks in %s", stats.Ticks, opts.duration)
	printLayers(g.Stats())
	printKeyValue("dt", fmt.Sprintf("%.3f", stats.DT))
	printKeyValue("max accel", fmt.Sprintf("%.4g", stats.MaxAccel))
	printKeyValue("bounds", formatBox(g.BoundingBox()))

	if opts.output != "" {
		if err := sceneio.ExportScene(opts.output, g); err != nil {
			return err
		}
		printFile(opts.output)
	}
	return nil
}

// relax runs the engine loop for d while a spinner reports the tick count.
// It returns the parent context's error if the run was interrupted.
func relax(ctx context.Context, eng *engine.Engine, d time.Duration) error {
	runCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	spinner := newSpinnerWithContext(runCtx, "Relaxing...")
	spinner.Start()
	defer spinner.Stop()

	if err := eng.Start(runCtx); err != nil {
		return err
	}
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-runCtx.Done():
			eng.Stop()
			return ctx.Err()
		case <-tick.C:
			s := eng.Stats()
			spinner.SetMessage("Relaxing... %d ticks, %.0f ticks/s", s.Ticks, s.TicksPerSecond)
		}
	}
}

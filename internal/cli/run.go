package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railsim/pkg/pipeline"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	mode    string // engine: parallel or sequential
	workers int    // scheduler bound, 0 for GOMAXPROCS
	reduce  bool   // drop implied train dependencies first
	refresh bool   // recompute even when cached
	json    bool   // print the result as JSON instead of a table
	tui     bool   // show live progress
	output  string // also write the JSON result to this file
	cache   cacheFlags
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	opts := runOpts{mode: pipeline.DefaultMode}

	cmd := &cobra.Command{
		Use:   "run [scenario.toml|-]",
		Short: "Compute exit-time distributions for a scenario",
		Long: `Compute the exit-time distribution of every route of every train segment.

Results are cached by scenario content and options, on disk by default or
in Redis with --redis.

--reduce removes conflicts already implied by other ones. It keeps every
scheduled time but may shift exit distributions slightly, since the model
treats the remaining conflict releases as independent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateMode(opts.mode); err != nil {
				return err
			}
			return c.runRun(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", opts.mode, "engine: parallel or sequential")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parallel workers (0 for GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.reduce, "reduce", false, "drop train dependencies implied by other paths (scheduled times are kept, distributions may differ)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if the result is cached")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show live scheduler progress")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the JSON result to a file")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runRun(cmd *cobra.Command, path string, opts *runOpts) error {
	ctx := cmd.Context()
	s, err := loadScenario(cmd, path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Scenario: s,
		Mode:     opts.mode,
		Workers:  opts.workers,
		Reduce:   opts.reduce,
		Refresh:  opts.refresh,
	}

	prog := newProgress(c.Logger)
	var res *pipeline.Result
	if opts.tui {
		res, err = runWithTUI(ctx, runner, popts, cmd.ErrOrStderr())
	} else {
		res, err = runner.Execute(ctx, popts)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Computed %d nodes", res.Stats.Nodes))

	if opts.output != "" {
		data, err := pipeline.MarshalResult(res)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.output, data, 0o644); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printRun(out, res)
	if opts.output != "" {
		printFile(out, opts.output)
	}
	return nil
}

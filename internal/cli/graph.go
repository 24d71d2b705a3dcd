package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/dag/transform"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/propagate"
	"github.com/matzehuels/railsim/pkg/render/nodelink"
	"github.com/matzehuels/railsim/pkg/scenario"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output   string // output file, stdout if empty
	format   string // dot or svg, inferred from output if empty
	detailed bool   // list member routes in node labels
	reduce   bool   // drop implied train dependencies
	times    bool   // annotate nodes with scheduled times
}

// graphCommand creates the graph command. A cyclic graph is still drawn,
// with one cycle highlighted.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [scenario.toml|-]",
		Short: "Export the dependency graph as DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := graphFormat(opts.format, opts.output)
			if err != nil {
				return err
			}
			opts.format = format
			return c.runGraph(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot (default) or svg")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "list member routes in node labels")
	cmd.Flags().BoolVar(&opts.reduce, "reduce", false, "drop train dependencies implied by other paths")
	cmd.Flags().BoolVar(&opts.times, "times", false, "annotate nodes with scheduled entry and exit")

	return cmd
}

// graphFormat resolves the output format from the flag or the file extension.
func graphFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
		if format == "" || format == "gv" {
			format = formatDOT
		}
	}
	switch format {
	case formatDOT, formatSVG:
		return format, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid format %q (must be %s or %s)", format, formatDOT, formatSVG)
}

func (c *CLI) runGraph(cmd *cobra.Command, path string, opts *graphOpts) error {
	s, err := loadScenario(cmd, path)
	if err != nil {
		return err
	}
	net, err := s.Build()
	if err != nil {
		return err
	}

	g := net.Graph
	nopts := nodelink.Options{Detailed: opts.detailed}
	if cycle, ok := g.FindCycle(); ok {
		nopts.Highlight = cycle
		printWarning(cmd.ErrOrStderr(), "dependency cycle: %s", cycleNames(g, cycle))
	} else {
		if opts.reduce {
			reduced, removed, err := transform.TransitiveReduction(g)
			if err != nil {
				return err
			}
			c.Logger.Info("reduced train dependencies", "removed", removed)
			net, g = net.WithGraph(reduced), reduced
		}
		if opts.times {
			if nopts.Notes, err = scheduledNotes(net, c.Logger); err != nil {
				return err
			}
		}
	}

	data := []byte(nodelink.ToDOT(g, nopts))
	if opts.format == formatSVG {
		spin := newSpinnerWithContext(cmd.Context(), cmd.ErrOrStderr(), "Rendering SVG...")
		spin.Start()
		data, err = nodelink.RenderSVG(cmd.Context(), string(data))
		spin.Stop()
		if err != nil {
			return err
		}
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printFile(cmd.ErrOrStderr(), opts.output)
	return nil
}

// scheduledNotes labels every node with its scheduled entry and exit.
func scheduledNotes(net *scenario.Network, logger *log.Logger) (map[dag.NodeID]string, error) {
	tt, err := net.Timetable()
	if err != nil {
		return nil, err
	}
	if _, err := propagate.Run(net.Graph, tt.Step, propagate.Options{Logger: logger}); err != nil {
		return nil, err
	}
	notes := make(map[dag.NodeID]string, len(tt.Times))
	for i, t := range tt.Times {
		notes[dag.NodeID(i)] = fmt.Sprintf("%s - %s", scenario.Clock(t.Entry), scenario.Clock(t.Exit))
	}
	return notes, nil
}

func cycleNames(g *dag.Graph, c dag.Cycle) string {
	names := make([]string, len(c))
	for i, id := range c {
		names[i] = g.Name(id)
	}
	return strings.Join(names, " "+iconArrow+" ")
}

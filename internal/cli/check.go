package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/pipeline"
)

// checkCommand creates the check command. It exits with a configuration
// error when the scenario's dependency graph has a cycle.
func (c *CLI) checkCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [scenario.toml|-]",
		Short: "Report dependency cycles of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScenario(cmd, args[0])
			if err != nil {
				return err
			}
			report, err := pipeline.Check(s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else if report.OK() {
				printSuccess(out, "%s: %d nodes, %d edges, no cycles", report.Scenario, report.Nodes, report.Edges)
				printNextStep(out, "Run it", appName+" run "+args[0])
			} else {
				printWarning(out, "%s: %d dependency cycle(s)", report.Scenario, len(report.Cycles))
				for _, cycle := range report.Cycles {
					printDetail(out, "%s", strings.Join(cycle, " "+iconArrow+" "))
				}
			}

			if !report.OK() {
				return errors.New(errors.ErrCodeConfiguration,
					"scenario %q has %d dependency cycle(s)", report.Scenario, len(report.Cycles))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

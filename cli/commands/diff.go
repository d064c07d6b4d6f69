package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemadrift/schemadrift/cli/internal/config"
	"github.com/schemadrift/schemadrift/cli/internal/ui"
	"github.com/schemadrift/schemadrift/diff"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(cfg *config.Config) *cobra.Command {
	var from string
	var to string
	var showSteps bool
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two schema snapshots",
		Long:  "Compare two schemas (snapshot files or the live database) and print a drift summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := runDiff(cmd, cfg, from, to, showSteps)
			if err != nil {
				return err
			}
			if exitCode && len(m.Steps) > 0 {
				// Same convention as `git diff --exit-code`.
				return fmt.Errorf("schemas differ")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", databaseSource, "Previous schema: snapshot file or 'database'")
	cmd.Flags().StringVar(&to, "to", "", "Next schema: snapshot file or 'database'")
	cmd.Flags().BoolVar(&showSteps, "steps", false, "List individual migration steps")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with an error when the schemas differ")
	cmd.MarkFlagRequired("to")

	return cmd
}

func runDiff(cmd *cobra.Command, cfg *config.Config, from, to string, showSteps bool) (*diff.Migration, error) {
	ctx := cmd.Context()

	previous, err := loadSnapshot(ctx, cfg, from)
	if err != nil {
		return nil, err
	}
	next, err := loadSnapshot(ctx, cfg, to)
	if err != nil {
		return nil, err
	}

	f, err := flavourFor(cfg.Provider)
	if err != nil {
		return nil, err
	}

	m := diff.Diff(previous, next, f)
	summary := diff.Summarize(m)

	ui.PrintSection(fmt.Sprintf("Schema drift (%s → %s)", from, to))
	fmt.Print(summary.String())

	if showSteps && len(m.Steps) > 0 {
		rows := make([][]string, len(m.Steps))
		for i, step := range m.Steps {
			rows[i] = []string{fmt.Sprintf("%d", i), step.Description()}
		}
		ui.PrintSection("Migration steps")
		ui.PrintTable([]string{"#", "Step"}, rows)
	}

	return m, nil
}

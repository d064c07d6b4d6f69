package commands

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/schemadrift/schemadrift/cli/internal/config"
	"github.com/schemadrift/schemadrift/cli/internal/ui"
	"github.com/schemadrift/schemadrift/destructive"
	"github.com/schemadrift/schemadrift/diff"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(cfg *config.Config) *cobra.Command {
	var from string
	var to string
	var offline bool
	var force bool
	var explain bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a schema change for destructive effects",
		Long:  "Diff two schemas and report which changes would lose data or fail against the current database contents.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, cfg, from, to, offline, force, explain)
		},
	}

	cmd.Flags().StringVar(&from, "from", databaseSource, "Previous schema: snapshot file or 'database'")
	cmd.Flags().StringVar(&to, "to", "", "Next schema: snapshot file or 'database'")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip database inspection and assume the worst case")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Accept warnings without prompting")
	cmd.Flags().BoolVar(&explain, "explain", false, "Render findings as a detailed report")
	cmd.MarkFlagRequired("to")

	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config, from, to string, offline, force, explain bool) error {
	ctx := cmd.Context()

	previous, err := loadSnapshot(ctx, cfg, from)
	if err != nil {
		return err
	}
	next, err := loadSnapshot(ctx, cfg, to)
	if err != nil {
		return err
	}

	f, err := flavourFor(cfg.Provider)
	if err != nil {
		return err
	}
	m := diff.Diff(previous, next, f)

	if len(m.Steps) == 0 {
		ui.PrintSuccess("No schema changes to check")
		return nil
	}

	var results *destructive.CheckResults
	if offline {
		checkerFlavour, err := checkerFor(ctx, cfg.Provider, nil)
		if err != nil {
			return err
		}
		results = destructive.NewChecker(checkerFlavour, nil).PureCheck(m)
	} else {
		db, err := openDB(cfg.Provider, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		checkerFlavour, err := checkerFor(ctx, cfg.Provider, db)
		if err != nil {
			return err
		}
		checker := destructive.NewChecker(checkerFlavour, destructive.DB{DB: db})
		spinner, _ := ui.PrintSpinner("Inspecting database")
		results, err = checker.Check(ctx, m)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			return fmt.Errorf("inspecting database: %w", err)
		}
	}

	if results.IsSafe() {
		ui.PrintSuccess("No destructive changes detected (%d steps)", len(m.Steps))
		return nil
	}

	if explain {
		if err := ui.PrintMarkdown(explainResults(m, results)); err != nil {
			return err
		}
	} else {
		for _, d := range results.Unexecutables {
			ui.PrintError("step %d: %s", d.StepIndex, d.Message)
		}
		for _, d := range results.Warnings {
			ui.PrintWarning("step %d: %s", d.StepIndex, d.Message)
		}
	}

	if results.HasUnexecutables() {
		return fmt.Errorf("%d change(s) cannot be executed against the current database", len(results.Unexecutables))
	}

	if !force {
		accepted := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("%d warning(s) found. Proceed anyway?", len(results.Warnings)),
		}
		if err := survey.AskOne(prompt, &accepted); err != nil {
			return err
		}
		if !accepted {
			return fmt.Errorf("aborted")
		}
	}

	ui.PrintInfo("Warnings accepted")
	return nil
}

// explainResults renders the findings as a markdown report, naming the
// migration step each finding belongs to.
func explainResults(m *diff.Migration, results *destructive.CheckResults) string {
	var b strings.Builder
	b.WriteString("# Destructive change report\n\n")
	if results.HasUnexecutables() {
		b.WriteString("## Unexecutable steps\n\n")
		b.WriteString("These changes would be rejected by the database on the current data.\n\n")
		for _, d := range results.Unexecutables {
			fmt.Fprintf(&b, "- **Step %d** (%s): %s\n", d.StepIndex, m.Steps[d.StepIndex].Description(), d.Message)
		}
		b.WriteString("\n")
	}
	if results.HasWarnings() {
		b.WriteString("## Warnings\n\n")
		b.WriteString("These changes are executable but destroy or endanger existing data.\n\n")
		for _, d := range results.Warnings {
			fmt.Fprintf(&b, "- **Step %d** (%s): %s\n", d.StepIndex, m.Steps[d.StepIndex].Description(), d.Message)
		}
	}
	return b.String()
}

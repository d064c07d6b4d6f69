// Package commands implements CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemadrift/schemadrift/cli/internal/config"
	"github.com/schemadrift/schemadrift/cli/internal/version"
	"github.com/schemadrift/schemadrift/internal/debug"
)

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	var debugMode bool

	cmd := &cobra.Command{
		Use:     "schemadrift",
		Short:   "Detect and assess schema drift between database schemas",
		Long:    "schemadrift compares relational database schemas and flags destructive changes before they reach production.",
		Version: version.Get().String(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			debug.Init(debugMode)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{Provider: "postgresql"}
	}

	cmd.AddCommand(NewDiffCommand(cfg))
	cmd.AddCommand(NewCheckCommand(cfg))
	cmd.AddCommand(NewSnapshotCommand(cfg))
	cmd.AddCommand(NewWatchCommand(cfg))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

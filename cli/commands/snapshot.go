package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/schemadrift/schemadrift/cli/internal/config"
	"github.com/schemadrift/schemadrift/cli/internal/ui"
	"github.com/schemadrift/schemadrift/introspect"
	"github.com/schemadrift/schemadrift/schema"
)

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(cfg *config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture the live database schema to a file",
		Long:  "Introspect the configured database and write its schema to a snapshot file for later diffing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd, cfg, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Snapshot file path (default <snapshot_dir>/schema.json)")

	return cmd
}

func runSnapshot(cmd *cobra.Command, cfg *config.Config, output string) error {
	ctx := cmd.Context()

	if output == "" {
		output = filepath.Join(cfg.SnapshotDir, "schema.json")
	}

	db, err := openDB(cfg.Provider, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	intro, err := introspect.New(db, cfg.Provider)
	if err != nil {
		return err
	}

	snapshot, err := intro.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("introspecting database: %w", err)
	}

	data, err := schema.Serialize(snapshot)
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}

	if err := afero.WriteFile(config.AppFs, output, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	ui.PrintSuccess("Wrote snapshot to %s", output)
	return nil
}

package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schemadrift/schemadrift/cli/internal/config"
	"github.com/schemadrift/schemadrift/cli/internal/ui"
	"github.com/schemadrift/schemadrift/cli/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(cfg *config.Config) *cobra.Command {
	var from string
	var showSteps bool

	cmd := &cobra.Command{
		Use:   "watch <snapshot-file>",
		Short: "Re-diff a snapshot file against the database on every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, cfg, from, args[0], showSteps)
		},
	}

	cmd.Flags().StringVar(&from, "from", databaseSource, "Previous schema: snapshot file or 'database'")
	cmd.Flags().BoolVar(&showSteps, "steps", false, "List individual migration steps")

	return cmd
}

func runWatch(cmd *cobra.Command, cfg *config.Config, from, file string, showSteps bool) error {
	watcher, err := watch.NewWatcher(file, func() error {
		_, err := runDiff(cmd, cfg, from, file, showSteps)
		return err
	})
	if err != nil {
		return err
	}

	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	ui.PrintInfo("Watching %s for changes (Ctrl+C to stop)", file)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	return nil
}

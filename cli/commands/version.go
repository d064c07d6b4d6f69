package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemadrift/schemadrift/cli/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print detailed version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Get().FullString())
		},
	}
}

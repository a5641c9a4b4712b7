package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display leapbundle version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "leapbundle v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "JavaScript bundler built with Go and esbuild (%s)\n", runtime.Version())
		},
	}
}

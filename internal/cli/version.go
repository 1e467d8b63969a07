package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command
func NewVersionCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := a.versionInfo
			if info.Version == "" {
				info.Version = "dev"
			}
			if info.Commit == "" {
				info.Commit = "unknown"
			}
			if info.Date == "" {
				info.Date = "unknown"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lastsignal version %s\n", info.Version)
			fmt.Fprintf(out, "commit: %s\n", info.Commit)
			fmt.Fprintf(out, "built: %s\n", info.Date)
			return nil
		},
	}
}

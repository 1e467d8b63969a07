package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RevCBH/lastsignal/internal/cli/tui"
)

// NewCheckinCmd creates the checkin command
func NewCheckinCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin",
		Short: "Record a manual check-in",
		Long: `Checkin records that you are okay. It also clears last signal recipient
tracking, so a later escalation can notify everyone again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			at, err := svc.RecordManualCheckin()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Check-in recorded at %s\n", at.UTC().Format(tui.TimeLayout))
			return nil
		},
	}
}

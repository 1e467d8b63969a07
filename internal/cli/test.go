package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RevCBH/lastsignal/internal/app"
	"github.com/RevCBH/lastsignal/internal/cli/tui"
)

// NewTestCmd creates the test command
func NewTestCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test all configured outputs",
		Long:  `Test runs a health check on every configured output. Nothing is sent.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			results := svc.TestAllChannels(cmd.Context())

			out := cmd.OutOrStdout()
			styles := tui.PlainStyles()
			if isTerminal(out) {
				styles = tui.DefaultStyles()
			}

			unhealthy := 0
			for _, h := range results {
				icon := styles.Good.Render(tui.IconHealthy)
				if !h.Healthy {
					icon = styles.Bad.Render(tui.IconUnhealthy)
					unhealthy++
				}
				line := fmt.Sprintf("%s %-9s %s", icon, h.Role, h.Name)
				if h.Role == app.RoleRecipient {
					line += " " + styles.Muted.Render("("+h.ID+")")
				}
				if h.Error != "" {
					line += ": " + h.Error
				}
				fmt.Fprintln(out, line)
			}

			if unhealthy > 0 {
				return fmt.Errorf("%d of %d output(s) unhealthy", unhealthy, len(results))
			}
			fmt.Fprintf(out, "All %d output(s) healthy\n", len(results))
			return nil
		},
	}
}

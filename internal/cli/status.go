package cli

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/RevCBH/lastsignal/internal/cli/tui"
)

// StatusOptions holds flags for the status command
type StatusOptions struct {
	JSON  bool // Machine-readable output
	Watch bool // Live view, refreshed every second
}

// NewStatusCmd creates the status command
func NewStatusCmd(a *App) *cobra.Command {
	opts := StatusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current status and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.JSON && opts.Watch {
				return fmt.Errorf("--json and --watch cannot be combined")
			}

			svc, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			if opts.Watch {
				if !isTerminal(out) {
					return fmt.Errorf("--watch requires a terminal")
				}
				model := tui.NewModel(svc.StatusSnapshot, tui.DefaultStyles())
				_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
				return err
			}

			st, err := svc.StatusSnapshot()
			if err != nil {
				return err
			}

			if opts.JSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			styles := tui.PlainStyles()
			if isTerminal(out) {
				styles = tui.DefaultStyles()
			}
			fmt.Fprint(out, tui.RenderStatus(st, styles))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output status as JSON")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Live status view")

	return cmd
}

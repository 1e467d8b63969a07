package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RevCBH/lastsignal/internal/app"
)

// NewRunCmd creates the run command
func NewRunCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the LastSignal daemon",
		Long: `Run polls for check-in replies, sends check-in requests when they are due,
and fires the last signal when no check-in arrives in time. It runs until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Run(cmd)
		},
	}
}

// Run executes the monitoring loop until SIGINT or SIGTERM
func (a *App) Run(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Setup signal handler
	handler := NewSignalHandler(cancel)
	handler.OnShutdown(func() {
		fmt.Fprintln(cmd.ErrOrStderr(), "\nShutting down gracefully...")
	})
	handler.Start()
	defer handler.Stop()

	svc, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	err = svc.RunForever(ctx)
	if errors.Is(err, app.ErrEscalationComplete) {
		w := cmd.ErrOrStderr()
		fmt.Fprintln(w, "LastSignal has already completed all emergency notifications.")
		fmt.Fprintln(w, "All configured recipients have been successfully notified.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "To resume monitoring, record a check-in:")
		fmt.Fprintln(w, "   lastsignal checkin")
	}
	return err
}

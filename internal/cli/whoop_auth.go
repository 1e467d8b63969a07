package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RevCBH/lastsignal/internal/oauth"
)

// WhoopAuthOptions holds flags for the whoop-auth command
type WhoopAuthOptions struct {
	ClientID     string
	ClientSecret string
	Port         int
}

// NewWhoopAuthCmd creates the whoop-auth command
func NewWhoopAuthCmd(a *App) *cobra.Command {
	opts := WhoopAuthOptions{Port: oauth.DefaultCallbackPort}

	cmd := &cobra.Command{
		Use:   "whoop-auth",
		Short: "Authenticate with WHOOP API",
		Long: `Whoop-auth runs the OAuth authorization flow and stores tokens in the
data directory. Open the printed URL in a browser and approve access.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			dataDir, err := cfg.DataDir()
			if err != nil {
				return err
			}

			client := oauth.NewClient(opts.ClientID, opts.ClientSecret, oauth.RedirectURL(opts.Port))
			store := oauth.NewStore(dataDir)

			out := cmd.OutOrStdout()
			tok, err := oauth.Authorize(cmd.Context(), client, store, opts.Port, func(authURL string) {
				fmt.Fprintln(out, "Open this URL in your browser to authorize LastSignal:")
				fmt.Fprintln(out)
				fmt.Fprintf(out, "  %s\n\n", authURL)
				fmt.Fprintf(out, "Waiting for the callback (up to %s)...\n", oauth.CallbackTimeout)
			})
			if err != nil {
				return fmt.Errorf("whoop authorization failed: %w", err)
			}

			fmt.Fprintf(out, "WHOOP tokens saved to %s (expire %s)\n", store.Path(), tok.ExpiresAt.UTC().Format("2006-01-02 15:04 UTC"))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "WHOOP OAuth client ID")
	cmd.Flags().StringVar(&opts.ClientSecret, "client-secret", "", "WHOOP OAuth client secret")
	cmd.Flags().IntVar(&opts.Port, "port", oauth.DefaultCallbackPort, "Local callback port")
	_ = cmd.MarkFlagRequired("client-id")
	_ = cmd.MarkFlagRequired("client-secret")

	return cmd
}

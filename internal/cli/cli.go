// Package cli implements the lastsignal command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/RevCBH/lastsignal/internal/app"
	"github.com/RevCBH/lastsignal/internal/config"
	"github.com/RevCBH/lastsignal/internal/logging"
)

// VersionInfo is stamped at build time
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App represents the CLI application with all wired dependencies
type App struct {
	rootCmd *cobra.Command

	// Flags
	configPath string
	verbose    bool

	versionInfo VersionInfo

	// Console receives console channel output. Defaults to stderr.
	console io.Writer
}

// New creates a new CLI application
func New() *App {
	a := &App{console: os.Stderr}
	a.setupRootCmd()
	return a
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version string for the version command
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// setupRootCmd configures the root Cobra command
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "lastsignal",
		Short: "Automated safety check-in system",
		Long: `LastSignal asks you to check in on a schedule. If you stop answering,
it sends your last signal message to every configured recipient.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Until config is loaded
			logging.Setup(cmd.ErrOrStderr(), config.DefaultLogLevel, config.DefaultLogFormat, a.verbose)
		},
	}

	a.rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"Config file path (default ~/.lastsignal/config.yaml)")
	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Verbose output")

	a.rootCmd.AddCommand(
		NewRunCmd(a),
		NewCheckinCmd(a),
		NewStatusCmd(a),
		NewTestCmd(a),
		NewWhoopAuthCmd(a),
		NewVersionCmd(a),
	)
}

// loadConfig reads configuration and applies its logging settings
func (a *App) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cmd.ErrOrStderr(), cfg.App.LogLevel, cfg.App.LogFormat, a.verbose)
	return cfg, nil
}

// open loads configuration and builds the application
func (a *App) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.Options{Console: a.console})
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Package app wires configuration, state and channels into the operations
// the command line exposes: run, manual check-in, status and channel test.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/RevCBH/lastsignal/internal/channel"
	"github.com/RevCBH/lastsignal/internal/config"
	"github.com/RevCBH/lastsignal/internal/history"
	"github.com/RevCBH/lastsignal/internal/logging"
	"github.com/RevCBH/lastsignal/internal/message"
	"github.com/RevCBH/lastsignal/internal/state"
)

// Options carries process-level dependencies.
type Options struct {
	// Console is where the console channel writes. Defaults to stderr.
	Console io.Writer

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// App is one configured LastSignal instance.
type App struct {
	cfg      *config.Config
	dataDir  string
	state    *state.Manager
	channels *channel.Set
	messages message.Source
	history  history.Log
	now      func() time.Time
	logger   *slog.Logger
}

// New builds every component from cfg. Channel construction problems are
// configuration errors and fail here.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := logging.Component("app")
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// 1. Data directory
	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}

	// 2. Lifecycle state
	st, err := state.OpenWithClock(dataDir, opts.Now)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	// 3. Messages
	messages, err := message.New(cfg)
	if err != nil {
		return nil, err
	}

	// 4. Channels
	set, err := channel.FromConfig(cfg, channel.Options{DataDir: dataDir, Console: opts.Console})
	if err != nil {
		return nil, fmt.Errorf("create channels: %w", err)
	}

	// 5. History is advisory; failing to open it only disables it
	var hist history.Log = history.Nop{}
	if cfg.App.History {
		db, err := history.Open(filepath.Join(dataDir, history.FileName))
		if err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			hist = db
		}
	}

	logger.Debug("app initialized",
		"data_dir", dataDir,
		"checkin_channels", len(set.Checkin),
		"recipients", len(set.Recipients),
	)

	return &App{
		cfg:      cfg,
		dataDir:  dataDir,
		state:    st,
		channels: set,
		messages: messages,
		history:  hist,
		now:      opts.Now,
		logger:   logger,
	}, nil
}

// DataDir returns the resolved data directory.
func (a *App) DataDir() string {
	return a.dataDir
}

// Close releases the history database.
func (a *App) Close() error {
	return a.history.Close()
}

// RecordManualCheckin records a check-in and clears recipient tracking so
// a future escalation can fire again.
func (a *App) RecordManualCheckin() (time.Time, error) {
	at, err := a.state.RecordManualCheckin()
	if err != nil {
		return time.Time{}, fmt.Errorf("record check-in: %w", err)
	}

	if err := a.history.Append(history.Entry{At: at, Kind: history.KindCheckinManual}); err != nil {
		a.logger.Warn("failed to append history", "error", err)
	}
	return at, nil
}

func (a *App) recipientIDs() []string {
	ids := make([]string, len(a.channels.Recipients))
	for i, r := range a.channels.Recipients {
		ids[i] = r.ID
	}
	return ids
}

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RevCBH/lastsignal/internal/daemon"
	"github.com/RevCBH/lastsignal/internal/oauth"
	"github.com/RevCBH/lastsignal/internal/scheduler"
	"github.com/RevCBH/lastsignal/internal/state"
)

// ErrEscalationComplete means the last signal has reached every recipient
// and there is nothing left to do until a manual check-in.
var ErrEscalationComplete = errors.New("all recipients already notified; check in to resume monitoring")

// RunForever drives the scheduler until ctx is done. It returns nil on
// shutdown and an error only when startup fails.
func (a *App) RunForever(ctx context.Context) error {
	// 1. One daemon per data directory
	pid := daemon.NewPIDFile(a.dataDir)
	if err := pid.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := pid.Release(); err != nil {
			a.logger.Warn("failed to release PID file", "error", err)
		}
	}()

	// 2. Refuse to run once every recipient has been reached
	if err := a.checkPendingRecipients(); err != nil {
		return err
	}

	a.logger.Info("starting LastSignal",
		"checkin_channels", len(a.channels.Checkin),
		"recipients", len(a.channels.Recipients),
		"state", a.state.Path(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 3. Background token refresh
	stopRefresh := startRefreshers(ctx, a.channels.TokenSources, oauth.DefaultRefreshInterval)
	defer stopRefresh()

	// 4. Pick up check-ins recorded by other processes
	var wake <-chan struct{}
	if w, err := state.NewWatcher(a.state); err != nil {
		a.logger.Warn("state watcher unavailable", "error", err)
	} else if err := w.Start(ctx); err != nil {
		a.logger.Warn("state watcher unavailable", "error", err)
		w.Close()
	} else {
		defer w.Close()
		wake = w.Changes()
	}

	// 5. Control loop
	sched := scheduler.New(scheduler.ConfigFrom(a.cfg), scheduler.Deps{
		State:      a.state,
		Checkin:    a.channels.Checkin,
		Recipients: a.channels.Recipients,
		Messages:   a.messages,
		History:    a.history,
		Wake:       wake,
	})
	err := sched.Run(ctx)
	if ctx.Err() != nil {
		a.logger.Info("shutting down")
		return nil
	}
	return err
}

// startRefreshers runs each token source's background refresh. The returned
// stop cancels them and waits for every goroutine to exit, whether or not
// the parent context is done.
func startRefreshers(ctx context.Context, sources []*oauth.TokenSource, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, ts := range sources {
		wg.Add(1)
		go func(ts *oauth.TokenSource) {
			defer wg.Done()
			ts.Run(ctx, interval)
		}(ts)
	}
	return func() {
		cancel()
		wg.Wait()
	}
}

func (a *App) checkPendingRecipients() error {
	snap := a.state.Snapshot()
	if snap.LastEscalationFired == nil {
		return nil
	}

	ids := a.recipientIDs()
	pending := snap.PendingRecipients(ids)
	if len(ids) > 0 && len(pending) == 0 {
		return fmt.Errorf("%w (%d recipient(s))", ErrEscalationComplete, len(ids))
	}
	if len(pending) > 0 {
		a.logger.Warn("last signal has unreached recipients", "pending", pending)
	}
	return nil
}

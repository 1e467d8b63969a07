package state

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/RevCBH/lastsignal/internal/logging"
)

// Watcher reloads the Manager when another process (a `checkin` command
// run while the daemon is up) replaces the state file.
type Watcher struct {
	manager  *Manager
	watcher  *fsnotify.Watcher
	debounce time.Duration
	changes  chan struct{}
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the manager's state file.
func NewWatcher(m *Manager) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		manager:  m,
		watcher:  fsWatcher,
		debounce: 100 * time.Millisecond,
		changes:  make(chan struct{}, 1),
		logger:   logging.Component("state-watcher"),
	}, nil
}

// Changes receives a value after each external change has been reloaded.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start watches the data directory until ctx is done. The directory is
// watched rather than the file because atomic replacement changes the inode.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.manager.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	go w.run(ctx)
	return nil
}

// Close releases the fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	// Writes arrive as bursts; reload once they settle
	var pending time.Time
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	target := filepath.Base(w.manager.Path())

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("state watcher error", "error", err)

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounce {
				continue
			}
			pending = time.Time{}

			changed, err := w.manager.Reload()
			if err != nil {
				w.logger.Warn("failed to reload state", "error", err)
				continue
			}
			if changed {
				select {
				case w.changes <- struct{}{}:
				default:
				}
			}
		}
	}
}

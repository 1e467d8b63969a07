package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/RevCBH/lastsignal/internal/logging"
)

// SignalHandler cancels the run context on SIGINT or SIGTERM. A second
// signal while shutdown callbacks are running exits the process.
type SignalHandler struct {
	signals    chan os.Signal
	shutdown   chan struct{}
	stopCh     chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	cancel     context.CancelFunc
	onShutdown []func()
	mu         sync.Mutex
	exit       func(code int)
	logger     *slog.Logger
}

// NewSignalHandler creates a signal handler with the given context cancel
func NewSignalHandler(cancel context.CancelFunc) *SignalHandler {
	return &SignalHandler{
		signals:  make(chan os.Signal, 2),
		shutdown: make(chan struct{}),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		cancel:   cancel,
		exit:     os.Exit,
		logger:   logging.Component("signals"),
	}
}

// Start begins listening for signals
func (h *SignalHandler) Start() {
	h.StartWithNotify(true)
}

// StartWithNotify begins listening, optionally registering with OS signal
// delivery. Tests pass false and write to the signals channel directly.
func (h *SignalHandler) StartWithNotify(notify bool) {
	if notify {
		signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	}

	started := make(chan struct{})
	go func() {
		defer close(h.done)
		close(started)

		select {
		case sig := <-h.signals:
			h.logger.Info("received signal, shutting down", "signal", sig.String())
			go h.forceOnSecond()

			if h.cancel != nil {
				h.cancel()
			}

			h.mu.Lock()
			callbacks := make([]func(), len(h.onShutdown))
			copy(callbacks, h.onShutdown)
			h.mu.Unlock()

			for _, fn := range callbacks {
				fn()
			}
			close(h.shutdown)
		case <-h.stopCh:
			return
		}
	}()

	<-started
}

func (h *SignalHandler) forceOnSecond() {
	select {
	case sig := <-h.signals:
		h.logger.Warn("received second signal, exiting immediately", "signal", sig.String())
		h.exit(1)
	case <-h.stopCh:
	}
}

// OnShutdown registers a callback to run on shutdown, in registration order
func (h *SignalHandler) OnShutdown(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onShutdown = append(h.onShutdown, fn)
}

// Wait blocks until shutdown callbacks have run
func (h *SignalHandler) Wait() {
	<-h.shutdown
}

// Stop unregisters the handler. It waits briefly for the listener to exit.
func (h *SignalHandler) Stop() {
	signal.Stop(h.signals)
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	select {
	case <-h.done:
	case <-time.After(100 * time.Millisecond):
	}
}

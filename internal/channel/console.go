package channel

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Console writes messages to stderr. It is always healthy and is meant for
// local dry runs.
type Console struct {
	mu  sync.Mutex // Protects concurrent writes to out
	out io.Writer
	now func() time.Time
}

// NewConsole creates a console channel writing to stderr
func NewConsole() *Console {
	return NewConsoleWriter(os.Stderr)
}

// NewConsoleWriter creates a console channel writing to w
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, now: time.Now}
}

// Send writes the message
func (c *Console) Send(ctx context.Context, message string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.out, "\n[lastsignal %s]\n%s\n", c.now().UTC().Format(time.RFC3339), message); err != nil {
		return Failed(fmt.Sprintf("write: %v", err)), nil
	}
	return Success(), nil
}

// HealthCheck always succeeds
func (c *Console) HealthCheck(ctx context.Context) (bool, error) {
	return true, nil
}

// Name returns "console"
func (c *Console) Name() string {
	return "console"
}

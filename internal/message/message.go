// Package message produces the check-in request and last-signal texts.
package message

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RevCBH/lastsignal/internal/config"
	"github.com/RevCBH/lastsignal/internal/logging"
)

// TimestampPlaceholder is replaced with the generation time in the last-signal text.
const TimestampPlaceholder = "{timestamp}"

// TimestampLayout formats the placeholder replacement.
const TimestampLayout = "2006-01-02 15:04:05 UTC"

// Source produces message texts.
type Source interface {
	CheckinRequest() (string, error)
	LastSignal() (string, error)
}

// New returns the source for the configured adapter type.
func New(cfg *config.Config) (Source, error) {
	switch cfg.LastSignal.AdapterType {
	case config.DefaultAdapterType:
		path, err := cfg.MessageFilePath()
		if err != nil {
			return nil, err
		}
		return NewFileSource(path), nil
	default:
		return nil, fmt.Errorf("unknown message adapter type: %s", cfg.LastSignal.AdapterType)
	}
}

// FileSource reads the last-signal template from a file, writing the
// default template there on first use.
type FileSource struct {
	path string
	now  func() time.Time
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, now: time.Now}
}

// NewFileSourceWithClock is NewFileSource with an injected clock.
func NewFileSourceWithClock(path string, now func() time.Time) *FileSource {
	return &FileSource{path: path, now: now}
}

// Path returns the template location.
func (f *FileSource) Path() string {
	return f.path
}

// CheckinRequest returns the fixed check-in request text.
func (f *FileSource) CheckinRequest() (string, error) {
	return strings.TrimSpace(mustTemplate("checkin_request.txt")), nil
}

// LastSignal returns the escalation text with the timestamp filled in.
func (f *FileSource) LastSignal() (string, error) {
	template, err := f.load()
	if err != nil {
		return "", err
	}
	stamp := f.now().UTC().Format(TimestampLayout)
	return strings.ReplaceAll(template, TimestampPlaceholder, stamp), nil
}

func (f *FileSource) load() (string, error) {
	content, err := os.ReadFile(f.path)
	if err == nil {
		return strings.TrimSpace(string(content)), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read message file %s: %w", f.path, err)
	}

	def := mustTemplate("last_signal.txt")
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return "", fmt.Errorf("create directory for message file: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(def), 0600); err != nil {
		return "", fmt.Errorf("create default message file %s: %w", f.path, err)
	}
	logging.Component("message").Info("created default message file", "path", f.path)
	return strings.TrimSpace(def), nil
}

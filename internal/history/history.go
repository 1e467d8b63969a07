// Package history keeps an append-only log of lifecycle events in SQLite.
// It is advisory: the state file remains the source of truth.
package history

import (
	"time"
)

// FileName is the history database name inside the data directory.
const FileName = "history.db"

// Kind classifies a history entry.
type Kind string

const (
	KindCheckinDetected     Kind = "checkin_detected"
	KindCheckinManual       Kind = "checkin_manual"
	KindRequestSent         Kind = "checkin_request_sent"
	KindRequestFailed       Kind = "checkin_request_failed"
	KindRecipientResult     Kind = "recipient_result"
	KindEscalationFired     Kind = "last_signal_fired"
	KindEscalationExhausted Kind = "last_signal_exhausted"
)

// Entry is one logged event.
type Entry struct {
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
	Kind      Kind      `json:"kind"`
	Channel   string    `json:"channel,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Log is where lifecycle events are written.
type Log interface {
	Append(e Entry) error
	Recent(limit int) ([]Entry, error)
	Close() error
}

// Nop discards everything. Used when history is disabled.
type Nop struct{}

func (Nop) Append(Entry) error          { return nil }
func (Nop) Recent(int) ([]Entry, error) { return nil, nil }
func (Nop) Close() error                { return nil }

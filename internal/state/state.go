// Package state holds the persisted lifecycle record that decides when to
// request a check-in and when to fire the last signal.
package state

import (
	"maps"
	"time"

	"github.com/RevCBH/lastsignal/internal/duration"
)

// Version is written into new state files.
const Version = "1"

// State is the single persisted lifecycle record.
type State struct {
	// LastCheckin is the most recent confirmed activity
	LastCheckin *time.Time `json:"last_checkin"`

	// LastCheckinRequest is the most recent time a check-in was requested
	LastCheckinRequest *time.Time `json:"last_checkin_request"`

	// FirstUnansweredRequest is the first request since the last check-in.
	// It is informational and never moves the escalation clock.
	FirstUnansweredRequest *time.Time `json:"first_unanswered_request,omitempty"`

	// LastEscalationFired is the most recent time the broadcast reached someone
	LastEscalationFired *time.Time `json:"last_signal_fired"`

	// CheckinRequestCount counts requests since the last check-in
	CheckinRequestCount uint32 `json:"checkin_request_count"`

	Version string `json:"version"`

	// RecipientNotifications records who already received the broadcast.
	// It is only ever cleared as a whole.
	RecipientNotifications map[string]time.Time `json:"last_signal_recipients_notified"`
}

// New returns the empty first-run state.
func New() State {
	return State{
		Version:                Version,
		RecipientNotifications: make(map[string]time.Time),
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.LastCheckin = cloneTime(s.LastCheckin)
	out.LastCheckinRequest = cloneTime(s.LastCheckinRequest)
	out.FirstUnansweredRequest = cloneTime(s.FirstUnansweredRequest)
	out.LastEscalationFired = cloneTime(s.LastEscalationFired)
	out.RecipientNotifications = maps.Clone(s.RecipientNotifications)
	if out.RecipientNotifications == nil {
		out.RecipientNotifications = make(map[string]time.Time)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ShouldRequestCheckin is true when there has never been a check-in, or the
// last one is at least threshold old.
func (s State) ShouldRequestCheckin(threshold duration.Duration, now time.Time) bool {
	if s.LastCheckin == nil {
		return true
	}
	return threshold.Reached(now.Sub(*s.LastCheckin))
}

// EscalationClockStart is the instant the escalation threshold is measured
// from: the last check-in, or with none, the last check-in request.
func (s State) EscalationClockStart() *time.Time {
	if s.LastCheckin != nil {
		return s.LastCheckin
	}
	return s.LastCheckinRequest
}

// ShouldFireEscalation is true when the escalation clock has run for at
// least threshold. With no check-in and no request it is false.
func (s State) ShouldFireEscalation(threshold duration.Duration, now time.Time) bool {
	start := s.EscalationClockStart()
	if start == nil {
		return false
	}
	return threshold.Reached(now.Sub(*start))
}

// HasFiredRecently is true while the last broadcast is younger than threshold.
func (s State) HasFiredRecently(threshold duration.Duration, now time.Time) bool {
	if s.LastEscalationFired == nil {
		return false
	}
	return !threshold.Reached(now.Sub(*s.LastEscalationFired))
}

// Watermark is the lower bound for reply polling: the later of the last
// check-in and the last request.
func (s State) Watermark() *time.Time {
	switch {
	case s.LastCheckin == nil:
		return cloneTime(s.LastCheckinRequest)
	case s.LastCheckinRequest == nil:
		return cloneTime(s.LastCheckin)
	case s.LastCheckinRequest.After(*s.LastCheckin):
		return cloneTime(s.LastCheckinRequest)
	default:
		return cloneTime(s.LastCheckin)
	}
}

// IsRecipientNotified reports whether id already received the broadcast.
func (s State) IsRecipientNotified(id string) bool {
	_, ok := s.RecipientNotifications[id]
	return ok
}

// PendingRecipients returns the ids not yet notified, in the given order.
func (s State) PendingRecipients(ids []string) []string {
	var pending []string
	for _, id := range ids {
		if !s.IsRecipientNotified(id) {
			pending = append(pending, id)
		}
	}
	return pending
}

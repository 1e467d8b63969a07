package app

import (
	"time"

	"github.com/RevCBH/lastsignal/internal/daemon"
	"github.com/RevCBH/lastsignal/internal/duration"
	"github.com/RevCBH/lastsignal/internal/history"
	"github.com/RevCBH/lastsignal/internal/scheduler"
	"github.com/RevCBH/lastsignal/internal/state"
)

// RecentHistory is how many history entries a status snapshot carries.
const RecentHistory = 10

// Thresholds are the configured timings.
type Thresholds struct {
	DurationBetweenCheckins duration.Duration `json:"duration_between_checkins"`
	CheckinRetryDelay       duration.Duration `json:"checkin_output_retry_delay"`
	MaxTimeSinceLastCheckin duration.Duration `json:"max_time_since_last_checkin"`
	LastSignalRetryDelay    duration.Duration `json:"last_signal_output_retry_delay"`
	CheckInterval           duration.Duration `json:"check_interval"`
}

// Status is a read-only projection of the lifecycle plus what the next
// cycle would do.
type Status struct {
	Now   time.Time       `json:"now"`
	State state.State     `json:"state"`
	Phase scheduler.Phase `json:"phase"`

	WouldRequestCheckin bool `json:"would_request_checkin"`
	WouldFireEscalation bool `json:"would_fire_last_signal"`

	Thresholds        Thresholds      `json:"thresholds"`
	CheckinChannels   int             `json:"checkin_channels"`
	Recipients        int             `json:"recipients"`
	PendingRecipients []string        `json:"pending_recipients"`
	DaemonPID         int             `json:"daemon_pid,omitempty"`
	History           []history.Entry `json:"history,omitempty"`
}

// StatusSnapshot reads the current state. It reloads from disk first so a
// long-lived caller sees writes made by the daemon.
func (a *App) StatusSnapshot() (Status, error) {
	if _, err := a.state.Reload(); err != nil {
		return Status{}, err
	}

	snap := a.state.Snapshot()
	now := a.state.Now()
	escalateAfter := a.cfg.Recipient.MaxTimeSinceLastCheckin

	st := Status{
		Now:                 now,
		State:               snap,
		Phase:               scheduler.PhaseOf(snap),
		WouldRequestCheckin: snap.ShouldRequestCheckin(a.cfg.Checkin.DurationBetweenCheckins, now),
		WouldFireEscalation: snap.ShouldFireEscalation(escalateAfter, now) && !snap.HasFiredRecently(escalateAfter, now),
		Thresholds: Thresholds{
			DurationBetweenCheckins: a.cfg.Checkin.DurationBetweenCheckins,
			CheckinRetryDelay:       a.cfg.Checkin.OutputRetryDelay,
			MaxTimeSinceLastCheckin: escalateAfter,
			LastSignalRetryDelay:    a.cfg.Recipient.OutputRetryDelay,
			CheckInterval:           a.cfg.App.CheckInterval,
		},
		CheckinChannels:   len(a.channels.Checkin),
		Recipients:        len(a.channels.Recipients),
		PendingRecipients: snap.PendingRecipients(a.recipientIDs()),
		DaemonPID:         daemon.Running(a.dataDir),
	}

	entries, err := a.history.Recent(RecentHistory)
	if err != nil {
		a.logger.Warn("failed to read history", "error", err)
	}
	st.History = entries
	return st, nil
}

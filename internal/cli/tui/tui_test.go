package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RevCBH/lastsignal/internal/app"
	"github.com/RevCBH/lastsignal/internal/duration"
	"github.com/RevCBH/lastsignal/internal/history"
	"github.com/RevCBH/lastsignal/internal/scheduler"
	"github.com/RevCBH/lastsignal/internal/state"
)

var now = time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

func sampleStatus() app.Status {
	checkin := now.Add(-72 * time.Hour)
	fired := now.Add(-time.Hour)
	s := state.New()
	s.LastCheckin = &checkin
	s.LastEscalationFired = &fired
	s.CheckinRequestCount = 2

	return app.Status{
		Now:   now,
		State: s,
		Phase: scheduler.PhaseEscalated,
		Thresholds: app.Thresholds{
			DurationBetweenCheckins: duration.FromDays(7),
			MaxTimeSinceLastCheckin: duration.FromDays(14),
			CheckInterval:           duration.FromHours(1),
		},
		CheckinChannels:   1,
		Recipients:        2,
		PendingRecipients: []string{"discord:42"},
		History: []history.Entry{
			{At: fired, Kind: history.KindEscalationFired, Detail: "1 of 2 recipients reached"},
		},
	}
}

func TestRenderStatus_Plain(t *testing.T) {
	out := RenderStatus(sampleStatus(), PlainStyles())

	assert.Contains(t, out, "LastSignal Status  [escalated]")
	assert.Contains(t, out, "2026-07-07 12:00:00 UTC (3 days ago)")
	assert.Contains(t, out, "Never")
	assert.Contains(t, out, "7d (1 week)")
	assert.Contains(t, out, "14d (2 weeks)")
	assert.Contains(t, out, "1/2")
	assert.Contains(t, out, "discord:42")
	assert.Contains(t, out, "not running")
	assert.Contains(t, out, "last_signal_fired  1 of 2 recipients reached")
	assert.NotContains(t, out, "\x1b[")
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "Never", FormatTime(nil, now))
	ts := now.Add(-2 * time.Hour)
	assert.Equal(t, "2026-07-10 10:00:00 UTC (2 hours ago)", FormatTime(&ts, now))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "-", FormatDuration(0))
	assert.Equal(t, "36h (1 day 12 hours)", FormatDuration(duration.FromHours(36)))
}

func TestModel_UpdateAndView(t *testing.T) {
	calls := 0
	m := NewModel(func() (app.Status, error) {
		calls++
		return sampleStatus(), nil
	}, PlainStyles())

	assert.Contains(t, m.View(), "Loading status...")

	msg := m.fetchCmd()()
	_, cmd := m.Update(msg)
	assert.Nil(t, cmd)
	assert.Equal(t, 1, calls)
	assert.True(t, m.Loaded)
	assert.Contains(t, m.View(), "[escalated]")
	assert.Contains(t, m.View(), "Press q to quit")

	_, cmd = m.Update(TickMsg(now))
	assert.NotNil(t, cmd)
}

func TestModel_KeepsLastStatusOnError(t *testing.T) {
	m := NewModel(nil, PlainStyles())
	m.Update(StatusMsg{Status: sampleStatus()})
	m.Update(StatusMsg{Err: errors.New("parse state file: unexpected EOF")})

	view := m.View()
	assert.Contains(t, view, "[escalated]")
	assert.Contains(t, view, "error: parse state file")
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(nil, PlainStyles())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.True(t, m.Quitting)
	assert.Empty(t, m.View())
}

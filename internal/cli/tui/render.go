package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"github.com/RevCBH/lastsignal/internal/app"
	"github.com/RevCBH/lastsignal/internal/duration"
	"github.com/RevCBH/lastsignal/internal/scheduler"
)

// TimeLayout is how absolute times are shown.
const TimeLayout = "2006-01-02 15:04:05 UTC"

// RenderStatus renders a status snapshot as text.
func RenderStatus(st app.Status, s Styles) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", s.Title.Render("LastSignal Status"), renderPhase(st.Phase, s))

	// Lifecycle
	row(&b, s, "Last check-in", FormatTime(st.State.LastCheckin, st.Now))
	row(&b, s, "Last check-in request", FormatTime(st.State.LastCheckinRequest, st.Now))
	row(&b, s, "Last signal fired", FormatTime(st.State.LastEscalationFired, st.Now))
	row(&b, s, "Unanswered requests", fmt.Sprintf("%d", st.State.CheckinRequestCount))
	if st.DaemonPID > 0 {
		row(&b, s, "Daemon", s.Good.Render(fmt.Sprintf("running (PID %d)", st.DaemonPID)))
	} else {
		row(&b, s, "Daemon", s.Muted.Render("not running"))
	}

	// Next cycle
	b.WriteString(s.Section.Render("Next cycle") + "\n")
	row(&b, s, "Would request check-in", yesNo(st.WouldRequestCheckin, s.Warn, s))
	row(&b, s, "Would fire last signal", yesNo(st.WouldFireEscalation, s.Bad, s))

	// Configuration
	b.WriteString(s.Section.Render("Configuration") + "\n")
	row(&b, s, "Duration between check-ins", FormatDuration(st.Thresholds.DurationBetweenCheckins))
	row(&b, s, "Retry delay (check-in)", FormatDuration(st.Thresholds.CheckinRetryDelay))
	row(&b, s, "Max time since last check-in", FormatDuration(st.Thresholds.MaxTimeSinceLastCheckin))
	row(&b, s, "Retry delay (last signal)", FormatDuration(st.Thresholds.LastSignalRetryDelay))
	row(&b, s, "Check interval", FormatDuration(st.Thresholds.CheckInterval))

	// Channels
	b.WriteString(s.Section.Render("Channels") + "\n")
	row(&b, s, "Check-in outputs", fmt.Sprintf("%d", st.CheckinChannels))
	row(&b, s, "Last signal outputs", fmt.Sprintf("%d", st.Recipients))
	if st.State.LastEscalationFired != nil {
		notified := st.Recipients - len(st.PendingRecipients)
		row(&b, s, "Recipients notified", fmt.Sprintf("%d/%d", notified, st.Recipients))
		for _, id := range st.PendingRecipients {
			fmt.Fprintf(&b, "    %s %s\n", s.Warn.Render(IconPending), id)
		}
	}

	// History
	if len(st.History) > 0 {
		b.WriteString(s.Section.Render("Recent activity") + "\n")
		for _, e := range st.History {
			line := fmt.Sprintf("%s  %s", e.At.UTC().Format(TimeLayout), e.Kind)
			for _, extra := range []string{e.Channel, e.Recipient, e.Detail} {
				if extra != "" {
					line += "  " + extra
				}
			}
			fmt.Fprintf(&b, "  %s\n", s.Muted.Render(line))
		}
	}

	return b.String()
}

func row(b *strings.Builder, s Styles, label, value string) {
	fmt.Fprintf(b, "  %s %s\n", s.Label.Render(fmt.Sprintf("%-29s", label+":")), value)
}

func renderPhase(p scheduler.Phase, s Styles) string {
	switch p {
	case scheduler.PhaseEscalated:
		return s.Bad.Render("[" + string(p) + "]")
	case scheduler.PhaseRequestPending:
		return s.Warn.Render("[" + string(p) + "]")
	default:
		return s.Phase.Render("[" + string(p) + "]")
	}
}

func yesNo(v bool, yes lipgloss.Style, s Styles) string {
	if v {
		return yes.Render("yes")
	}
	return s.Muted.Render("no")
}

// FormatTime renders an optional time with its age relative to now.
func FormatTime(t *time.Time, now time.Time) string {
	if t == nil {
		return "Never"
	}
	return fmt.Sprintf("%s (%s)", t.UTC().Format(TimeLayout), humanize.RelTime(*t, now, "ago", "from now"))
}

// FormatDuration renders a configured duration with a readable expansion.
func FormatDuration(d duration.Duration) string {
	if d.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", d, durafmt.Parse(d.Std()).LimitFirstN(2))
}

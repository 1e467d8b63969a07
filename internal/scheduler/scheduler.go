// Package scheduler drives the check-in and escalation control loop.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RevCBH/lastsignal/internal/channel"
	"github.com/RevCBH/lastsignal/internal/config"
	"github.com/RevCBH/lastsignal/internal/delivery"
	"github.com/RevCBH/lastsignal/internal/detector"
	"github.com/RevCBH/lastsignal/internal/duration"
	"github.com/RevCBH/lastsignal/internal/history"
	"github.com/RevCBH/lastsignal/internal/logging"
	"github.com/RevCBH/lastsignal/internal/message"
	"github.com/RevCBH/lastsignal/internal/state"
)

// Config holds the thresholds and loop timing.
type Config struct {
	// CheckinThreshold is how long after a check-in a new one is requested
	CheckinThreshold duration.Duration

	// RequestRetryDelay spaces repeated unanswered requests
	RequestRetryDelay duration.Duration

	// EscalationAfter is how long without a check-in before the last signal fires.
	// It is also the cool-down before a fired signal may fire again.
	EscalationAfter duration.Duration

	// Interval is the pause between cycles
	Interval time.Duration

	// Cooldown is the pause after a failed cycle
	Cooldown time.Duration
}

// ConfigFrom extracts scheduler settings from application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		CheckinThreshold:  cfg.Checkin.DurationBetweenCheckins,
		RequestRetryDelay: cfg.Checkin.OutputRetryDelay,
		EscalationAfter:   cfg.Recipient.MaxTimeSinceLastCheckin,
		Interval:          cfg.App.CheckInterval.Std(),
		Cooldown:          cfg.App.RetryCooldown.Std(),
	}
}

// Deps are the collaborators a Scheduler drives.
type Deps struct {
	State      *state.Manager
	Checkin    []channel.ReplyChannel
	Recipients []channel.Recipient
	Messages   message.Source

	// History receives lifecycle events. Nil disables it.
	History history.Log

	// Sleep pauses between cycles. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// Wake, when it fires, ends the current pause early
	Wake <-chan struct{}
}

// Scheduler runs cycles sequentially. All state mutation happens on the
// goroutine calling RunCycle.
type Scheduler struct {
	cfg        Config
	state      *state.Manager
	detector   *detector.Detector
	checkin    []channel.Channel
	recipients []channel.Recipient
	messages   message.Source
	history    history.Log
	sleep      func(ctx context.Context, d time.Duration) error
	wake       <-chan struct{}
	logger     *slog.Logger
}

// New creates a scheduler.
func New(cfg Config, deps Deps) *Scheduler {
	s := &Scheduler{
		cfg:        cfg,
		state:      deps.State,
		detector:   detector.New(deps.Checkin, deps.State),
		recipients: deps.Recipients,
		messages:   deps.Messages,
		history:    deps.History,
		sleep:      deps.Sleep,
		wake:       deps.Wake,
		logger:     logging.Component("scheduler"),
	}
	for _, ch := range deps.Checkin {
		s.checkin = append(s.checkin, ch)
	}
	if s.history == nil {
		s.history = history.Nop{}
	}
	if s.sleep == nil {
		s.sleep = s.pause
	}
	return s
}

// CycleReport describes what one cycle did.
type CycleReport struct {
	Detection detector.Detection

	RequestSent bool
	Request     delivery.FallbackReport

	EscalationAttempted bool
	Escalation          []delivery.RecipientResult
	Decision            delivery.Decision
}

// Run executes cycles until ctx is done. A failed cycle is logged and
// retried after the cool-down; Run only returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"checkin_threshold", s.cfg.CheckinThreshold.String(),
		"escalation_after", s.cfg.EscalationAfter.String(),
		"interval", s.cfg.Interval,
	)

	for {
		wait := s.cfg.Interval
		if _, err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("cycle failed, retrying after cool-down", "error", err, "cooldown", s.cfg.Cooldown)
			wait = s.cfg.Cooldown
		}

		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// pause waits for d, ctx, or a wake signal.
func (s *Scheduler) pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-s.wake:
		s.logger.Debug("woken early by state change")
		return nil
	}
}

// RunCycle runs one cycle: detect replies, request a check-in when due,
// then fire the last signal when due. A persistence failure aborts the
// cycle. An escalation that reached nobody returns an error wrapping
// delivery.ErrNoRecipientReached after the rest of the cycle has run.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	// 1. Detect replies since the watermark
	snap := s.state.Snapshot()
	detection, err := s.detector.Detect(ctx, snap.Watermark())
	if err != nil {
		return report, err
	}
	report.Detection = detection
	if detection.Found {
		s.record(history.Entry{
			At:      detection.RecordedAt,
			Kind:    history.KindCheckinDetected,
			Channel: detection.Channel,
			Detail:  "reply at " + detection.Response.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	// 2. Request a check-in when due
	if err := s.maybeRequest(ctx, &report); err != nil {
		return report, err
	}

	// 3. Fire the last signal when due
	return report, s.maybeEscalate(ctx, &report)
}

func (s *Scheduler) maybeRequest(ctx context.Context, report *CycleReport) error {
	snap := s.state.Snapshot()
	now := s.state.Now()
	if !snap.ShouldRequestCheckin(s.cfg.CheckinThreshold, now) {
		s.logger.Debug("no check-in request needed")
		return nil
	}
	if !s.requestDue(snap, now) {
		s.logger.Debug("check-in request already sent, waiting for retry delay",
			"last_request", snap.LastCheckinRequest, "retry_delay", s.cfg.RequestRetryDelay.String())
		return nil
	}

	msg, err := s.messages.CheckinRequest()
	if err != nil {
		return fmt.Errorf("generate check-in message: %w", err)
	}

	s.logger.Info("requesting check-in", "attempt", snap.CheckinRequestCount+1)
	result := delivery.Fallback(ctx, s.checkin, msg)
	report.RequestSent = true
	report.Request = result

	// The attempt is recorded whatever the outcome so the cadence advances
	if err := s.state.RecordCheckinRequest(); err != nil {
		return fmt.Errorf("record check-in request: %w", err)
	}

	switch {
	case result.Result.IsSuccess():
		s.logger.Info("check-in request sent", "channel", result.Channel)
		s.record(history.Entry{At: now, Kind: history.KindRequestSent, Channel: result.Channel})
	case result.Result.IsSkipped():
		s.logger.Info("check-in request skipped", "channel", result.Channel, "reason", result.Result.Reason)
		s.record(history.Entry{At: now, Kind: history.KindRequestFailed, Channel: result.Channel, Detail: result.Result.String()})
	default:
		s.logger.Error("CHECK-IN REQUEST NOT DELIVERED", "reason", result.Result.Reason)
		s.record(history.Entry{At: now, Kind: history.KindRequestFailed, Detail: result.Result.Reason})
	}
	return nil
}

// requestDue is true when no request is outstanding, or the outstanding
// one is at least RequestRetryDelay old.
func (s *Scheduler) requestDue(snap state.State, now time.Time) bool {
	if !awaitingReply(snap) || snap.LastCheckinRequest == nil {
		return true
	}
	return s.cfg.RequestRetryDelay.Reached(now.Sub(*snap.LastCheckinRequest))
}

func (s *Scheduler) maybeEscalate(ctx context.Context, report *CycleReport) error {
	snap := s.state.Snapshot()
	now := s.state.Now()
	if !snap.ShouldFireEscalation(s.cfg.EscalationAfter, now) {
		s.logger.Debug("no last signal needed")
		return nil
	}
	if snap.HasFiredRecently(s.cfg.EscalationAfter, now) {
		s.logger.Debug("last signal fired recently, not re-firing", "fired_at", snap.LastEscalationFired)
		return nil
	}

	msg, err := s.messages.LastSignal()
	if err != nil {
		return fmt.Errorf("generate last signal message: %w", err)
	}

	s.logger.Warn("firing last signal", "recipients", len(s.recipients))
	results, err := delivery.Broadcast(ctx, s.recipients, msg, s.state)
	report.EscalationAttempted = true
	report.Escalation = results
	for _, r := range results {
		s.record(history.Entry{
			At:        now,
			Kind:      history.KindRecipientResult,
			Channel:   r.Channel,
			Recipient: r.RecipientID,
			Detail:    r.Result.String(),
		})
	}
	if err != nil {
		return err
	}

	report.Decision = delivery.Summarize(results)
	switch report.Decision {
	case delivery.DecisionFired:
		if err := s.state.RecordEscalationFired(); err != nil {
			return fmt.Errorf("record last signal fired: %w", err)
		}
		s.logger.Warn("last signal fired", "reached", countSuccess(results), "recipients", len(results))
		s.record(history.Entry{At: now, Kind: history.KindEscalationFired,
			Detail: fmt.Sprintf("%d of %d recipients reached", countSuccess(results), len(results))})
		return nil

	case delivery.DecisionNoop:
		s.logger.Info("all recipients already notified, nothing sent", "recipients", len(results))
		return nil

	default:
		s.record(history.Entry{At: now, Kind: history.KindEscalationExhausted,
			Detail: fmt.Sprintf("%d recipients unreached", len(results)-countAlreadyNotified(results))})
		return fmt.Errorf("last signal: all %d output(s) failed or were skipped: %w",
			len(results)-countAlreadyNotified(results), delivery.ErrNoRecipientReached)
	}
}

func (s *Scheduler) record(e history.Entry) {
	if err := s.history.Append(e); err != nil {
		s.logger.Warn("failed to append history", "kind", e.Kind, "error", err)
	}
}

func countSuccess(results []delivery.RecipientResult) int {
	n := 0
	for _, r := range results {
		if r.Result.IsSuccess() {
			n++
		}
	}
	return n
}

func countAlreadyNotified(results []delivery.RecipientResult) int {
	n := 0
	for _, r := range results {
		if r.Result.IsSkipped() && r.Result.Reason == delivery.ReasonAlreadyNotified {
			n++
		}
	}
	return n
}

// IsExhausted reports whether err came from an escalation that reached nobody.
func IsExhausted(err error) bool {
	return errors.Is(err, delivery.ErrNoRecipientReached)
}

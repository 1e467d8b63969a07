package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/RevCBH/lastsignal/internal/channel"
	"github.com/RevCBH/lastsignal/internal/logging"
)

// ErrNoRecipientReached is returned when a broadcast left at least one
// recipient unreached and reached nobody new.
var ErrNoRecipientReached = errors.New("no recipient reached")

// Tracker is read/write access to the recipient-notification record.
type Tracker interface {
	IsRecipientNotified(id string) bool
	RecordRecipientNotified(id string) error
}

// RecipientResult is the outcome for one recipient.
type RecipientResult struct {
	RecipientID string
	Channel     string
	Result      channel.Result
}

// Broadcast sends message to every recipient in order and returns one
// result per recipient. Recipients already recorded as notified are neither
// health-checked nor contacted. A success is persisted before the next
// recipient is tried.
//
// A persistence error stops the broadcast and is returned with the results
// gathered so far.
func Broadcast(ctx context.Context, recipients []channel.Recipient, message string, tracker Tracker) ([]RecipientResult, error) {
	logger := logging.Component("delivery")
	results := make([]RecipientResult, 0, len(recipients))

	for _, r := range recipients {
		name := r.Channel.Name()
		rr := RecipientResult{RecipientID: r.ID, Channel: name}

		if tracker.IsRecipientNotified(r.ID) {
			rr.Result = channel.Skipped(ReasonAlreadyNotified)
			results = append(results, rr)
			continue
		}

		healthy, err := r.Channel.HealthCheck(ctx)
		if err != nil || !healthy {
			logger.Warn("recipient channel unhealthy", "recipient", r.ID, "channel", name, "error", err)
			rr.Result = channel.Skipped(ReasonUnhealthy)
			results = append(results, rr)
			continue
		}

		result, err := r.Channel.Send(ctx, message)
		if err != nil {
			result = channel.Failed(err.Error())
		}
		rr.Result = result
		results = append(results, rr)

		if !result.IsSuccess() {
			logger.Warn("recipient not reached", "recipient", r.ID, "channel", name, "result", result.String())
			continue
		}

		logger.Info("recipient notified", "recipient", r.ID, "channel", name)
		if err := tracker.RecordRecipientNotified(r.ID); err != nil {
			return results, fmt.Errorf("record recipient %s notified: %w", r.ID, err)
		}
	}

	return results, nil
}

// Decision is the aggregate verdict over a broadcast.
type Decision int

const (
	// DecisionFired means at least one recipient was newly reached
	DecisionFired Decision = iota

	// DecisionNoop means every recipient had already been notified
	DecisionNoop

	// DecisionExhausted means someone is still unreached and nobody new was reached
	DecisionExhausted
)

func (d Decision) String() string {
	switch d {
	case DecisionFired:
		return "fired"
	case DecisionNoop:
		return "noop"
	case DecisionExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Summarize applies the aggregate rule to broadcast results.
func Summarize(results []RecipientResult) Decision {
	pending := false
	for _, r := range results {
		if r.Result.IsSuccess() {
			return DecisionFired
		}
		if !(r.Result.IsSkipped() && r.Result.Reason == ReasonAlreadyNotified) {
			pending = true
		}
	}
	if pending {
		return DecisionExhausted
	}
	return DecisionNoop
}

// Err returns ErrNoRecipientReached for DecisionExhausted and nil otherwise.
func (d Decision) Err() error {
	if d == DecisionExhausted {
		return ErrNoRecipientReached
	}
	return nil
}

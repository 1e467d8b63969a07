// Package channel defines the capability set every notification channel
// implements, plus the concrete channels.
package channel

import (
	"context"
	"fmt"
	"time"
)

// Status is the outcome kind of a send.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of a send. Skipped means the channel deliberately
// did not act (unhealthy, already notified, not send-capable) and is never
// counted as a failure.
type Result struct {
	Status Status
	Reason string
}

// Success is a delivered message.
func Success() Result { return Result{Status: StatusSuccess} }

// Failed is an attempted delivery that did not go through.
func Failed(reason string) Result { return Result{Status: StatusFailed, Reason: reason} }

// Skipped is a deliberate non-attempt.
func Skipped(reason string) Result { return Result{Status: StatusSkipped, Reason: reason} }

func (r Result) IsSuccess() bool { return r.Status == StatusSuccess }
func (r Result) IsFailed() bool  { return r.Status == StatusFailed }
func (r Result) IsSkipped() bool { return r.Status == StatusSkipped }

func (r Result) String() string {
	if r.Reason == "" {
		return r.Status.String()
	}
	return fmt.Sprintf("%s: %s", r.Status, r.Reason)
}

// CheckinResponse is one candidate check-in signal seen on a channel.
// The zero value is "none".
type CheckinResponse struct {
	Found     bool
	Timestamp time.Time
	Subject   string
	Sender    string
}

// Found builds a found response.
func Found(ts time.Time, subject, sender string) CheckinResponse {
	return CheckinResponse{Found: true, Timestamp: ts, Subject: subject, Sender: sender}
}

// Channel is implemented by every notification channel. Each
// implementation bounds its own network calls with a timeout.
type Channel interface {
	// Send delivers message. Expected delivery problems are reported as a
	// Failed result; the error return is for problems outside the channel.
	Send(ctx context.Context, message string) (Result, error)

	// HealthCheck reports whether the channel can currently deliver.
	HealthCheck(ctx context.Context) (bool, error)

	// Name identifies the channel in logs and results.
	Name() string
}

// ReplyChannel is a channel that can also observe check-in signals.
type ReplyChannel interface {
	Channel

	// PollForReplies returns responses newer than since (nil means no lower bound).
	PollForReplies(ctx context.Context, since *time.Time) ([]CheckinResponse, error)

	// MarkConsumedUntil stops responses at or before t from being reported again.
	MarkConsumedUntil(ctx context.Context, t time.Time) error
}

// WithReplies adapts any channel to ReplyChannel. Channels that already
// support replies are returned unchanged.
func WithReplies(c Channel) ReplyChannel {
	if rc, ok := c.(ReplyChannel); ok {
		return rc
	}
	return noReplies{c}
}

type noReplies struct {
	Channel
}

func (noReplies) PollForReplies(context.Context, *time.Time) ([]CheckinResponse, error) {
	return nil, nil
}

func (noReplies) MarkConsumedUntil(context.Context, time.Time) error {
	return nil
}

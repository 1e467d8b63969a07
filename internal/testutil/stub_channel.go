package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/RevCBH/lastsignal/internal/channel"
)

// StubChannel is a scriptable channel.ReplyChannel that records every call.
type StubChannel struct {
	mu sync.Mutex

	name       string
	healthy    bool
	healthErr  error
	sendResult channel.Result
	sendErr    error
	replies    []channel.CheckinResponse
	pollErr    error
	markErr    error

	calls    []string
	sent     []string
	pollSeen []*time.Time
	marked   []time.Time
}

// NewStubChannel returns a healthy channel whose sends succeed.
func NewStubChannel(name string) *StubChannel {
	return &StubChannel{name: name, healthy: true, sendResult: channel.Success()}
}

func (s *StubChannel) Unhealthy() *StubChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = false
	return s
}

func (s *StubChannel) HealthError(err error) *StubChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthErr = err
	return s
}

func (s *StubChannel) SendResult(r channel.Result) *StubChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendResult = r
	return s
}

func (s *StubChannel) SendError(err error) *StubChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
	return s
}

// Reply queues a response for every subsequent poll.
func (s *StubChannel) Reply(ts time.Time) *StubChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, channel.Found(ts, "RE: LastSignal Notification", s.name))
	return s
}

func (s *StubChannel) PollError(err error) *StubChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollErr = err
	return s
}

func (s *StubChannel) MarkError(err error) *StubChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markErr = err
	return s
}

func (s *StubChannel) Name() string { return s.name }

func (s *StubChannel) HealthCheck(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "health")
	return s.healthy, s.healthErr
}

func (s *StubChannel) Send(ctx context.Context, message string) (channel.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "send")
	s.sent = append(s.sent, message)
	return s.sendResult, s.sendErr
}

func (s *StubChannel) PollForReplies(ctx context.Context, since *time.Time) ([]channel.CheckinResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "poll")
	s.pollSeen = append(s.pollSeen, since)
	if s.pollErr != nil {
		return nil, s.pollErr
	}
	var out []channel.CheckinResponse
	for _, r := range s.replies {
		if since == nil || r.Timestamp.After(*since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *StubChannel) MarkConsumedUntil(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "mark")
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, t)
	var kept []channel.CheckinResponse
	for _, r := range s.replies {
		if r.Timestamp.After(t) {
			kept = append(kept, r)
		}
	}
	s.replies = kept
	return nil
}

// Calls returns the recorded operations in order: health, send, poll, mark.
func (s *StubChannel) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *StubChannel) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *StubChannel) Marked() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.marked...)
}

// PolledSince returns the watermark passed to each poll.
func (s *StubChannel) PolledSince() []*time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*time.Time(nil), s.pollSeen...)
}

// MemoryTracker is an in-memory delivery.Tracker.
type MemoryTracker struct {
	mu        sync.Mutex
	notified  map[string]bool
	recordErr error
	Order     []string
}

func NewMemoryTracker(notified ...string) *MemoryTracker {
	t := &MemoryTracker{notified: make(map[string]bool)}
	for _, id := range notified {
		t.notified[id] = true
	}
	return t
}

// FailRecords makes every RecordRecipientNotified call fail with err.
func (t *MemoryTracker) FailRecords(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordErr = err
}

func (t *MemoryTracker) IsRecipientNotified(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notified[id]
}

func (t *MemoryTracker) RecordRecipientNotified(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recordErr != nil {
		return t.recordErr
	}
	t.notified[id] = true
	t.Order = append(t.Order, id)
	return nil
}

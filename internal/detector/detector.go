// Package detector finds check-in replies across all reply-capable channels.
package detector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"github.com/RevCBH/lastsignal/internal/channel"
	"github.com/RevCBH/lastsignal/internal/logging"
)

// DefaultParallelism bounds concurrent channel calls.
const DefaultParallelism = 4

// Recorder persists a detected check-in.
type Recorder interface {
	RecordCheckin() (time.Time, error)
}

// Detection is the outcome of one detection pass.
type Detection struct {
	Found bool

	// Response is the newest reply across all channels
	Response channel.CheckinResponse

	// Channel names the channel that produced Response
	Channel string

	// RecordedAt is the check-in time written to state
	RecordedAt time.Time
}

// Detector polls channels for replies and records the newest one.
type Detector struct {
	channels    []channel.ReplyChannel
	recorder    Recorder
	parallelism int
	logger      *slog.Logger
}

// New creates a detector over channels.
func New(channels []channel.ReplyChannel, recorder Recorder) *Detector {
	return &Detector{
		channels:    channels,
		recorder:    recorder,
		parallelism: DefaultParallelism,
		logger:      logging.Component("detector"),
	}
}

type candidate struct {
	channel  string
	response channel.CheckinResponse
}

// Detect polls every channel for replies newer than since. A channel that
// fails to poll is logged and ignored. When any reply is found, the check-in
// is recorded and every channel is asked to mark replies up to the winning
// timestamp as consumed.
//
// The only returned error is a failure to record the check-in.
func (d *Detector) Detect(ctx context.Context, since *time.Time) (Detection, error) {
	// 1. Poll all channels concurrently
	var (
		mu         sync.Mutex
		candidates []candidate
	)
	swg := sizedwaitgroup.New(d.parallelism)
	for _, ch := range d.channels {
		swg.Add()
		go func(ch channel.ReplyChannel) {
			defer swg.Done()
			responses, err := ch.PollForReplies(ctx, since)
			if err != nil {
				d.logger.Warn("failed to poll channel for replies", "channel", ch.Name(), "error", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range responses {
				if r.Found {
					candidates = append(candidates, candidate{channel: ch.Name(), response: r})
				}
			}
		}(ch)
	}
	swg.Wait()

	// 2. Pick the newest reply
	best, ok := newest(candidates)
	if !ok {
		return Detection{}, nil
	}

	// 3. Record the check-in
	recordedAt, err := d.recorder.RecordCheckin()
	if err != nil {
		return Detection{}, fmt.Errorf("record check-in: %w", err)
	}
	d.logger.Info("check-in detected",
		"channel", best.channel,
		"reply_at", best.response.Timestamp,
		"sender", best.response.Sender,
	)

	// 4. Mark consumed on every channel, best effort
	d.markAll(ctx, best.response.Timestamp)

	return Detection{
		Found:      true,
		Response:   best.response,
		Channel:    best.channel,
		RecordedAt: recordedAt,
	}, nil
}

func (d *Detector) markAll(ctx context.Context, until time.Time) {
	swg := sizedwaitgroup.New(d.parallelism)
	for _, ch := range d.channels {
		swg.Add()
		go func(ch channel.ReplyChannel) {
			defer swg.Done()
			if err := ch.MarkConsumedUntil(ctx, until); err != nil {
				d.logger.Warn("failed to mark replies consumed", "channel", ch.Name(), "error", err)
			}
		}(ch)
	}
	swg.Wait()
}

// newest returns the candidate with the latest timestamp. Ties keep the
// first seen.
func newest(candidates []candidate) (candidate, bool) {
	if len(candidates) == 0 {
		return candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.response.Timestamp.After(best.response.Timestamp) {
			best = c
		}
	}
	return best, true
}

package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RevCBH/lastsignal/internal/channel"
	"github.com/RevCBH/lastsignal/internal/testutil"
)

func TestFallback_WalksInPriorityOrder(t *testing.T) {
	x := testutil.NewStubChannel("x").Unhealthy()
	y := testutil.NewStubChannel("y").SendResult(channel.Failed("bounced"))
	z := testutil.NewStubChannel("z")
	after := testutil.NewStubChannel("after")

	report := Fallback(context.Background(), []channel.Channel{x, y, z, after}, "hello")

	assert.True(t, report.Result.IsSuccess())
	assert.Equal(t, "z", report.Channel)
	assert.Equal(t, []string{"health"}, x.Calls())
	assert.Equal(t, []string{"health", "send"}, y.Calls())
	assert.Equal(t, []string{"health", "send"}, z.Calls())
	assert.Empty(t, after.Calls())

	assert.Equal(t, []Attempt{
		{Channel: "x", Result: channel.Skipped(ReasonUnhealthy)},
		{Channel: "y", Result: channel.Failed("bounced")},
		{Channel: "z", Result: channel.Success()},
	}, report.Attempts)
}

func TestFallback_HealthErrorSkips(t *testing.T) {
	x := testutil.NewStubChannel("x").HealthError(errors.New("dial tcp: timeout"))
	y := testutil.NewStubChannel("y")

	report := Fallback(context.Background(), []channel.Channel{x, y}, "hello")

	assert.True(t, report.Result.IsSuccess())
	assert.Equal(t, "y", report.Channel)
	assert.Equal(t, []string{"health"}, x.Calls())
}

func TestFallback_SkippedSendShortCircuits(t *testing.T) {
	x := testutil.NewStubChannel("whoop").SendResult(channel.Skipped("whoop is a detection-only channel"))
	y := testutil.NewStubChannel("y")

	report := Fallback(context.Background(), []channel.Channel{x, y}, "hello")

	assert.True(t, report.Result.IsSkipped())
	assert.Equal(t, "whoop is a detection-only channel", report.Result.Reason)
	assert.Equal(t, "whoop", report.Channel)
	assert.Empty(t, y.Calls())
}

func TestFallback_SendErrorIsFailure(t *testing.T) {
	x := testutil.NewStubChannel("x").SendError(errors.New("boom"))
	y := testutil.NewStubChannel("y")

	report := Fallback(context.Background(), []channel.Channel{x, y}, "hello")

	assert.True(t, report.Result.IsSuccess())
	assert.Equal(t, channel.Failed("boom"), report.Attempts[0].Result)
}

func TestFallback_Exhausted(t *testing.T) {
	x := testutil.NewStubChannel("x").Unhealthy()
	y := testutil.NewStubChannel("y").SendResult(channel.Failed("401"))

	report := Fallback(context.Background(), []channel.Channel{x, y}, "hello")

	assert.True(t, report.Result.IsFailed())
	assert.Empty(t, report.Channel)
	assert.Contains(t, report.Result.Reason, "all channels exhausted")
	assert.Contains(t, report.Result.Reason, "x (skipped: health check failed)")
	assert.Contains(t, report.Result.Reason, "y (failed: 401)")
}

func TestFallback_NoChannels(t *testing.T) {
	report := Fallback(context.Background(), nil, "hello")

	assert.True(t, report.Result.IsFailed())
	assert.Equal(t, "no channels configured", report.Result.Reason)
}

package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RevCBH/lastsignal/internal/channel"
	"github.com/RevCBH/lastsignal/internal/testutil"
)

func recipients(chs ...*testutil.StubChannel) []channel.Recipient {
	out := make([]channel.Recipient, len(chs))
	for i, ch := range chs {
		out[i] = channel.Recipient{ID: "id:" + ch.Name(), Channel: ch}
	}
	return out
}

func TestBroadcast_ContactsEveryone(t *testing.T) {
	a := testutil.NewStubChannel("a")
	b := testutil.NewStubChannel("b").SendResult(channel.Failed("500"))
	c := testutil.NewStubChannel("c")
	tracker := testutil.NewMemoryTracker()

	results, err := Broadcast(context.Background(), recipients(a, b, c), "goodbye", tracker)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.True(t, results[0].Result.IsSuccess())
	assert.True(t, results[1].Result.IsFailed())
	assert.True(t, results[2].Result.IsSuccess())
	assert.Equal(t, []string{"id:a", "id:c"}, tracker.Order)
	assert.Equal(t, []string{"goodbye"}, c.Sent())
	assert.Equal(t, DecisionFired, Summarize(results))
}

func TestBroadcast_NeverRecontactsNotified(t *testing.T) {
	a := testutil.NewStubChannel("a")
	b := testutil.NewStubChannel("b")
	tracker := testutil.NewMemoryTracker("id:a")

	results, err := Broadcast(context.Background(), recipients(a, b), "goodbye", tracker)
	require.NoError(t, err)

	assert.Empty(t, a.Calls())
	assert.Equal(t, channel.Skipped(ReasonAlreadyNotified), results[0].Result)
	assert.True(t, results[1].Result.IsSuccess())
	assert.Equal(t, DecisionFired, Summarize(results))
}

func TestBroadcast_AllAlreadyNotifiedIsNoop(t *testing.T) {
	a := testutil.NewStubChannel("a")
	b := testutil.NewStubChannel("b")
	tracker := testutil.NewMemoryTracker("id:a", "id:b")

	results, err := Broadcast(context.Background(), recipients(a, b), "goodbye", tracker)
	require.NoError(t, err)

	assert.Empty(t, a.Calls())
	assert.Empty(t, b.Calls())
	d := Summarize(results)
	assert.Equal(t, DecisionNoop, d)
	assert.NoError(t, d.Err())
}

func TestBroadcast_NobodyReachedIsExhausted(t *testing.T) {
	a := testutil.NewStubChannel("a").Unhealthy()
	b := testutil.NewStubChannel("b").SendResult(channel.Failed("timeout"))
	tracker := testutil.NewMemoryTracker()

	results, err := Broadcast(context.Background(), recipients(a, b), "goodbye", tracker)
	require.NoError(t, err)

	assert.Equal(t, channel.Skipped(ReasonUnhealthy), results[0].Result)
	assert.True(t, results[1].Result.IsFailed())
	assert.Empty(t, tracker.Order)

	d := Summarize(results)
	assert.Equal(t, DecisionExhausted, d)
	assert.ErrorIs(t, d.Err(), ErrNoRecipientReached)
}

func TestBroadcast_PartiallyNotifiedRemainderUnreachable(t *testing.T) {
	a := testutil.NewStubChannel("a")
	b := testutil.NewStubChannel("b").Unhealthy()
	tracker := testutil.NewMemoryTracker("id:a")

	results, err := Broadcast(context.Background(), recipients(a, b), "goodbye", tracker)
	require.NoError(t, err)

	assert.Equal(t, DecisionExhausted, Summarize(results))
}

func TestBroadcast_PersistenceFailureStops(t *testing.T) {
	a := testutil.NewStubChannel("a")
	b := testutil.NewStubChannel("b")
	tracker := testutil.NewMemoryTracker()
	tracker.FailRecords(errors.New("disk full"))

	results, err := Broadcast(context.Background(), recipients(a, b), "goodbye", tracker)

	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, results, 1)
	assert.Empty(t, b.Calls())
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, DecisionNoop, Summarize(nil))
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "fired", DecisionFired.String())
	assert.Equal(t, "noop", DecisionNoop.String())
	assert.Equal(t, "exhausted", DecisionExhausted.String())
}

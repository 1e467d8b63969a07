package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RevCBH/lastsignal/internal/state"
)

func ptr(t time.Time) *time.Time { return &t }

func TestPhaseOf(t *testing.T) {
	tests := []struct {
		name  string
		state state.State
		want  Phase
	}{
		{"fresh", state.New(), PhaseIdle},
		{"checked in", state.State{LastCheckin: ptr(base)}, PhaseIdle},
		{"request outstanding", state.State{LastCheckin: ptr(base), FirstUnansweredRequest: ptr(base.Add(time.Hour))}, PhaseRequestPending},
		{"legacy request after checkin", state.State{LastCheckin: ptr(base), LastCheckinRequest: ptr(base.Add(time.Hour))}, PhaseRequestPending},
		{"request before checkin", state.State{LastCheckin: ptr(base.Add(time.Hour)), LastCheckinRequest: ptr(base)}, PhaseIdle},
		{"fired", state.State{LastEscalationFired: ptr(base)}, PhaseEscalated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhaseOf(tt.state))
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(PhaseIdle, PhaseRequestPending))
	assert.True(t, CanTransition(PhaseRequestPending, PhaseEscalated))
	assert.True(t, CanTransition(PhaseEscalated, PhaseIdle))
	assert.False(t, CanTransition(PhaseIdle, PhaseEscalated))
	assert.False(t, CanTransition(PhaseEscalated, PhaseRequestPending))
}

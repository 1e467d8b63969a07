package scheduler

import "github.com/RevCBH/lastsignal/internal/state"

// Phase is the lifecycle position derived from persisted state.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseRequestPending Phase = "request_pending"
	PhaseEscalated      Phase = "escalated" // Leaves only on a manual check-in
)

// ValidTransitions defines allowed phase transitions
var ValidTransitions = map[Phase][]Phase{
	PhaseIdle:           {PhaseRequestPending},
	PhaseRequestPending: {PhaseIdle, PhaseEscalated},
	PhaseEscalated:      {PhaseIdle},
}

// CanTransition checks if a transition from -> to is valid
func CanTransition(from, to Phase) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// PhaseOf derives the phase from a state record.
func PhaseOf(s state.State) Phase {
	switch {
	case s.LastEscalationFired != nil:
		return PhaseEscalated
	case awaitingReply(s):
		return PhaseRequestPending
	default:
		return PhaseIdle
	}
}

// awaitingReply is true when a request has been sent since the last check-in.
func awaitingReply(s state.State) bool {
	if s.FirstUnansweredRequest != nil {
		return true
	}
	if s.LastCheckinRequest == nil {
		return false
	}
	return s.LastCheckin == nil || s.LastCheckinRequest.After(*s.LastCheckin)
}

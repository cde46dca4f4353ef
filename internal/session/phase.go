package session

import (
	"fmt"

	"github.com/para-dev/para/internal/state"
)

// Event names a Session Manager operation attempting a phase transition.
// Grounded on cmd/entire/cli/session/phase.go's Event type: a small closed
// enum consumed by a pure Transition function, generalized here from the
// teacher's three-phase agent-turn machine to Para's six-phase session
// lifecycle (spec.md §4.5).
type Event int

const (
	EventCreate Event = iota
	EventFinish
	EventCancel
	EventRecover
)

func (e Event) String() string {
	switch e {
	case EventCreate:
		return "Create"
	case EventFinish:
		return "Finish"
	case EventCancel:
		return "Cancel"
	case EventRecover:
		return "Recover"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Transition computes the phase a session moves to when event is attempted
// from current, or an error if the event is not legal from that phase. This
// is a pure function with no side effects; Manager calls it to validate a
// precondition before performing any mutation, mirroring the teacher's
// "compute the transition, then apply it" split between phase.go and its
// caller.
func Transition(current state.Phase, event Event) (state.Phase, error) {
	switch event {
	case EventCreate:
		if current != "" {
			return "", fmt.Errorf("cannot create: phase %q already exists", current)
		}
		return state.PhaseCreating, nil

	case EventFinish:
		if current != state.PhaseActive {
			return "", fmt.Errorf("cannot finish: session is %q, not active", current)
		}
		return state.PhaseFinishing, nil

	case EventCancel:
		if current != state.PhaseActive && current != state.PhaseCreating {
			return "", fmt.Errorf("cannot cancel: session is %q", current)
		}
		return state.PhaseCancelling, nil

	case EventRecover:
		if !current.IsArchived() {
			return "", fmt.Errorf("cannot recover: session is %q, not archived", current)
		}
		return state.PhaseActive, nil

	default:
		return "", fmt.Errorf("unknown event %v", event)
	}
}

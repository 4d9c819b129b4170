package countdown

import "time"

// Phase represents the current timer mode.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
	PhaseExpired Phase = "expired"
)

// EventType defines the type of timer event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventProgress    EventType = "progress"
	EventExpired     EventType = "expired"
)

// State is a read-only view of the timer.
type State struct {
	Phase        Phase
	RemainingMs  int64
	ConfiguredMs int64
	EndTime      int64
	Formatted    string
}

// Running reports whether the countdown is in progress.
func (state State) Running() bool {
	return state.Phase == PhaseRunning
}

// Event represents a timer update for observers.
type Event struct {
	Type  EventType
	State State
	At    time.Time
}

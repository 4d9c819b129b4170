package stopwatch

import (
	"time"

	"timerstopwatch/internal/core/model"
)

// EventType defines the type of stopwatch event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventProgress    EventType = "progress"
	EventLap         EventType = "lap"
	EventLapsCleared EventType = "laps_cleared"
)

// State is a read-only view of the stopwatch.
type State struct {
	ElapsedMs int64
	Running   bool
	StartTime int64
	Laps      []model.Lap
	Formatted string
}

// Event represents a stopwatch update for observers.
type Event struct {
	Type  EventType
	State State
	Lap   *model.Lap
	At    time.Time
}

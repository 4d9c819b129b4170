package model

// Persistence defaults.
const (
	DefaultTimerRemainingMs int64 = 300_000

	// MaxTimerDurationMs is 99h59m59s.
	MaxTimerDurationMs int64 = (99*3600 + 59*60 + 59) * 1000
)

// Group names an independently persisted set of keys.
type Group string

const (
	GroupStopwatch Group = "stopwatch"
	GroupTimer     Group = "timer"
)

// Lap is a recorded stopwatch split.
type Lap struct {
	Number int
	Split  string
}

// StopwatchSnapshot is the persisted mirror of a stopwatch.
type StopwatchSnapshot struct {
	ElapsedMs int64
	IsRunning bool
	StartTime int64
}

// TimerSnapshot is the persisted mirror of a countdown timer.
type TimerSnapshot struct {
	RemainingMs int64
	IsRunning   bool
	EndTime     int64
	DurationMs  int64
}

// Snapshot holds both persisted groups.
type Snapshot struct {
	Stopwatch StopwatchSnapshot
	Timer     TimerSnapshot
}

// DefaultStopwatchSnapshot returns the state of a fresh stopwatch.
func DefaultStopwatchSnapshot() StopwatchSnapshot {
	return StopwatchSnapshot{}
}

// DefaultTimerSnapshot returns the state of a fresh timer.
func DefaultTimerSnapshot() TimerSnapshot {
	return TimerSnapshot{
		RemainingMs: DefaultTimerRemainingMs,
		DurationMs:  DefaultTimerRemainingMs,
	}
}

// DefaultSnapshot returns defaults for both groups.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Stopwatch: DefaultStopwatchSnapshot(),
		Timer:     DefaultTimerSnapshot(),
	}
}

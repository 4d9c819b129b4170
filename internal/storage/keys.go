package storage

import "timerstopwatch/internal/core/model"

// Persisted key names. Booleans are stored as 0 or 1.
const (
	KeyStopwatchElapsedMs = "stopwatch.elapsedMs"
	KeyStopwatchIsRunning = "stopwatch.isRunning"
	KeyStopwatchStartTime = "stopwatch.startTime"

	KeyTimerRemainingMs = "timer.remainingMs"
	KeyTimerIsRunning   = "timer.isRunning"
	KeyTimerEndTime     = "timer.endTime"
	KeyTimerDurationMs  = "timer.durationMs"
)

// GroupKeys returns the keys written together for group.
func GroupKeys(group model.Group) []string {
	switch group {
	case model.GroupStopwatch:
		return []string{KeyStopwatchElapsedMs, KeyStopwatchIsRunning, KeyStopwatchStartTime}
	case model.GroupTimer:
		return []string{KeyTimerRemainingMs, KeyTimerIsRunning, KeyTimerEndTime, KeyTimerDurationMs}
	default:
		return nil
	}
}

func encodeStopwatch(snapshot model.StopwatchSnapshot) map[string]int64 {
	return map[string]int64{
		KeyStopwatchElapsedMs: snapshot.ElapsedMs,
		KeyStopwatchIsRunning: boolValue(snapshot.IsRunning),
		KeyStopwatchStartTime: snapshot.StartTime,
	}
}

func encodeTimer(snapshot model.TimerSnapshot) map[string]int64 {
	return map[string]int64{
		KeyTimerRemainingMs: snapshot.RemainingMs,
		KeyTimerIsRunning:   boolValue(snapshot.IsRunning),
		KeyTimerEndTime:     snapshot.EndTime,
		KeyTimerDurationMs:  snapshot.DurationMs,
	}
}

// decodeSnapshot maps stored values back to snapshots. Missing keys take
// their defaults.
func decodeSnapshot(values map[string]int64) model.Snapshot {
	stopwatch := model.DefaultStopwatchSnapshot()
	timer := model.DefaultTimerSnapshot()

	lookup := func(key string, fallback int64) int64 {
		if value, ok := values[key]; ok {
			return value
		}
		return fallback
	}

	stopwatch.ElapsedMs = lookup(KeyStopwatchElapsedMs, stopwatch.ElapsedMs)
	stopwatch.IsRunning = lookup(KeyStopwatchIsRunning, 0) == 1
	stopwatch.StartTime = lookup(KeyStopwatchStartTime, stopwatch.StartTime)

	timer.RemainingMs = lookup(KeyTimerRemainingMs, timer.RemainingMs)
	timer.IsRunning = lookup(KeyTimerIsRunning, 0) == 1
	timer.EndTime = lookup(KeyTimerEndTime, timer.EndTime)
	timer.DurationMs = lookup(KeyTimerDurationMs, timer.DurationMs)

	return model.Snapshot{Stopwatch: stopwatch, Timer: timer}
}

func boolValue(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

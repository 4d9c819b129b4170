// Package stopwatch implements the count-up engine with lap recording.
package stopwatch

import (
	"log/slog"
	"sync"
	"time"

	"timerstopwatch/internal/core/clock"
	"timerstopwatch/internal/core/model"
	"timerstopwatch/internal/core/schedule"
	"timerstopwatch/internal/core/timefmt"
)

// DefaultTickInterval is the refresh cadence while running.
const DefaultTickInterval = 10 * time.Millisecond

// Sink receives snapshots to persist. Calls must not block.
type Sink interface {
	SaveStopwatch(snapshot model.StopwatchSnapshot)
	ClearStopwatch()
}

// Config contains runtime options for the engine.
type Config struct {
	TickInterval time.Duration
	Scheduler    schedule.Scheduler
	Logger       *slog.Logger
}

// Engine is the stopwatch state machine.
type Engine struct {
	mu         sync.Mutex
	clock      clock.Clock
	sink       Sink
	options    Config
	logger     *slog.Logger
	elapsed    int64
	startTime  int64
	running    bool
	laps       []model.Lap
	lapSeq     int
	generation uint64
	task       schedule.Task
	events     []chan Event
	closed     bool
}

// New creates a stopped engine with zero elapsed time.
func New(clk clock.Clock, sink Sink, options Config) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}
	if options.Scheduler == nil {
		options.Scheduler = schedule.Real{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if sink == nil {
		sink = discardSink{}
	}

	return &Engine{
		clock:   clk,
		sink:    sink,
		options: options,
		logger:  options.Logger.With("engine", "stopwatch"),
	}
}

// Subscribe registers a new observer channel.
func (engine *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	engine.mu.Lock()
	if engine.closed {
		close(ch)
	} else {
		engine.events = append(engine.events, ch)
	}
	engine.mu.Unlock()
	return ch
}

// State returns the current view.
func (engine *Engine) State() State {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.stateLocked()
}

// Restore reconciles the engine with a persisted snapshot. It is meant to be
// called once, at startup, before any command.
func (engine *Engine) Restore(snapshot model.StopwatchSnapshot) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		return
	}

	now := engine.clock.Now()
	engine.stopTaskLocked()
	engine.laps = nil
	engine.lapSeq = 0

	switch {
	case snapshot.IsRunning && snapshot.StartTime <= 0 && snapshot.ElapsedMs <= 0:
		engine.logger.Warn("discarding running stopwatch without start time")
		engine.elapsed = 0
		engine.startTime = 0
		engine.running = false
	case snapshot.IsRunning:
		startTime := snapshot.StartTime
		if startTime <= 0 {
			// older records carried only the elapsed value
			startTime = now - snapshot.ElapsedMs
		}
		elapsed := now - startTime
		if elapsed < 0 {
			engine.logger.Warn("stopwatch start time is in the future, clamping",
				"start_time", startTime, "now", now)
			elapsed = 0
			startTime = now
		}
		engine.elapsed = elapsed
		engine.startTime = startTime
		engine.running = true
		engine.startTaskLocked()
		engine.sink.SaveStopwatch(engine.snapshotLocked())
	default:
		elapsed := snapshot.ElapsedMs
		if elapsed < 0 {
			engine.logger.Warn("negative persisted elapsed time, clamping", "elapsed_ms", elapsed)
			elapsed = 0
		}
		engine.elapsed = elapsed
		engine.startTime = snapshot.StartTime
		engine.running = false
	}

	engine.logger.Debug("restored", "elapsed_ms", engine.elapsed, "running", engine.running)
	engine.emitLocked(EventStateChange, nil, now)
}

// Start begins or resumes counting. Ignored while running.
func (engine *Engine) Start() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.running || engine.closed {
		return
	}

	now := engine.clock.Now()
	engine.startTime = now - engine.elapsed
	engine.running = true
	engine.startTaskLocked()
	engine.sink.SaveStopwatch(engine.snapshotLocked())

	engine.logger.Debug("started", "elapsed_ms", engine.elapsed)
	engine.emitLocked(EventStateChange, nil, now)
}

// Tick refreshes elapsed time from the clock. Ignored unless running.
func (engine *Engine) Tick() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.tickLocked()
}

// Pause freezes elapsed time. Ignored unless running.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.running {
		return
	}

	now := engine.refreshLocked()
	engine.running = false
	engine.stopTaskLocked()
	engine.sink.SaveStopwatch(engine.snapshotLocked())

	engine.logger.Debug("paused", "elapsed_ms", engine.elapsed)
	engine.emitLocked(EventStateChange, nil, now)
}

// AddLap records the current elapsed time. Ignored while elapsed is zero.
func (engine *Engine) AddLap() {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	now := engine.clock.Now()
	if engine.running {
		now = engine.refreshLocked()
		engine.sink.SaveStopwatch(engine.snapshotLocked())
	}
	if engine.elapsed <= 0 {
		return
	}

	engine.lapSeq++
	lap := model.Lap{Number: engine.lapSeq, Split: timefmt.Format(engine.elapsed)}
	engine.laps = append(engine.laps, lap)
	engine.emitLocked(EventLap, &lap, now)
}

// ClearLaps removes all laps without touching elapsed time.
func (engine *Engine) ClearLaps() {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	engine.laps = nil
	engine.lapSeq = 0
	engine.emitLocked(EventLapsCleared, nil, engine.clock.Now())
}

// Reset stops the stopwatch, zeroes it, clears laps and purges persisted state.
func (engine *Engine) Reset() {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	engine.stopTaskLocked()
	engine.running = false
	engine.elapsed = 0
	engine.startTime = 0
	engine.laps = nil
	engine.lapSeq = 0
	engine.sink.ClearStopwatch()

	engine.logger.Debug("reset")
	engine.emitLocked(EventStateChange, nil, engine.clock.Now())
}

// Flush persists the current state, e.g. before the process is suspended.
func (engine *Engine) Flush() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		return
	}
	if engine.running {
		engine.refreshLocked()
	}
	engine.sink.SaveStopwatch(engine.snapshotLocked())
}

// Close stops ticking and closes observers. State is left as is.
func (engine *Engine) Close() {
	engine.mu.Lock()
	if engine.closed {
		engine.mu.Unlock()
		return
	}
	engine.closed = true
	engine.stopTaskLocked()
	events := engine.events
	engine.events = nil
	engine.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (engine *Engine) tickGeneration(generation uint64) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if generation != engine.generation {
		return
	}
	engine.tickLocked()
}

func (engine *Engine) tickLocked() {
	if !engine.running {
		return
	}
	now := engine.refreshLocked()
	engine.sink.SaveStopwatch(engine.snapshotLocked())
	engine.emitLocked(EventProgress, nil, now)
}

// refreshLocked recomputes elapsed from the clock. A clock that moved
// backwards rebases startTime so elapsed never decreases.
func (engine *Engine) refreshLocked() int64 {
	now := engine.clock.Now()
	elapsed := now - engine.startTime
	if elapsed < engine.elapsed {
		engine.logger.Warn("clock moved backwards, rebasing start time",
			"start_time", engine.startTime, "now", now)
		engine.startTime = now - engine.elapsed
		return now
	}
	engine.elapsed = elapsed
	return now
}

func (engine *Engine) startTaskLocked() {
	engine.stopTaskLocked()
	generation := engine.generation
	engine.task = engine.options.Scheduler.Every(engine.options.TickInterval, func() {
		engine.tickGeneration(generation)
	})
}

// stopTaskLocked revokes the tick task. Bumping the generation under the
// lock makes any callback already waiting on the lock a no-op.
func (engine *Engine) stopTaskLocked() {
	engine.generation++
	if engine.task != nil {
		engine.task.Stop()
		engine.task = nil
	}
}

func (engine *Engine) snapshotLocked() model.StopwatchSnapshot {
	return model.StopwatchSnapshot{
		ElapsedMs: engine.elapsed,
		IsRunning: engine.running,
		StartTime: engine.startTime,
	}
}

func (engine *Engine) stateLocked() State {
	return State{
		ElapsedMs: engine.elapsed,
		Running:   engine.running,
		StartTime: engine.startTime,
		Laps:      append([]model.Lap(nil), engine.laps...),
		Formatted: timefmt.Format(engine.elapsed),
	}
}

func (engine *Engine) emitLocked(eventType EventType, lap *model.Lap, now int64) {
	if len(engine.events) == 0 {
		return
	}
	event := Event{
		Type:  eventType,
		State: engine.stateLocked(),
		Lap:   lap,
		At:    clock.Time(now),
	}
	for _, ch := range engine.events {
		select {
		case ch <- event:
		default:
		}
	}
}

type discardSink struct{}

func (discardSink) SaveStopwatch(model.StopwatchSnapshot) {}
func (discardSink) ClearStopwatch()                      {}

// Package countdown implements the count-down timer engine with an
// edge-triggered expiry signal.
package countdown

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

// Input limits for Configure.
const (
	MaxHours   = 99
	MaxMinutes = 59
	MaxSeconds = 59
)

// Sink receives snapshots to persist. Calls must not block.
type Sink interface {
	SaveTimer(snapshot model.TimerSnapshot)
	ClearTimer()
}

// Alarm is notified once per run when the countdown reaches zero.
type Alarm interface {
	Ring(state State)
}

// Config contains runtime options for the engine.
type Config struct {
	TickInterval time.Duration
	Scheduler    schedule.Scheduler
	Logger       *slog.Logger
}

// Engine is the countdown state machine.
type Engine struct {
	mu         sync.Mutex
	clock      clock.Clock
	sink       Sink
	alarm      Alarm
	options    Config
	logger     *slog.Logger
	phase      Phase
	remaining  int64
	configured int64
	endTime    int64
	generation uint64
	task       schedule.Task
	events     []chan Event
	closed     bool
}

// New creates an idle engine configured with the default duration.
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
		clock:      clk,
		sink:       sink,
		options:    options,
		logger:     options.Logger.With("engine", "timer"),
		phase:      PhaseIdle,
		remaining:  model.DefaultTimerRemainingMs,
		configured: model.DefaultTimerRemainingMs,
	}
}

// SetAlarm injects the expiry notification hook.
func (engine *Engine) SetAlarm(alarm Alarm) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.alarm = alarm
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

// Restore reconciles the engine with a persisted snapshot. A running timer
// whose deadline passed while the process was gone comes back expired
// without ringing the alarm.
func (engine *Engine) Restore(snapshot model.TimerSnapshot) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		return
	}

	now := engine.clock.Now()
	engine.stopTaskLocked()
	engine.configured = clampDuration(snapshot.DurationMs)
	engine.endTime = 0

	switch {
	case snapshot.IsRunning && snapshot.EndTime > now:
		remaining := snapshot.EndTime - now
		if remaining > model.MaxTimerDurationMs {
			engine.logger.Warn("timer deadline too far ahead, clamping",
				"end_time", snapshot.EndTime, "now", now)
			remaining = model.MaxTimerDurationMs
		}
		engine.remaining = remaining
		engine.endTime = now + remaining
		engine.raiseConfiguredLocked()
		engine.phase = PhaseRunning
		engine.startTaskLocked()
		engine.sink.SaveTimer(engine.snapshotLocked())
	case snapshot.IsRunning && snapshot.EndTime > 0:
		engine.logger.Info("timer expired while the app was closed", "end_time", snapshot.EndTime)
		engine.remaining = 0
		engine.phase = PhaseExpired
		engine.sink.SaveTimer(engine.snapshotLocked())
	default:
		if snapshot.IsRunning {
			engine.logger.Warn("running timer without deadline, restoring as paused")
		}
		engine.remaining = clampDuration(snapshot.RemainingMs)
		engine.raiseConfiguredLocked()
		engine.phase = idlePhase(engine.remaining, engine.configured)
	}

	engine.logger.Debug("restored", "phase", engine.phase, "remaining_ms", engine.remaining)
	engine.emitLocked(EventStateChange, now)
}

// Configure sets the countdown duration. Ignored unless idle.
func (engine *Engine) Configure(hours, minutes, seconds int) {
	hours = clampInt(hours, 0, MaxHours)
	minutes = clampInt(minutes, 0, MaxMinutes)
	seconds = clampInt(seconds, 0, MaxSeconds)
	duration := int64(hours*3600+minutes*60+seconds) * 1000

	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.configureLocked(duration)
}

// ConfigurePreset applies a quick duration. Ignored unless idle.
func (engine *Engine) ConfigurePreset(preset Preset) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.configureLocked(clampDuration(preset.Duration.Milliseconds()))
}

// Start begins or resumes the countdown. Ignored while running or when
// nothing remains.
func (engine *Engine) Start() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed || engine.phase == PhaseRunning || engine.remaining <= 0 {
		return
	}

	now := engine.clock.Now()
	engine.endTime = now + engine.remaining
	engine.phase = PhaseRunning
	engine.startTaskLocked()
	engine.sink.SaveTimer(engine.snapshotLocked())

	engine.logger.Debug("started", "remaining_ms", engine.remaining, "end_time", engine.endTime)
	engine.emitLocked(EventStateChange, now)
}

// Tick refreshes the remaining time and expires the run at zero.
func (engine *Engine) Tick() {
	engine.mu.Lock()
	state, expired := engine.tickLocked()
	alarm := engine.alarm
	engine.mu.Unlock()

	if expired && alarm != nil {
		alarm.Ring(state)
	}
}

// Pause freezes the remaining time and discards the deadline.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	if engine.phase != PhaseRunning {
		engine.mu.Unlock()
		return
	}

	now := engine.clock.Now()
	remaining := engine.endTime - now
	if remaining <= 0 {
		state := engine.expireLocked(now)
		alarm := engine.alarm
		engine.mu.Unlock()
		if alarm != nil {
			alarm.Ring(state)
		}
		return
	}

	engine.remaining = min(remaining, engine.remaining)
	engine.endTime = 0
	engine.phase = PhasePaused
	engine.stopTaskLocked()
	engine.sink.SaveTimer(engine.snapshotLocked())

	engine.logger.Debug("paused", "remaining_ms", engine.remaining)
	engine.emitLocked(EventStateChange, now)
	engine.mu.Unlock()
}

// Reset returns to idle with the configured duration and purges persisted state.
func (engine *Engine) Reset() {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	engine.stopTaskLocked()
	engine.phase = PhaseIdle
	engine.remaining = engine.configured
	engine.endTime = 0
	engine.sink.ClearTimer()

	engine.logger.Debug("reset", "configured_ms", engine.configured)
	engine.emitLocked(EventStateChange, engine.clock.Now())
}

// Flush persists the current state, e.g. before the process is suspended.
func (engine *Engine) Flush() {
	engine.mu.Lock()
	state, expired := engine.tickLocked()
	if !expired && !engine.closed {
		engine.sink.SaveTimer(engine.snapshotLocked())
	}
	alarm := engine.alarm
	engine.mu.Unlock()

	if expired && alarm != nil {
		alarm.Ring(state)
	}
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
	if generation != engine.generation {
		engine.mu.Unlock()
		return
	}
	state, expired := engine.tickLocked()
	alarm := engine.alarm
	engine.mu.Unlock()

	if expired && alarm != nil {
		alarm.Ring(state)
	}
}

// tickLocked reports true only for the tick that ends the run.
func (engine *Engine) tickLocked() (State, bool) {
	if engine.phase != PhaseRunning {
		return engine.stateLocked(), false
	}

	now := engine.clock.Now()
	remaining := engine.endTime - now
	if remaining <= 0 {
		return engine.expireLocked(now), true
	}
	if remaining > engine.remaining {
		engine.logger.Warn("clock moved backwards, rebasing deadline",
			"end_time", engine.endTime, "now", now)
		engine.endTime = now + engine.remaining
		remaining = engine.remaining
	}

	engine.remaining = remaining
	engine.sink.SaveTimer(engine.snapshotLocked())
	engine.emitLocked(EventProgress, now)
	return engine.stateLocked(), false
}

func (engine *Engine) expireLocked(now int64) State {
	engine.remaining = 0
	engine.endTime = 0
	engine.phase = PhaseExpired
	engine.stopTaskLocked()
	engine.sink.SaveTimer(engine.snapshotLocked())

	engine.logger.Info("timer expired", "configured_ms", engine.configured)
	engine.emitLocked(EventExpired, now)
	return engine.stateLocked()
}

func (engine *Engine) configureLocked(duration int64) {
	if engine.closed || engine.phase != PhaseIdle {
		return
	}
	engine.configured = duration
	engine.remaining = duration
	engine.sink.SaveTimer(engine.snapshotLocked())
	engine.emitLocked(EventStateChange, engine.clock.Now())
}

// raiseConfiguredLocked keeps remaining within the configured duration.
func (engine *Engine) raiseConfiguredLocked() {
	if engine.remaining > engine.configured {
		engine.logger.Warn("remaining time exceeds configured duration, raising duration",
			"remaining_ms", engine.remaining, "configured_ms", engine.configured)
		engine.configured = engine.remaining
	}
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

func (engine *Engine) snapshotLocked() model.TimerSnapshot {
	return model.TimerSnapshot{
		RemainingMs: engine.remaining,
		IsRunning:   engine.phase == PhaseRunning,
		EndTime:     engine.endTime,
		DurationMs:  engine.configured,
	}
}

func (engine *Engine) stateLocked() State {
	return State{
		Phase:        engine.phase,
		RemainingMs:  engine.remaining,
		ConfiguredMs: engine.configured,
		EndTime:      engine.endTime,
		Formatted:    timefmt.Format(engine.remaining),
	}
}

func (engine *Engine) emitLocked(eventType EventType, now int64) {
	if len(engine.events) == 0 {
		return
	}
	event := Event{
		Type:  eventType,
		State: engine.stateLocked(),
		At:    clock.Time(now),
	}
	for _, ch := range engine.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func idlePhase(remaining, configured int64) Phase {
	switch {
	case remaining == configured:
		return PhaseIdle
	case remaining == 0:
		return PhaseExpired
	default:
		return PhasePaused
	}
}

func clampDuration(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	if ms > model.MaxTimerDurationMs {
		return model.MaxTimerDurationMs
	}
	return ms
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

type discardSink struct{}

func (discardSink) SaveTimer(model.TimerSnapshot) {}
func (discardSink) ClearTimer()                   {}

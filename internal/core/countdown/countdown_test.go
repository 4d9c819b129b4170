package countdown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timerstopwatch/internal/core/model"
	"timerstopwatch/internal/testutil"
)

type recordingSink struct {
	mu     sync.Mutex
	saves  []model.TimerSnapshot
	clears int
}

func (sink *recordingSink) SaveTimer(snapshot model.TimerSnapshot) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.saves = append(sink.saves, snapshot)
}

func (sink *recordingSink) ClearTimer() {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.clears++
}

func (sink *recordingSink) saveCount() int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return len(sink.saves)
}

func (sink *recordingSink) last() model.TimerSnapshot {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.saves) == 0 {
		return model.TimerSnapshot{}
	}
	return sink.saves[len(sink.saves)-1]
}

type countingAlarm struct {
	mu    sync.Mutex
	rings []State
}

func (alarm *countingAlarm) Ring(state State) {
	alarm.mu.Lock()
	defer alarm.mu.Unlock()
	alarm.rings = append(alarm.rings, state)
}

func (alarm *countingAlarm) count() int {
	alarm.mu.Lock()
	defer alarm.mu.Unlock()
	return len(alarm.rings)
}

type fixture struct {
	clock     *testutil.ManualClock
	scheduler *testutil.ManualScheduler
	sink      *recordingSink
	alarm     *countingAlarm
	engine    *Engine
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := testutil.NewManualClock(0)
	scheduler := testutil.NewManualScheduler()
	sink := &recordingSink{}
	alarm := &countingAlarm{}
	engine := New(clk, sink, Config{Scheduler: scheduler})
	engine.SetAlarm(alarm)
	t.Cleanup(engine.Close)
	return fixture{clock: clk, scheduler: scheduler, sink: sink, alarm: alarm, engine: engine}
}

func TestTimer_DefaultsToFiveMinutes(t *testing.T) {
	f := newFixture(t)

	state := f.engine.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, int64(300_000), state.RemainingMs)
	assert.Equal(t, int64(300_000), state.ConfiguredMs)
	assert.Equal(t, "00:05:00.00", state.Formatted)
}

func TestTimer_TwentyFiveMinuteRun(t *testing.T) {
	f := newFixture(t)

	f.engine.Configure(0, 25, 0)
	f.engine.Start()
	assert.Equal(t, int64(1_500_000), f.engine.State().EndTime)

	f.clock.Set(600_000)
	f.scheduler.Fire()
	state := f.engine.State()
	assert.Equal(t, PhaseRunning, state.Phase)
	assert.Equal(t, int64(900_000), state.RemainingMs)
	assert.Equal(t, "00:15:00.00", state.Formatted)

	f.clock.Set(1_500_000)
	f.scheduler.Fire()
	state = f.engine.State()
	assert.Equal(t, PhaseExpired, state.Phase)
	assert.Equal(t, int64(0), state.RemainingMs)
	assert.Equal(t, 1, f.alarm.count())
	assert.Equal(t, model.TimerSnapshot{RemainingMs: 0, IsRunning: false, EndTime: 0, DurationMs: 1_500_000}, f.sink.last())
	assert.Zero(t, f.scheduler.Active())
}

func TestTimer_RemainingFollowsDeadline(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(10_000)

	f.engine.Configure(0, 1, 0)
	f.engine.Start()
	for _, now := range []int64{10_010, 25_000, 40_123, 69_999} {
		f.clock.Set(now)
		f.engine.Tick()
		assert.Equal(t, 70_000-now, f.engine.State().RemainingMs, "now=%d", now)
	}
}

func TestTimer_ExpiresExactlyOnce(t *testing.T) {
	f := newFixture(t)
	events := f.engine.Subscribe(2048)

	f.engine.Configure(0, 0, 1)
	f.engine.Start()
	f.clock.Set(1000)
	for i := 0; i < 1000; i++ {
		f.engine.Tick()
		f.clock.Advance(10)
	}
	f.engine.Close()

	expired := 0
	for event := range events {
		if event.Type == EventExpired {
			expired++
		}
	}
	assert.Equal(t, 1, expired)
	assert.Equal(t, 1, f.alarm.count())
	assert.Equal(t, PhaseExpired, f.engine.State().Phase)
}

func TestTimer_AlarmReceivesExpiredState(t *testing.T) {
	f := newFixture(t)

	f.engine.Configure(0, 0, 3)
	f.engine.Start()
	f.clock.Set(4000)
	f.engine.Tick()

	require.Equal(t, 1, f.alarm.count())
	assert.Equal(t, PhaseExpired, f.alarm.rings[0].Phase)
	assert.Equal(t, int64(3000), f.alarm.rings[0].ConfiguredMs)
}

func TestTimer_PauseDiscardsDeadline(t *testing.T) {
	f := newFixture(t)

	f.engine.Configure(0, 0, 10)
	f.engine.Start()
	f.clock.Set(4000)
	f.engine.Pause()

	state := f.engine.State()
	assert.Equal(t, PhasePaused, state.Phase)
	assert.Equal(t, int64(6000), state.RemainingMs)
	assert.Zero(t, state.EndTime)
	assert.Equal(t, model.TimerSnapshot{RemainingMs: 6000, DurationMs: 10_000}, f.sink.last())

	f.clock.Set(100_000)
	f.engine.Start()
	assert.Equal(t, int64(106_000), f.engine.State().EndTime)

	f.clock.Set(105_000)
	f.engine.Tick()
	assert.Equal(t, int64(1000), f.engine.State().RemainingMs)
}

func TestTimer_PausePastDeadlineExpires(t *testing.T) {
	f := newFixture(t)

	f.engine.Configure(0, 0, 2)
	f.engine.Start()
	f.clock.Set(2500)
	f.engine.Pause()

	assert.Equal(t, PhaseExpired, f.engine.State().Phase)
	assert.Equal(t, 1, f.alarm.count())
}

func TestTimer_StartIsNoopWithNothingRemaining(t *testing.T) {
	t.Run("configured zero", func(t *testing.T) {
		f := newFixture(t)
		f.engine.Configure(0, 0, 0)
		f.engine.Start()
		assert.Equal(t, PhaseIdle, f.engine.State().Phase)
		assert.Empty(t, f.scheduler.Tasks())
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		f.engine.Configure(0, 0, 1)
		f.engine.Start()
		f.clock.Set(1000)
		f.engine.Tick()
		f.engine.Start()
		assert.Equal(t, PhaseExpired, f.engine.State().Phase)
		assert.Len(t, f.scheduler.Tasks(), 1)
	})
}

func TestTimer_StartWhileRunningIsNoop(t *testing.T) {
	f := newFixture(t)

	f.engine.Start()
	f.clock.Set(1000)
	f.engine.Start()

	assert.Len(t, f.scheduler.Tasks(), 1)
	assert.Equal(t, int64(300_000), f.engine.State().EndTime)
}

func TestTimer_ConfigureClampsFields(t *testing.T) {
	tests := []struct {
		name                   string
		hours, minutes, second int
		want                   int64
	}{
		{name: "plain", hours: 1, minutes: 2, second: 3, want: 3_723_000},
		{name: "negative", hours: -1, minutes: -5, second: -9, want: 0},
		{name: "overflow", hours: 120, minutes: 75, second: 99, want: model.MaxTimerDurationMs},
		{name: "minutes only", minutes: 60, want: 59 * 60_000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.engine.Configure(tc.hours, tc.minutes, tc.second)
			state := f.engine.State()
			assert.Equal(t, tc.want, state.ConfiguredMs)
			assert.Equal(t, tc.want, state.RemainingMs)
			assert.Equal(t, model.TimerSnapshot{RemainingMs: tc.want, DurationMs: tc.want}, f.sink.last())
		})
	}
}

func TestTimer_ConfigureOnlyWhenIdle(t *testing.T) {
	f := newFixture(t)

	f.engine.Start()
	f.engine.Configure(0, 1, 0)
	assert.Equal(t, int64(300_000), f.engine.State().ConfiguredMs)

	f.clock.Set(1000)
	f.engine.Pause()
	f.engine.Configure(0, 1, 0)
	assert.Equal(t, int64(300_000), f.engine.State().ConfiguredMs)
	assert.Equal(t, int64(299_000), f.engine.State().RemainingMs)

	f.engine.Reset()
	f.engine.Configure(0, 1, 0)
	assert.Equal(t, int64(60_000), f.engine.State().ConfiguredMs)
}

func TestTimer_ConfigurePreset(t *testing.T) {
	f := newFixture(t)

	require.Len(t, Presets, 5)
	f.engine.ConfigurePreset(Presets[4])
	state := f.engine.State()
	assert.Equal(t, int64((25 * time.Minute).Milliseconds()), state.ConfiguredMs)
	assert.Equal(t, "00:25:00.00", state.Formatted)
}

func TestTimer_ResetRestoresConfiguredDuration(t *testing.T) {
	f := newFixture(t)

	f.engine.Configure(0, 0, 30)
	f.engine.Start()
	f.clock.Set(12_000)
	f.engine.Tick()
	f.engine.Reset()

	state := f.engine.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, int64(30_000), state.RemainingMs)
	assert.Zero(t, state.EndTime)
	assert.Equal(t, 1, f.sink.clears)
	assert.Zero(t, f.scheduler.Active())
}

func TestTimer_ResetAfterExpiry(t *testing.T) {
	f := newFixture(t)

	f.engine.Configure(0, 0, 1)
	f.engine.Start()
	f.clock.Set(1500)
	f.engine.Tick()
	f.engine.Reset()
	f.engine.Start()

	assert.Equal(t, PhaseRunning, f.engine.State().Phase)
	f.clock.Set(2500)
	f.engine.Tick()
	assert.Equal(t, 2, f.alarm.count())
}

func TestTimer_StaleTickAfterPauseIsIgnored(t *testing.T) {
	f := newFixture(t)

	f.engine.Start()
	task := f.scheduler.Last()
	f.clock.Set(2000)
	f.engine.Pause()
	saves := f.sink.saveCount()

	f.clock.Set(400_000)
	task.Fire()

	assert.Equal(t, PhasePaused, f.engine.State().Phase)
	assert.Equal(t, int64(298_000), f.engine.State().RemainingMs)
	assert.Equal(t, saves, f.sink.saveCount())
	assert.Zero(t, f.alarm.count())
}

func TestTimer_ClockMovingBackwardsNeverGrowsRemaining(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(50_000)

	f.engine.Start()
	f.clock.Set(60_000)
	f.engine.Tick()
	require.Equal(t, int64(290_000), f.engine.State().RemainingMs)

	f.clock.Set(40_000)
	f.engine.Tick()
	assert.Equal(t, int64(290_000), f.engine.State().RemainingMs)

	f.clock.Set(41_000)
	f.engine.Tick()
	assert.Equal(t, int64(289_000), f.engine.State().RemainingMs)
}

func TestTimer_Restore(t *testing.T) {
	const now = 1_000_000

	tests := []struct {
		name          string
		snapshot      model.TimerSnapshot
		wantPhase     Phase
		wantRemaining int64
		wantEnd       int64
		wantSave      bool
	}{
		{
			name:          "running continues",
			snapshot:      model.TimerSnapshot{RemainingMs: 90_000, IsRunning: true, EndTime: now + 30_000, DurationMs: 90_000},
			wantPhase:     PhaseRunning,
			wantRemaining: 30_000,
			wantEnd:       now + 30_000,
			wantSave:      true,
		},
		{
			name:          "deadline passed while closed",
			snapshot:      model.TimerSnapshot{RemainingMs: 60_000, IsRunning: true, EndTime: now - 60_000, DurationMs: 120_000},
			wantPhase:     PhaseExpired,
			wantRemaining: 0,
			wantSave:      true,
		},
		{
			name:          "paused",
			snapshot:      model.TimerSnapshot{RemainingMs: 42_000, DurationMs: 60_000},
			wantPhase:     PhasePaused,
			wantRemaining: 42_000,
		},
		{
			name:          "idle",
			snapshot:      model.DefaultTimerSnapshot(),
			wantPhase:     PhaseIdle,
			wantRemaining: 300_000,
		},
		{
			name:          "expired at rest",
			snapshot:      model.TimerSnapshot{RemainingMs: 0, DurationMs: 60_000},
			wantPhase:     PhaseExpired,
			wantRemaining: 0,
		},
		{
			name:          "running without deadline",
			snapshot:      model.TimerSnapshot{RemainingMs: 15_000, IsRunning: true, DurationMs: 60_000},
			wantPhase:     PhasePaused,
			wantRemaining: 15_000,
		},
		{
			name:          "negative remaining",
			snapshot:      model.TimerSnapshot{RemainingMs: -5, DurationMs: 60_000},
			wantPhase:     PhaseExpired,
			wantRemaining: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.clock.Set(now)

			f.engine.Restore(tc.snapshot)

			state := f.engine.State()
			assert.Equal(t, tc.wantPhase, state.Phase)
			assert.Equal(t, tc.wantRemaining, state.RemainingMs)
			assert.Equal(t, tc.wantEnd, state.EndTime)
			assert.Zero(t, f.alarm.count())
			if tc.wantSave {
				assert.Equal(t, 1, f.sink.saveCount())
			} else {
				assert.Zero(t, f.sink.saveCount())
			}
		})
	}
}

func TestTimer_RestoreExpiredPersistsZero(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(500_000)

	f.engine.Restore(model.TimerSnapshot{RemainingMs: 60_000, IsRunning: true, EndTime: 440_000, DurationMs: 60_000})

	assert.Equal(t, model.TimerSnapshot{RemainingMs: 0, IsRunning: false, EndTime: 0, DurationMs: 60_000}, f.sink.last())
	assert.Zero(t, f.scheduler.Active())
}

func TestTimer_RestoreRaisesConfiguredDuration(t *testing.T) {
	f := newFixture(t)

	f.engine.Restore(model.TimerSnapshot{RemainingMs: 600_000, DurationMs: 60_000})

	state := f.engine.State()
	assert.Equal(t, int64(600_000), state.ConfiguredMs)
	assert.Equal(t, PhaseIdle, state.Phase)
}

func TestTimer_RestoreRunningKeepsTicking(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(10_000)

	f.engine.Restore(model.TimerSnapshot{RemainingMs: 5000, IsRunning: true, EndTime: 12_000, DurationMs: 5000})
	require.Equal(t, 1, f.scheduler.Active())

	f.clock.Set(12_000)
	f.scheduler.Fire()
	assert.Equal(t, PhaseExpired, f.engine.State().Phase)
	assert.Equal(t, 1, f.alarm.count())
}

func TestTimer_FlushPersistsLiveRemaining(t *testing.T) {
	f := newFixture(t)

	f.engine.Start()
	f.clock.Set(30_000)
	f.engine.Flush()

	assert.Equal(t, model.TimerSnapshot{RemainingMs: 270_000, IsRunning: true, EndTime: 300_000, DurationMs: 300_000}, f.sink.last())
}

func TestTimer_CloseStopsTicking(t *testing.T) {
	f := newFixture(t)
	events := f.engine.Subscribe(8)

	f.engine.Start()
	f.engine.Close()
	f.engine.Close()

	assert.Zero(t, f.scheduler.Active())
	for range events {
	}
	_, open := <-events
	assert.False(t, open)
}

package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"timerstopwatch/internal/core/countdown"
	"timerstopwatch/internal/core/stopwatch"
	"timerstopwatch/internal/core/timefmt"
)

const menuTitle = "Timer & Stopwatch"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow            func()
	OnToggleStopwatch func()
	OnLap             func()
	OnToggleTimer     func()
	OnResetTimer      func()
	OnQuit            func()
}

// Manager handles system tray state.
type Manager struct {
	app             desktop.App
	callbacks       Callbacks
	stopwatchItem   *fyne.MenuItem
	timerItem       *fyne.MenuItem
	toggleStopwatch *fyne.MenuItem
	lapItem         *fyne.MenuItem
	toggleTimer     *fyne.MenuItem
	resetTimer      *fyne.MenuItem
	stopwatchLabel  string
	timerLabel      string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.stopwatchItem = fyne.NewMenuItem("Stopwatch: 00:00:00", nil)
	manager.stopwatchItem.Disabled = true
	manager.timerItem = fyne.NewMenuItem("Timer: 00:05:00", nil)
	manager.timerItem.Disabled = true

	manager.toggleStopwatch = fyne.NewMenuItem("Start stopwatch", invoke(&manager.callbacks.OnToggleStopwatch))
	manager.lapItem = fyne.NewMenuItem("Lap", invoke(&manager.callbacks.OnLap))
	manager.lapItem.Disabled = true
	manager.toggleTimer = fyne.NewMenuItem("Start timer", invoke(&manager.callbacks.OnToggleTimer))
	manager.resetTimer = fyne.NewMenuItem("Reset timer", invoke(&manager.callbacks.OnResetTimer))

	manager.refreshMenu()
	return manager
}

// SetStopwatch updates the stopwatch entries. The menu is rebuilt only when
// the visible text changes.
func (manager *Manager) SetStopwatch(state stopwatch.State) {
	label := stopwatchStatus(state)
	toggle := "Start stopwatch"
	if state.Running {
		toggle = "Pause stopwatch"
	}
	lapDisabled := state.ElapsedMs <= 0

	if label == manager.stopwatchLabel && toggle == manager.toggleStopwatch.Label && lapDisabled == manager.lapItem.Disabled {
		return
	}
	manager.stopwatchLabel = label
	manager.stopwatchItem.Label = label
	manager.toggleStopwatch.Label = toggle
	manager.lapItem.Disabled = lapDisabled
	manager.refreshMenu()
}

// SetTimer updates the timer entries.
func (manager *Manager) SetTimer(state countdown.State) {
	label := timerStatus(state)
	toggle := "Start timer"
	if state.Running() {
		toggle = "Pause timer"
	}

	if label == manager.timerLabel && toggle == manager.toggleTimer.Label {
		return
	}
	manager.timerLabel = label
	manager.timerItem.Label = label
	manager.toggleTimer.Label = toggle
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu(menuTitle,
		fyne.NewMenuItem("Show", invoke(&manager.callbacks.OnShow)),
		fyne.NewMenuItemSeparator(),
		manager.stopwatchItem,
		manager.toggleStopwatch,
		manager.lapItem,
		fyne.NewMenuItemSeparator(),
		manager.timerItem,
		manager.toggleTimer,
		manager.resetTimer,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", invoke(&manager.callbacks.OnQuit)),
	))
}

func invoke(handler *func()) func() {
	return func() {
		if *handler != nil {
			(*handler)()
		}
	}
}

// stopwatchStatus renders whole seconds; the tray is not redrawn per tick.
func stopwatchStatus(state stopwatch.State) string {
	hours, minutes, seconds := timefmt.Split(state.ElapsedMs)
	status := fmt.Sprintf("Stopwatch: %02d:%02d:%02d", hours, minutes, seconds)
	if !state.Running && state.ElapsedMs > 0 {
		status += " (paused)"
	}
	return status
}

func timerStatus(state countdown.State) string {
	if state.Phase == countdown.PhaseExpired {
		return "Timer: expired"
	}
	// Round up so the tray never shows 00:00:00 while time remains.
	remaining := state.RemainingMs
	if remaining%1000 != 0 {
		remaining += 1000 - remaining%1000
	}
	hours, minutes, seconds := timefmt.Split(remaining)
	status := fmt.Sprintf("Timer: %02d:%02d:%02d", hours, minutes, seconds)
	if state.Phase == countdown.PhasePaused {
		status += " (paused)"
	}
	return status
}

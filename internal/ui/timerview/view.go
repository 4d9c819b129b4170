// Package timerview renders the countdown tab.
package timerview

import (
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"timerstopwatch/internal/core/countdown"
	"timerstopwatch/internal/core/timefmt"
)

// Engine is the part of the timer the view drives.
type Engine interface {
	Start()
	Pause()
	Reset()
	Configure(hours, minutes, seconds int)
	ConfigurePreset(preset countdown.Preset)
	State() countdown.State
}

// Config defines view behaviour.
type Config struct {
	NearExpiry time.Duration
}

// View holds the timer widgets.
type View struct {
	engine     Engine
	config     Config
	display    *canvas.Text
	hours      *widget.Entry
	minutes    *widget.Entry
	seconds    *widget.Entry
	inputs     *fyne.Container
	startPause *widget.Button
	reset      *widget.Button
	phase      countdown.Phase
	syncing    bool
	content    fyne.CanvasObject
}

// New builds the view and renders the engine's current state.
func New(engine Engine, config Config) *View {
	view := &View{engine: engine, config: config}

	view.display = canvas.NewText("00:05:00.00", theme.Color(theme.ColorNameForeground))
	view.display.Alignment = fyne.TextAlignCenter
	view.display.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	view.display.TextSize = 42

	view.hours = newField("hh")
	view.minutes = newField("mm")
	view.seconds = newField("ss")
	for _, entry := range []*widget.Entry{view.hours, view.minutes, view.seconds} {
		entry.OnChanged = func(string) { view.applyInputs() }
	}

	presets := container.NewGridWithColumns(len(countdown.Presets))
	for _, preset := range countdown.Presets {
		presets.Add(widget.NewButton(preset.Label, func() {
			engine.ConfigurePreset(preset)
		}))
	}

	fields := container.NewGridWithColumns(3, view.hours, view.minutes, view.seconds)
	view.inputs = container.NewVBox(fields, presets)

	view.startPause = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), view.toggle)
	view.startPause.Importance = widget.HighImportance
	view.reset = widget.NewButtonWithIcon("Reset", theme.MediaReplayIcon(), engine.Reset)
	controls := container.NewGridWithColumns(2, view.startPause, view.reset)

	view.content = container.NewVBox(container.NewPadded(view.display), view.inputs, controls)

	view.Render(engine.State())
	return view
}

// Content returns the root canvas object.
func (view *View) Content() fyne.CanvasObject {
	return view.content
}

// Render applies state to the widgets. Must run on the UI goroutine.
func (view *View) Render(state countdown.State) {
	view.phase = state.Phase

	view.display.Text = state.Formatted
	if state.Phase == countdown.PhaseExpired || nearExpiry(state, view.config.NearExpiry) {
		view.display.Color = theme.Color(theme.ColorNameError)
	} else {
		view.display.Color = theme.Color(theme.ColorNameForeground)
	}
	view.display.Refresh()

	switch state.Phase {
	case countdown.PhaseRunning:
		view.startPause.SetText("Pause")
		view.startPause.SetIcon(theme.MediaPauseIcon())
	case countdown.PhasePaused:
		view.startPause.SetText("Resume")
		view.startPause.SetIcon(theme.MediaPlayIcon())
	default:
		view.startPause.SetText("Start")
		view.startPause.SetIcon(theme.MediaPlayIcon())
	}
	if state.Running() || state.RemainingMs > 0 {
		view.startPause.Enable()
	} else {
		view.startPause.Disable()
	}

	if state.Phase == countdown.PhaseIdle {
		view.syncInputs(state.ConfiguredMs)
		view.inputs.Show()
	} else {
		view.inputs.Hide()
	}
}

// Follow renders events until the channel closes.
func (view *View) Follow(events <-chan countdown.Event) {
	for event := range events {
		state := event.State
		fyne.Do(func() {
			view.Render(state)
		})
	}
}

func (view *View) toggle() {
	if view.phase == countdown.PhaseRunning {
		view.engine.Pause()
		return
	}
	view.engine.Start()
}

// applyInputs forwards edited fields to the engine. Programmatic updates
// from syncInputs are not echoed back.
func (view *View) applyInputs() {
	if view.syncing || view.phase != countdown.PhaseIdle {
		return
	}
	hours, _ := parseField(view.hours.Text, countdown.MaxHours)
	minutes, _ := parseField(view.minutes.Text, countdown.MaxMinutes)
	seconds, _ := parseField(view.seconds.Text, countdown.MaxSeconds)
	view.engine.Configure(hours, minutes, seconds)
}

func (view *View) syncInputs(configuredMs int64) {
	hours, minutes, seconds := timefmt.Split(configuredMs)
	view.syncing = true
	defer func() { view.syncing = false }()

	setField(view.hours, view.hours.Text, hours, countdown.MaxHours)
	setField(view.minutes, view.minutes.Text, minutes, countdown.MaxMinutes)
	setField(view.seconds, view.seconds.Text, seconds, countdown.MaxSeconds)
}

func newField(placeholder string) *widget.Entry {
	entry := widget.NewEntry()
	entry.SetPlaceHolder(placeholder)
	return entry
}

// setField rewrites entry only when its parsed value differs, so the
// caret is not disturbed while the user is typing.
func setField(entry *widget.Entry, current string, value, limit int) {
	if parsed, ok := parseField(current, limit); ok && parsed == value && strings.TrimSpace(current) != "" {
		return
	}
	entry.SetText(pad(value))
}

// parseField reads a numeric input clamped to [0, limit]. Empty input is 0.
// The flag is false when the text is not a number.
func parseField(text string, limit int) (int, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	if parsed < 0 {
		return 0, true
	}
	if parsed > limit {
		return limit, true
	}
	return parsed, true
}

// nearExpiry reports whether a running countdown is within threshold of zero.
func nearExpiry(state countdown.State, threshold time.Duration) bool {
	if threshold <= 0 || state.RemainingMs <= 0 || !state.Running() {
		return false
	}
	return state.RemainingMs <= threshold.Milliseconds()
}

func pad(value int) string {
	if value < 10 {
		return "0" + strconv.Itoa(value)
	}
	return strconv.Itoa(value)
}

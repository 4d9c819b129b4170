// Package stopwatchview renders the stopwatch tab.
package stopwatchview

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"timerstopwatch/internal/core/model"
	"timerstopwatch/internal/core/stopwatch"
)

// Engine is the part of the stopwatch the view drives.
type Engine interface {
	Start()
	Pause()
	Reset()
	AddLap()
	ClearLaps()
	State() stopwatch.State
}

// View holds the stopwatch widgets.
type View struct {
	engine     Engine
	display    *canvas.Text
	startPause *widget.Button
	lap        *widget.Button
	reset      *widget.Button
	clearLaps  *widget.Button
	lapList    *widget.List
	laps       []model.Lap
	running    bool
	content    fyne.CanvasObject
}

// New builds the view and renders the engine's current state.
func New(engine Engine) *View {
	view := &View{engine: engine}

	view.display = canvas.NewText("00:00:00.00", theme.Color(theme.ColorNameForeground))
	view.display.Alignment = fyne.TextAlignCenter
	view.display.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	view.display.TextSize = 42

	view.startPause = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), view.toggle)
	view.startPause.Importance = widget.HighImportance
	view.lap = widget.NewButtonWithIcon("Lap", theme.ContentAddIcon(), engine.AddLap)
	view.reset = widget.NewButtonWithIcon("Reset", theme.MediaReplayIcon(), engine.Reset)
	view.clearLaps = widget.NewButtonWithIcon("Clear laps", theme.DeleteIcon(), engine.ClearLaps)

	view.lapList = widget.NewList(
		func() int { return len(view.laps) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, widget.NewLabel("Lap 00"), nil, widget.NewLabel("00:00:00.00"))
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < 0 || id >= len(view.laps) {
				return
			}
			lap := view.laps[len(view.laps)-1-id]
			// Border places the center object first, then left.
			row := item.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(lap.Split)
			row.Objects[1].(*widget.Label).SetText(fmt.Sprintf("Lap %d", lap.Number))
		},
	)

	controls := container.NewGridWithColumns(4, view.startPause, view.lap, view.reset, view.clearLaps)
	header := container.NewVBox(container.NewPadded(view.display), controls)
	view.content = container.NewBorder(header, nil, nil, nil, view.lapList)

	view.Render(engine.State())
	return view
}

// Content returns the root canvas object.
func (view *View) Content() fyne.CanvasObject {
	return view.content
}

// Render applies state to the widgets. Must run on the UI goroutine.
func (view *View) Render(state stopwatch.State) {
	view.display.Text = state.Formatted
	view.display.Refresh()

	view.running = state.Running
	switch {
	case state.Running:
		view.startPause.SetText("Pause")
		view.startPause.SetIcon(theme.MediaPauseIcon())
	case state.ElapsedMs > 0:
		view.startPause.SetText("Resume")
		view.startPause.SetIcon(theme.MediaPlayIcon())
	default:
		view.startPause.SetText("Start")
		view.startPause.SetIcon(theme.MediaPlayIcon())
	}
	setEnabled(view.lap, state.ElapsedMs > 0)
	setEnabled(view.reset, state.Running || state.ElapsedMs > 0 || len(state.Laps) > 0)
	setEnabled(view.clearLaps, len(state.Laps) > 0)

	if !sameLaps(view.laps, state.Laps) {
		view.laps = state.Laps
		view.lapList.Refresh()
	}
}

// Follow renders events until the channel closes.
func (view *View) Follow(events <-chan stopwatch.Event) {
	for event := range events {
		state := event.State
		fyne.Do(func() {
			view.Render(state)
		})
	}
}

func (view *View) toggle() {
	if view.running {
		view.engine.Pause()
		return
	}
	view.engine.Start()
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
		return
	}
	button.Disable()
}

func sameLaps(current, next []model.Lap) bool {
	if len(current) != len(next) {
		return false
	}
	for index := range current {
		if current[index] != next[index] {
			return false
		}
	}
	return true
}

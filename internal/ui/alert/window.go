// Package alert shows the expiry window and system notification when the
// countdown finishes.
package alert

import (
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"timerstopwatch/internal/core/countdown"
	"timerstopwatch/internal/core/timefmt"
)

const title = "Time's up"

// Config defines alert behaviour.
type Config struct {
	Notifications bool
	Logger        *slog.Logger
}

// Window is the countdown.Alarm shown on expiry.
type Window struct {
	app       fyne.App
	window    fyne.Window
	config    Config
	logger    *slog.Logger
	message   *canvas.Text
	dismiss   *widget.Button
	restart   *widget.Button
	onDismiss func()
	onRestart func()
}

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates a hidden alert window.
func New(app fyne.App, config Config) *Window {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	window := app.NewWindow(title)
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	background := canvas.NewRectangle(color.NRGBA{R: 0, G: 0, B: 0, A: 220})

	heading := canvas.NewText(title, color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	heading.Alignment = fyne.TextAlignCenter
	heading.TextStyle = fyne.TextStyle{Bold: true}
	heading.TextSize = 24

	message := canvas.NewText("", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	message.Alignment = fyne.TextAlignCenter
	message.TextSize = 15

	alert := &Window{
		app:     app,
		window:  window,
		config:  config,
		logger:  config.Logger.With("component", "alert"),
		message: message,
	}

	alert.dismiss = widget.NewButtonWithIcon("Dismiss", theme.CancelIcon(), alert.handleDismiss)
	alert.restart = widget.NewButtonWithIcon("Restart", theme.MediaReplayIcon(), alert.handleRestart)
	alert.dismiss.Importance = widget.HighImportance

	buttons := container.NewHBox(layout.NewSpacer(), alert.restart, alert.dismiss, layout.NewSpacer())
	content := container.NewVBox(layout.NewSpacer(), heading, message, buttons, layout.NewSpacer())
	window.SetContent(container.NewStack(background, container.NewPadded(content)))
	window.Resize(fyne.NewSize(360, 180))

	return alert
}

// SetOnDismiss sets the handler for the dismiss button.
func (alert *Window) SetOnDismiss(handler func()) {
	alert.onDismiss = handler
}

// SetOnRestart sets the handler for the restart button.
func (alert *Window) SetOnRestart(handler func()) {
	alert.onRestart = handler
}

// Ring implements countdown.Alarm. It may be called from any goroutine.
func (alert *Window) Ring(state countdown.State) {
	text := Message(state)
	alert.logger.Info("ringing", "configured_ms", state.ConfiguredMs)

	fyne.Do(func() {
		if alert.config.Notifications {
			alert.app.SendNotification(fyne.NewNotification(title, text))
		}
		alert.message.Text = text
		alert.message.Refresh()
		alert.window.CenterOnScreen()
		alert.window.Show()
		alert.window.RequestFocus()
	})
}

// Hide closes the alert window.
func (alert *Window) Hide() {
	alert.window.Hide()
}

func (alert *Window) handleDismiss() {
	alert.window.Hide()
	if alert.onDismiss != nil {
		alert.onDismiss()
	}
}

func (alert *Window) handleRestart() {
	alert.window.Hide()
	if alert.onRestart != nil {
		alert.onRestart()
	}
}

// Message describes the finished countdown.
func Message(state countdown.State) string {
	if state.ConfiguredMs <= 0 {
		return "Timer finished"
	}
	return fmt.Sprintf("%s timer finished", describe(time.Duration(state.ConfiguredMs)*time.Millisecond))
}

func describe(duration time.Duration) string {
	hours, minutes, seconds := timefmt.Split(duration.Milliseconds())
	switch {
	case hours > 0:
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	"timerstopwatch/internal/config"
	"timerstopwatch/internal/core/clock"
	"timerstopwatch/internal/core/countdown"
	"timerstopwatch/internal/core/stopwatch"
	"timerstopwatch/internal/platform"
	"timerstopwatch/internal/storage"
	"timerstopwatch/internal/ui/alert"
	"timerstopwatch/internal/ui/stopwatchview"
	"timerstopwatch/internal/ui/timerview"
	"timerstopwatch/internal/ui/tray"
	"timerstopwatch/resources"
)

const (
	appName = "timerstopwatch"
	appID   = "com.timerstopwatch.app"

	shutdownTimeout = 5 * time.Second
)

func main() {
	appDir, err := platform.NewDirs().AppDir(appName)
	if err != nil {
		slog.Error("resolve app directory", "error", err)
	}

	settings := loadSettings(appDir)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: settings.LogLevel}))
	slog.SetDefault(logger)

	dataDir := settings.ResolveDataDir(appDir)
	guard, err := platform.AcquireSingleInstance(appName, dataDir)
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			logger.Error("another instance owns this data directory", "data_dir", dataDir, "error", err)
			return
		}
		logger.Error("single instance", "error", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	ctx := context.Background()
	store := openStore(ctx, logger, settings, dataDir)
	writer := storage.NewWriter(store, storage.WriterConfig{
		WriteTimeout: settings.WriteTimeout,
		Logger:       logger,
	})

	snapshot, err := store.Load(ctx)
	if err != nil {
		logger.Warn("load persisted state, starting from defaults", "error", err)
	}

	stopwatchEngine := stopwatch.New(clock.System{}, writer, stopwatch.Config{
		TickInterval: settings.TickInterval,
		Logger:       logger,
	})
	timerEngine := countdown.New(clock.System{}, writer, countdown.Config{
		TickInterval: settings.TickInterval,
		Logger:       logger,
	})

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(resources.MustIcon(resources.IconIdle))

	alertWindow := alert.New(fyneApp, alert.Config{
		Notifications: settings.Notifications,
		Logger:        logger,
	})
	alertWindow.SetOnRestart(func() {
		timerEngine.Reset()
		timerEngine.Start()
	})
	alertWindow.SetOnDismiss(timerEngine.Reset)
	timerEngine.SetAlarm(alertWindow)

	// Views render whatever state Restore reconciled.
	stopwatchEngine.Restore(snapshot.Stopwatch)
	timerEngine.Restore(snapshot.Timer)

	stopwatchView := stopwatchview.New(stopwatchEngine)
	timerView := timerview.New(timerEngine, timerview.Config{NearExpiry: settings.NearExpiry})
	go stopwatchView.Follow(stopwatchEngine.Subscribe(64))
	go timerView.Follow(timerEngine.Subscribe(64))

	window := fyneApp.NewWindow("Timer & Stopwatch")
	window.SetContent(container.NewAppTabs(
		container.NewTabItemWithIcon("Stopwatch", theme.HistoryIcon(), stopwatchView.Content()),
		container.NewTabItemWithIcon("Timer", theme.MediaPlayIcon(), timerView.Content()),
	))
	window.Resize(fyne.NewSize(420, 560))
	window.SetMaster()

	if desktopApp, ok := fyneApp.(desktop.App); ok {
		setupTray(desktopApp, fyneApp, window, stopwatchEngine, timerEngine)
	} else {
		logger.Info("system tray unsupported on this platform")
	}

	lifecycle := fyneApp.Lifecycle()
	lifecycle.SetOnExitedForeground(func() {
		stopwatchEngine.Flush()
		timerEngine.Flush()
	})
	lifecycle.SetOnEnteredForeground(func() {
		stopwatchEngine.Tick()
		timerEngine.Tick()
	})

	window.ShowAndRun()

	stopwatchEngine.Flush()
	timerEngine.Flush()
	stopwatchEngine.Close()
	timerEngine.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := writer.Close(shutdownCtx); err != nil {
		logger.Error("drain pending writes", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("close store", "error", err)
	}
}

func loadSettings(appDir string) config.Settings {
	if appDir == "" {
		settings := config.DefaultSettings()
		settings.Backend = storage.BackendMemory
		return settings
	}

	configPath := filepath.Join(appDir, config.FileName)
	settings, err := config.Load(configPath)
	if err != nil {
		slog.Warn("load config, using defaults", "path", configPath, "error", err)
		return settings
	}
	if _, statErr := os.Stat(configPath); errors.Is(statErr, os.ErrNotExist) {
		if err := config.Save(configPath, settings); err != nil {
			slog.Warn("write default config", "path", configPath, "error", err)
		}
	}
	return settings
}

func openStore(ctx context.Context, logger *slog.Logger, settings config.Settings, dataDir string) storage.Store {
	store, err := storage.Open(ctx, settings.Backend, dataDir)
	if err != nil {
		logger.Error("open persistent store, state will not survive restart",
			"backend", settings.Backend, "data_dir", dataDir, "error", err)
		return storage.NewMemoryStore()
	}
	logger.Debug("store opened", "backend", settings.Backend, "data_dir", dataDir)
	return store
}

func setupTray(desktopApp desktop.App, fyneApp fyne.App, window fyne.Window, stopwatchEngine *stopwatch.Engine, timerEngine *countdown.Engine) {
	trayManager := tray.New(desktopApp, tray.Callbacks{
		OnShow: func() {
			window.Show()
			window.RequestFocus()
		},
		OnToggleStopwatch: func() {
			if stopwatchEngine.State().Running {
				stopwatchEngine.Pause()
				return
			}
			stopwatchEngine.Start()
		},
		OnLap: stopwatchEngine.AddLap,
		OnToggleTimer: func() {
			if timerEngine.State().Running() {
				timerEngine.Pause()
				return
			}
			timerEngine.Start()
		},
		OnResetTimer: timerEngine.Reset,
		OnQuit:       fyneApp.Quit,
	})
	idleIcon := resources.MustIcon(resources.IconIdle)
	activeIcon := resources.MustIcon(resources.IconActive)
	stopwatchRunning := stopwatchEngine.State().Running
	timerRunning := timerEngine.State().Running()
	updateIcon := func() {
		if stopwatchRunning || timerRunning {
			desktopApp.SetSystemTrayIcon(activeIcon)
			return
		}
		desktopApp.SetSystemTrayIcon(idleIcon)
	}

	trayManager.SetStopwatch(stopwatchEngine.State())
	trayManager.SetTimer(timerEngine.State())
	updateIcon()

	window.SetCloseIntercept(func() {
		window.Hide()
	})

	go func() {
		for event := range stopwatchEngine.Subscribe(16) {
			state := event.State
			fyne.Do(func() {
				trayManager.SetStopwatch(state)
				if stopwatchRunning != state.Running {
					stopwatchRunning = state.Running
					updateIcon()
				}
			})
		}
	}()
	go func() {
		for event := range timerEngine.Subscribe(16) {
			state := event.State
			fyne.Do(func() {
				trayManager.SetTimer(state)
				if timerRunning != state.Running() {
					timerRunning = state.Running()
					updateIcon()
				}
			})
		}
	}()
}

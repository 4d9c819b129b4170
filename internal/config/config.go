// Package config holds application settings loaded from config.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"timerstopwatch/internal/storage"
)

// FileName is the settings file inside the per-user config directory.
const FileName = "config.yaml"

// Settings defines runtime options.
type Settings struct {
	TickInterval  time.Duration
	Backend       storage.Backend
	DataDir       string
	LogLevel      slog.Level
	NearExpiry    time.Duration
	WriteTimeout  time.Duration
	Notifications bool
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		TickInterval:  10 * time.Millisecond,
		Backend:       storage.BackendSQLite,
		LogLevel:      slog.LevelInfo,
		NearExpiry:    10 * time.Second,
		WriteTimeout:  storage.DefaultWriteTimeout,
		Notifications: true,
	}
}

type yamlSettings struct {
	TickIntervalMs      int    `yaml:"tick_interval_ms"`
	Backend             string `yaml:"backend"`
	DataDir             string `yaml:"data_dir"`
	LogLevel            string `yaml:"log_level"`
	NearExpirySeconds   int    `yaml:"near_expiry_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	Notifications       *bool  `yaml:"notifications"`
}

// Load reads settings from path.
// If the file does not exist, default settings are returned.
func Load(path string) (Settings, error) {
	settings := DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read config file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse config yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// Save writes settings to path, creating the directory if needed.
func Save(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	notifications := settings.Notifications
	fileData := yamlSettings{
		TickIntervalMs:      int(settings.TickInterval / time.Millisecond),
		Backend:             string(settings.Backend),
		DataDir:             settings.DataDir,
		LogLevel:            strings.ToLower(settings.LogLevel.String()),
		NearExpirySeconds:   int(settings.NearExpiry / time.Second),
		WriteTimeoutSeconds: int(settings.WriteTimeout / time.Second),
		Notifications:       &notifications,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ResolveDataDir returns DataDir, or configDir when it is unset.
func (settings Settings) ResolveDataDir(configDir string) string {
	if settings.DataDir == "" {
		return configDir
	}
	return settings.DataDir
}

func applyYamlSettings(settings *Settings, fileData yamlSettings) {
	if fileData.TickIntervalMs >= 1 && fileData.TickIntervalMs <= 1000 {
		settings.TickInterval = time.Duration(fileData.TickIntervalMs) * time.Millisecond
	}
	if backend, err := storage.ParseBackend(fileData.Backend); err == nil {
		settings.Backend = backend
	}
	if fileData.DataDir != "" {
		settings.DataDir = fileData.DataDir
	}
	if level, ok := parseLevel(fileData.LogLevel); ok {
		settings.LogLevel = level
	}
	if fileData.NearExpirySeconds > 0 {
		settings.NearExpiry = time.Duration(fileData.NearExpirySeconds) * time.Second
	}
	if fileData.WriteTimeoutSeconds > 0 {
		settings.WriteTimeout = time.Duration(fileData.WriteTimeoutSeconds) * time.Second
	}
	if fileData.Notifications != nil {
		settings.Notifications = *fileData.Notifications
	}
}

func parseLevel(value string) (slog.Level, bool) {
	if strings.TrimSpace(value) == "" {
		return 0, false
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, false
	}
	return level, true
}

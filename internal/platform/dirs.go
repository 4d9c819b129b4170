package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dirs resolves per-user application directories. The lookup functions
// default to the os package and are replaceable in tests.
type Dirs struct {
	UserConfigDir func() (string, error)
	UserHomeDir   func() (string, error)
}

// NewDirs returns a resolver backed by the os package.
func NewDirs() Dirs {
	return Dirs{
		UserConfigDir: os.UserConfigDir,
		UserHomeDir:   os.UserHomeDir,
	}
}

// ConfigDir returns the OS-standard configuration directory, falling back
// to a home-relative location when the environment does not define one.
func (dirs Dirs) ConfigDir() (string, error) {
	configDir, err := dirs.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := dirs.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}

	return fallbackConfigDir(homeDir), nil
}

// AppDir returns the application's own directory inside ConfigDir.
func (dirs Dirs) AppDir(appName string) (string, error) {
	name := strings.TrimSpace(appName)
	if name == "" {
		return "", fmt.Errorf("app dir: app name is empty")
	}
	configDir, err := dirs.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, name), nil
}

// Package storage persists stopwatch and timer snapshots as named int64
// keys. Each key group is written atomically and independently of the other.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"timerstopwatch/internal/core/model"
)

var (
	// ErrClosed is returned by stores after Close.
	ErrClosed = errors.New("storage: store closed")
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("storage: unknown backend")
)

// Store is the durable key-value mapping behind both engines.
type Store interface {
	Load(ctx context.Context) (model.Snapshot, error)
	SaveStopwatch(ctx context.Context, snapshot model.StopwatchSnapshot) error
	SaveTimer(ctx context.Context, snapshot model.TimerSnapshot) error
	Clear(ctx context.Context, group model.Group) error
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendYAML   Backend = "yaml"
	BackendMemory Backend = "memory"
)

// File names used inside the data directory.
const (
	SQLiteFileName = "state.db"
	YAMLFileName   = "state.yaml"
)

// ParseBackend normalizes a backend name.
func ParseBackend(name string) (Backend, error) {
	backend := Backend(strings.ToLower(strings.TrimSpace(name)))
	switch backend {
	case BackendSQLite, BackendYAML, BackendMemory:
		return backend, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Open creates the store for backend inside dir.
func Open(ctx context.Context, backend Backend, dir string) (Store, error) {
	switch backend {
	case BackendSQLite:
		return OpenSQLite(ctx, filepath.Join(dir, SQLiteFileName))
	case BackendYAML:
		return OpenFile(filepath.Join(dir, YAMLFileName))
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"timerstopwatch/internal/core/model"
)

const yamlStateVersion = 1

type yamlState struct {
	Version int              `yaml:"version"`
	Values  map[string]int64 `yaml:"values"`
}

// FileStore keeps all keys in a single YAML document. Every save rewrites
// the file through a temporary file and rename.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]int64
	closed bool
}

// OpenFile reads the state file at path. A missing file yields an empty store.
func OpenFile(path string) (*FileStore, error) {
	store := &FileStore{path: path, values: make(map[string]int64)}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var fileData yamlState
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return nil, fmt.Errorf("parse state yaml: %w", err)
	}
	maps.Copy(store.values, fileData.Values)
	return store, nil
}

// Path returns the backing file location.
func (store *FileStore) Path() string {
	return store.path
}

func (store *FileStore) Load(context.Context) (model.Snapshot, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return model.DefaultSnapshot(), ErrClosed
	}
	return decodeSnapshot(store.values), nil
}

func (store *FileStore) SaveStopwatch(ctx context.Context, snapshot model.StopwatchSnapshot) error {
	return store.update(ctx, func(values map[string]int64) {
		maps.Copy(values, encodeStopwatch(snapshot))
	})
}

func (store *FileStore) SaveTimer(ctx context.Context, snapshot model.TimerSnapshot) error {
	return store.update(ctx, func(values map[string]int64) {
		maps.Copy(values, encodeTimer(snapshot))
	})
}

func (store *FileStore) Clear(ctx context.Context, group model.Group) error {
	return store.update(ctx, func(values map[string]int64) {
		for _, key := range GroupKeys(group) {
			delete(values, key)
		}
	})
}

func (store *FileStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.closed = true
	return nil
}

// update applies mutate to a copy and commits it only after the file was
// written, so a failed write leaves both disk and memory unchanged.
func (store *FileStore) update(ctx context.Context, mutate func(map[string]int64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}

	next := maps.Clone(store.values)
	mutate(next)
	if err := store.write(next); err != nil {
		return err
	}
	store.values = next
	return nil
}

func (store *FileStore) write(values map[string]int64) error {
	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	serialized, err := yaml.Marshal(yamlState{Version: yamlStateVersion, Values: values})
	if err != nil {
		return fmt.Errorf("marshal state yaml: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(store.path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(serialized); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("sync state file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmpPath, store.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

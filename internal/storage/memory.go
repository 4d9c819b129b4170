package storage

import (
	"context"
	"maps"
	"sync"

	"timerstopwatch/internal/core/model"
)

// MemoryStore keeps values in process memory. Used when no durable backend
// is available and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]int64
	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]int64)}
}

func (store *MemoryStore) Load(context.Context) (model.Snapshot, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return model.DefaultSnapshot(), ErrClosed
	}
	return decodeSnapshot(store.values), nil
}

func (store *MemoryStore) SaveStopwatch(_ context.Context, snapshot model.StopwatchSnapshot) error {
	return store.put(encodeStopwatch(snapshot))
}

func (store *MemoryStore) SaveTimer(_ context.Context, snapshot model.TimerSnapshot) error {
	return store.put(encodeTimer(snapshot))
}

func (store *MemoryStore) Clear(_ context.Context, group model.Group) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}
	for _, key := range GroupKeys(group) {
		delete(store.values, key)
	}
	return nil
}

func (store *MemoryStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.closed = true
	return nil
}

func (store *MemoryStore) put(values map[string]int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}
	maps.Copy(store.values, values)
	return nil
}

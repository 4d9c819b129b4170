package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timerstopwatch/internal/core/model"
)

func openBackends(t *testing.T) map[Backend]Store {
	t.Helper()
	stores := make(map[Backend]Store)
	for _, backend := range []Backend{BackendSQLite, BackendYAML, BackendMemory} {
		store, err := Open(context.Background(), backend, t.TempDir())
		require.NoError(t, err, backend)
		t.Cleanup(func() { store.Close() })
		stores[backend] = store
	}
	return stores
}

func TestStore_EmptyLoadsDefaults(t *testing.T) {
	for backend, store := range openBackends(t) {
		t.Run(string(backend), func(t *testing.T) {
			snapshot, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, model.DefaultSnapshot(), snapshot)
			assert.Equal(t, int64(300_000), snapshot.Timer.RemainingMs)
		})
	}
}

func TestStore_RoundTripPerGroup(t *testing.T) {
	stopwatch := model.StopwatchSnapshot{ElapsedMs: 12_345, IsRunning: true, StartTime: 1_700_000_000_000}
	timer := model.TimerSnapshot{RemainingMs: 42_000, IsRunning: true, EndTime: 1_700_000_042_000, DurationMs: 60_000}

	for backend, store := range openBackends(t) {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.SaveStopwatch(ctx, stopwatch))
			snapshot, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, stopwatch, snapshot.Stopwatch)
			assert.Equal(t, model.DefaultTimerSnapshot(), snapshot.Timer)

			require.NoError(t, store.SaveTimer(ctx, timer))
			snapshot, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, stopwatch, snapshot.Stopwatch)
			assert.Equal(t, timer, snapshot.Timer)
		})
	}
}

func TestStore_ClearResetsOnlyItsGroup(t *testing.T) {
	for backend, store := range openBackends(t) {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.SaveStopwatch(ctx, model.StopwatchSnapshot{ElapsedMs: 900}))
			require.NoError(t, store.SaveTimer(ctx, model.TimerSnapshot{RemainingMs: 5000, DurationMs: 9000}))

			require.NoError(t, store.Clear(ctx, model.GroupTimer))

			snapshot, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(900), snapshot.Stopwatch.ElapsedMs)
			assert.Equal(t, model.DefaultTimerSnapshot(), snapshot.Timer)
		})
	}
}

func TestStore_ClosedRejectsWrites(t *testing.T) {
	for backend, store := range openBackends(t) {
		t.Run(string(backend), func(t *testing.T) {
			require.NoError(t, store.Close())
			err := store.SaveTimer(context.Background(), model.DefaultTimerSnapshot())
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	for _, backend := range []Backend{BackendSQLite, BackendYAML} {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			want := model.StopwatchSnapshot{ElapsedMs: 3000, StartTime: 0}

			store, err := Open(ctx, backend, dir)
			require.NoError(t, err)
			require.NoError(t, store.SaveStopwatch(ctx, want))
			require.NoError(t, store.Close())

			reopened, err := Open(ctx, backend, dir)
			require.NoError(t, err)
			defer reopened.Close()

			snapshot, err := reopened.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, snapshot.Stopwatch)
		})
	}
}

func TestDecodeSnapshot_BooleansAndMissingKeys(t *testing.T) {
	snapshot := decodeSnapshot(map[string]int64{
		KeyStopwatchIsRunning: 2,
		KeyTimerIsRunning:     1,
		KeyTimerRemainingMs:   7000,
	})

	assert.False(t, snapshot.Stopwatch.IsRunning)
	assert.True(t, snapshot.Timer.IsRunning)
	assert.Equal(t, int64(7000), snapshot.Timer.RemainingMs)
	assert.Equal(t, int64(300_000), snapshot.Timer.DurationMs)
}

func TestFileStore_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), YAMLFileName)
	require.NoError(t, os.WriteFile(path, []byte("values: [not, a, map"), 0o644))

	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestFileStore_WritesVersionedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", YAMLFileName)
	store, err := OpenFile(path)
	require.NoError(t, err)

	require.NoError(t, store.SaveTimer(context.Background(), model.TimerSnapshot{RemainingMs: 1, DurationMs: 2}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "version: 1")
	assert.Contains(t, string(raw), "timer.remainingMs: 1")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Backend("etcd"), t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = ParseBackend("nope")
	assert.ErrorIs(t, err, ErrUnknownBackend)

	backend, err := ParseBackend(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, backend)
}

package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"timerstopwatch/internal/core/model"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps keys in a single kv table. Each group is written in
// one transaction.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// OpenSQLite creates or opens the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("execute schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (store *SQLiteStore) Load(ctx context.Context) (model.Snapshot, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return model.DefaultSnapshot(), ErrClosed
	}

	rows, err := store.db.QueryContext(ctx, "SELECT key, value FROM kv")
	if err != nil {
		return model.DefaultSnapshot(), fmt.Errorf("query state: %w", err)
	}
	defer rows.Close()

	values := make(map[string]int64)
	for rows.Next() {
		var (
			key   string
			value int64
		)
		if err := rows.Scan(&key, &value); err != nil {
			return model.DefaultSnapshot(), fmt.Errorf("scan state row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return model.DefaultSnapshot(), fmt.Errorf("iterate state rows: %w", err)
	}

	return decodeSnapshot(values), nil
}

func (store *SQLiteStore) SaveStopwatch(ctx context.Context, snapshot model.StopwatchSnapshot) error {
	return store.upsert(ctx, model.GroupStopwatch, encodeStopwatch(snapshot))
}

func (store *SQLiteStore) SaveTimer(ctx context.Context, snapshot model.TimerSnapshot) error {
	return store.upsert(ctx, model.GroupTimer, encodeTimer(snapshot))
}

func (store *SQLiteStore) Clear(ctx context.Context, group model.Group) error {
	keys := GroupKeys(group)
	if len(keys) == 0 {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		args = append(args, key)
	}
	query := "DELETE FROM kv WHERE key IN (" + placeholders + ")"
	if _, err := store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear %s: %w", group, err)
	}
	return nil
}

func (store *SQLiteStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return nil
	}
	store.closed = true
	return store.db.Close()
}

func (store *SQLiteStore) upsert(ctx context.Context, group model.Group, values map[string]int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s write: %w", group, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare %s write: %w", group, err)
	}
	defer stmt.Close()

	updatedAt := time.Now().UnixMilli()
	for _, key := range GroupKeys(group) {
		if _, err := stmt.ExecContext(ctx, key, values[key], updatedAt); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s write: %w", group, err)
	}
	return nil
}

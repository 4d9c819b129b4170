package storage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"timerstopwatch/internal/core/model"
)

// DefaultWriteTimeout bounds a single store operation issued by the Writer.
const DefaultWriteTimeout = 2 * time.Second

// WriterConfig contains runtime options for the Writer.
type WriterConfig struct {
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Writer is the fire-and-forget front of a Store used by the engines.
// Each key group has its own goroutine; pending writes for a group
// coalesce to the most recent one, and failures are logged and dropped.
type Writer struct {
	store   Store
	options WriterConfig
	logger  *slog.Logger
	groups  map[model.Group]*groupWriter
	failed  atomic.Uint64
	done    chan struct{}
	wg      sync.WaitGroup
	closing atomic.Bool
	once    sync.Once
}

type writeOp func(ctx context.Context) error

type groupWriter struct {
	group   model.Group
	mu      sync.Mutex
	pending writeOp
	idle    bool
	idleCh  chan struct{}
	wake    chan struct{}
}

// NewWriter starts the per-group writers for store.
func NewWriter(store Store, options WriterConfig) *Writer {
	if options.WriteTimeout <= 0 {
		options.WriteTimeout = DefaultWriteTimeout
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	writer := &Writer{
		store:   store,
		options: options,
		logger:  options.Logger.With("component", "writer"),
		groups:  make(map[model.Group]*groupWriter),
		done:    make(chan struct{}),
	}
	for _, group := range []model.Group{model.GroupStopwatch, model.GroupTimer} {
		idleCh := make(chan struct{})
		close(idleCh)
		worker := &groupWriter{
			group:  group,
			idle:   true,
			idleCh: idleCh,
			wake:   make(chan struct{}, 1),
		}
		writer.groups[group] = worker
		writer.wg.Add(1)
		go writer.run(worker)
	}
	return writer
}

func (writer *Writer) SaveStopwatch(snapshot model.StopwatchSnapshot) {
	writer.enqueue(model.GroupStopwatch, func(ctx context.Context) error {
		return writer.store.SaveStopwatch(ctx, snapshot)
	})
}

func (writer *Writer) ClearStopwatch() {
	writer.enqueue(model.GroupStopwatch, func(ctx context.Context) error {
		return writer.store.Clear(ctx, model.GroupStopwatch)
	})
}

func (writer *Writer) SaveTimer(snapshot model.TimerSnapshot) {
	writer.enqueue(model.GroupTimer, func(ctx context.Context) error {
		return writer.store.SaveTimer(ctx, snapshot)
	})
}

func (writer *Writer) ClearTimer() {
	writer.enqueue(model.GroupTimer, func(ctx context.Context) error {
		return writer.store.Clear(ctx, model.GroupTimer)
	})
}

// Failures returns how many store operations have failed so far.
func (writer *Writer) Failures() uint64 {
	return writer.failed.Load()
}

// Flush waits until every write enqueued so far has been applied.
func (writer *Writer) Flush(ctx context.Context) error {
	for _, worker := range writer.groups {
		worker.mu.Lock()
		idleCh := worker.idleCh
		worker.mu.Unlock()

		select {
		case <-idleCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close rejects new writes, drains pending ones and stops the goroutines.
// The Store itself stays open.
func (writer *Writer) Close(ctx context.Context) error {
	writer.closing.Store(true)
	err := writer.Flush(ctx)
	writer.once.Do(func() {
		close(writer.done)
	})
	writer.wg.Wait()
	return err
}

func (writer *Writer) enqueue(group model.Group, op writeOp) {
	if writer.closing.Load() {
		writer.logger.Warn("write after close dropped", "group", group)
		return
	}
	worker := writer.groups[group]

	worker.mu.Lock()
	worker.pending = op
	if worker.idle {
		worker.idle = false
		worker.idleCh = make(chan struct{})
	}
	worker.mu.Unlock()

	select {
	case worker.wake <- struct{}{}:
	default:
	}
}

func (writer *Writer) run(worker *groupWriter) {
	defer writer.wg.Done()
	for {
		select {
		case <-worker.wake:
			writer.drain(worker)
		case <-writer.done:
			return
		}
	}
}

func (writer *Writer) drain(worker *groupWriter) {
	for {
		worker.mu.Lock()
		op := worker.pending
		worker.pending = nil
		if op == nil {
			if !worker.idle {
				worker.idle = true
				close(worker.idleCh)
			}
			worker.mu.Unlock()
			return
		}
		worker.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), writer.options.WriteTimeout)
		err := op(ctx)
		cancel()
		if err != nil {
			writer.failed.Add(1)
			writer.logger.Error("persist state failed", "group", worker.group, "error", err)
		}
	}
}

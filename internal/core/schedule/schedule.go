// Package schedule runs periodic callbacks behind a revocable handle.
package schedule

import (
	"sync"
	"time"
)

// Task is a handle to a running periodic callback.
type Task interface {
	// Stop prevents further invocations. It does not wait for a callback
	// already in flight; owners guard against stale callbacks themselves.
	Stop()
}

// Scheduler starts periodic callbacks.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// Real runs callbacks on a time.Ticker in a dedicated goroutine.
type Real struct{}

// Every invokes fn every interval until the returned Task is stopped.
func (Real) Every(interval time.Duration, fn func()) Task {
	if interval <= 0 {
		interval = time.Millisecond
	}
	task := &tickerTask{stopCh: make(chan struct{})}
	go task.run(interval, fn)
	return task
}

type tickerTask struct {
	stopCh chan struct{}
	once   sync.Once
}

func (task *tickerTask) run(interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-task.stopCh:
			return
		case <-ticker.C:
			select {
			case <-task.stopCh:
				return
			default:
			}
			fn()
		}
	}
}

func (task *tickerTask) Stop() {
	task.once.Do(func() {
		close(task.stopCh)
	})
}

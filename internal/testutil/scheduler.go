package testutil

import (
	"sync"
	"time"

	"timerstopwatch/internal/core/schedule"
)

// ManualScheduler records periodic tasks and fires them on demand.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*ManualTask
}

// ManualTask is a task created by ManualScheduler.
type ManualTask struct {
	Interval time.Duration

	mu      sync.Mutex
	fn      func()
	stopped bool
}

// NewManualScheduler creates an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Every registers fn without starting any goroutine.
func (s *ManualScheduler) Every(interval time.Duration, fn func()) schedule.Task {
	task := &ManualTask{Interval: interval, fn: fn}
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return task
}

// Fire invokes every task that has not been stopped and returns how many ran.
func (s *ManualScheduler) Fire() int {
	fired := 0
	for _, task := range s.Tasks() {
		if task.Stopped() {
			continue
		}
		task.Fire()
		fired++
	}
	return fired
}

// Tasks returns all tasks ever registered, in creation order.
func (s *ManualScheduler) Tasks() []*ManualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*ManualTask(nil), s.tasks...)
}

// Active returns the number of tasks that have not been stopped.
func (s *ManualScheduler) Active() int {
	active := 0
	for _, task := range s.Tasks() {
		if !task.Stopped() {
			active++
		}
	}
	return active
}

// Last returns the most recently registered task, or nil.
func (s *ManualScheduler) Last() *ManualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		return nil
	}
	return s.tasks[len(s.tasks)-1]
}

// Fire invokes the callback even if the task was stopped, which simulates
// a tick that was already in flight when its owner cancelled it.
func (task *ManualTask) Fire() {
	task.mu.Lock()
	fn := task.fn
	task.mu.Unlock()
	fn()
}

// Stop marks the task stopped.
func (task *ManualTask) Stop() {
	task.mu.Lock()
	defer task.mu.Unlock()
	task.stopped = true
}

// Stopped reports whether Stop was called.
func (task *ManualTask) Stopped() bool {
	task.mu.Lock()
	defer task.mu.Unlock()
	return task.stopped
}

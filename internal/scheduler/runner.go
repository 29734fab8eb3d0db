// Package scheduler runs named, independently cancellable periodic tasks.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is a schedulable unit of work. OnTick is invoked once per interval
// and returns false to stop the task permanently. Ticks within one task
// never overlap: the next interval wait starts only after OnTick returns.
type Task interface {
	Name() string
	Interval() time.Duration
	OnTick(ctx context.Context) bool
}

// taskHandle is the per-task cancellation record. Its pointer identity tells
// an exiting task goroutine whether it still owns its registry entry.
type taskHandle struct {
	cancel context.CancelFunc
}

// Runner drives each task in its own goroutine and records a cancellation
// handle per task name. A task that stops itself or loses its parent context
// removes its own handle on exit, so Running only reports live tasks.
//
// Stop is forced: it cancels the task context, which may interrupt OnTick
// mid-await. Anything OnTick acquires must release via defer so cleanup
// also runs on cancellation. Calling Run twice with the same name orphans
// the first handle without cancelling it; callers that intend replacement
// must Stop first.
type Runner struct {
	mu      sync.Mutex
	cancels map[string]*taskHandle
}

// NewRunner creates an empty Runner.
func NewRunner() *Runner {
	return &Runner{cancels: make(map[string]*taskHandle)}
}

// Run starts a task. The task stops when OnTick returns false, when Stop is
// called with its name, or when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, task Task) {
	taskCtx, cancel := context.WithCancel(ctx)
	h := &taskHandle{cancel: cancel}

	r.mu.Lock()
	r.cancels[task.Name()] = h
	r.mu.Unlock()

	slog.Info("Scheduler task started", "name", task.Name(), "interval", task.Interval())

	go func() {
		defer r.release(task.Name(), h)

		ticker := time.NewTicker(task.Interval())
		defer ticker.Stop()

		for {
			select {
			case <-taskCtx.Done():
				slog.Debug("Scheduler task cancelled", "name", task.Name())
				return
			case <-ticker.C:
				if !task.OnTick(taskCtx) {
					slog.Info("Scheduler task finished", "name", task.Name())
					return
				}
			}
		}
	}()
}

// release drops the task's registry entry unless the name has been taken
// over by a newer task, and always cancels the task context.
func (r *Runner) release(name string, h *taskHandle) {
	r.mu.Lock()
	if r.cancels[name] == h {
		delete(r.cancels, name)
	}
	r.mu.Unlock()
	h.cancel()
}

// RunBatch starts every task in order.
func (r *Runner) RunBatch(ctx context.Context, tasks []Task) {
	for _, task := range tasks {
		r.Run(ctx, task)
	}
}

// Stop cancels and forgets the task registered under name. Absent names are
// a no-op.
func (r *Runner) Stop(name string) {
	r.mu.Lock()
	h, ok := r.cancels[name]
	if ok {
		delete(r.cancels, name)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	h.cancel()
	slog.Info("Scheduler task stopped", "name", name)
}

// StopAll cancels every registered task.
func (r *Runner) StopAll() {
	r.mu.Lock()
	cancels := r.cancels
	r.cancels = make(map[string]*taskHandle)
	r.mu.Unlock()

	for name, h := range cancels {
		h.cancel()
		slog.Debug("Scheduler task stopped", "name", name)
	}
}

// Running reports whether a live task is currently registered under name.
func (r *Runner) Running(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancels[name]
	return ok
}

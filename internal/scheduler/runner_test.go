package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingTask struct {
	name     string
	interval time.Duration
	ticks    atomic.Int64
	stopAt   int64
}

func (t *countingTask) Name() string            { return t.name }
func (t *countingTask) Interval() time.Duration { return t.interval }

func (t *countingTask) OnTick(ctx context.Context) bool {
	n := t.ticks.Add(1)
	return t.stopAt == 0 || n < t.stopAt
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestRunnerTicksUntilStopped(t *testing.T) {
	runner := NewRunner()
	task := &countingTask{name: "tick", interval: time.Millisecond}

	runner.Run(context.Background(), task)
	waitFor(t, func() bool { return task.ticks.Load() >= 3 })

	runner.Stop("tick")
	if runner.Running("tick") {
		t.Error("task still registered after Stop")
	}

	time.Sleep(10 * time.Millisecond)
	settled := task.ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := task.ticks.Load(); got != settled {
		t.Errorf("task ticked after Stop: %d -> %d", settled, got)
	}
}

func TestRunnerTaskStopsItself(t *testing.T) {
	runner := NewRunner()
	task := &countingTask{name: "finite", interval: time.Millisecond, stopAt: 2}

	runner.Run(context.Background(), task)
	waitFor(t, func() bool { return task.ticks.Load() == 2 })

	time.Sleep(20 * time.Millisecond)
	if got := task.ticks.Load(); got != 2 {
		t.Errorf("task kept ticking after returning false: %d ticks", got)
	}

	// A finished task releases its handle; it is not reported as running.
	waitFor(t, func() bool { return !runner.Running("finite") })
}

// Starting a second task under an existing name replaces the registry entry
// without cancelling the first goroutine: the old task keeps ticking with no
// handle left to stop it. Callers must Stop before re-running a name.
func TestRunnerDuplicateRunOrphansFirstTask(t *testing.T) {
	runner := NewRunner()
	first := &countingTask{name: "dup", interval: time.Millisecond}
	second := &countingTask{name: "dup", interval: time.Millisecond}

	// The orphan has no handle left; reap it through its parent context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner.Run(ctx, first)
	waitFor(t, func() bool { return first.ticks.Load() >= 1 })
	runner.Run(context.Background(), second)
	waitFor(t, func() bool { return second.ticks.Load() >= 1 })

	// Stop reaches only the second task's handle.
	runner.Stop("dup")
	time.Sleep(10 * time.Millisecond)
	settledSecond := second.ticks.Load()
	before := first.ticks.Load()
	time.Sleep(20 * time.Millisecond)

	if got := second.ticks.Load(); got != settledSecond {
		t.Errorf("second task ticked after Stop: %d -> %d", settledSecond, got)
	}
	if got := first.ticks.Load(); got <= before {
		t.Errorf("orphaned first task stopped ticking: %d -> %d", before, got)
	}
	if runner.Running("dup") {
		t.Error("name still registered after Stop")
	}
}

func TestRunnerStopUnknownIsNoop(t *testing.T) {
	runner := NewRunner()
	runner.Stop("never-started")
	if runner.Running("never-started") {
		t.Error("unknown task reported as running")
	}
}

func TestRunnerStopAll(t *testing.T) {
	runner := NewRunner()
	a := &countingTask{name: "a", interval: time.Millisecond}
	b := &countingTask{name: "b", interval: time.Millisecond}

	runner.RunBatch(context.Background(), []Task{a, b})
	waitFor(t, func() bool { return a.ticks.Load() >= 1 && b.ticks.Load() >= 1 })

	runner.StopAll()
	if runner.Running("a") || runner.Running("b") {
		t.Error("tasks still registered after StopAll")
	}

	time.Sleep(10 * time.Millisecond)
	settledA, settledB := a.ticks.Load(), b.ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if a.ticks.Load() != settledA || b.ticks.Load() != settledB {
		t.Error("tasks ticked after StopAll")
	}
}

func TestRunnerParentContextCancelsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner()
	task := &countingTask{name: "ctx", interval: time.Millisecond}

	runner.Run(ctx, task)
	waitFor(t, func() bool { return task.ticks.Load() >= 1 })

	cancel()
	time.Sleep(10 * time.Millisecond)
	settled := task.ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := task.ticks.Load(); got != settled {
		t.Errorf("task ticked after parent cancel: %d -> %d", settled, got)
	}

	// The cancelled task releases its handle on exit.
	waitFor(t, func() bool { return !runner.Running("ctx") })
}

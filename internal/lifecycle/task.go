// Package lifecycle holds the small concurrency primitives page modules are
// built from: a cancellable periodic task, bounded polling and a view slot
// that refuses stale writes.
package lifecycle

import (
	"context"
	"sync"
	"time"
)

// Task runs fn immediately and then every Interval until stopped. An
// Interval of zero runs fn once.
type Task struct {
	Name     string
	Interval time.Duration
	fn       func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	ready  chan struct{}
}

func NewTask(name string, interval time.Duration, fn func(ctx context.Context)) *Task {
	closed := make(chan struct{})
	close(closed)
	return &Task{Name: name, Interval: interval, fn: fn, ready: closed}
}

// Start launches the task under ctx. A running task is restarted.
func (t *Task) Start(ctx context.Context) {
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ready := make(chan struct{})
	t.cancel, t.done, t.ready = cancel, done, ready

	go func() {
		defer close(done)
		t.fn(ctx)
		close(ready)
		if t.Interval <= 0 {
			return
		}
		ticker := time.NewTicker(t.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.fn(ctx)
			}
		}
	}()
}

// Stop cancels the task and waits for the current run to return.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the task has been started and not stopped.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Ready is closed once the first run of the latest Start has finished.
func (t *Task) Ready() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

// Group stops several tasks together.
type Group struct {
	mu    sync.Mutex
	tasks []*Task
}

// Go creates and starts a task that belongs to the group.
func (g *Group) Go(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) *Task {
	t := NewTask(name, interval, fn)
	t.Start(ctx)
	g.mu.Lock()
	g.tasks = append(g.tasks, t)
	g.mu.Unlock()
	return t
}

// StopAll stops every task and empties the group.
func (g *Group) StopAll() {
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = nil
	g.mu.Unlock()
	for _, t := range tasks {
		t.Stop()
	}
}

// WaitReady blocks until the first run of every task has finished or ctx
// is done.
func (g *Group) WaitReady(ctx context.Context) error {
	g.mu.Lock()
	tasks := append([]*Task(nil), g.tasks...)
	g.mu.Unlock()
	for _, t := range tasks {
		select {
		case <-t.Ready():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Running counts the started tasks of the group.
func (g *Group) Running() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, t := range g.tasks {
		if t.Running() {
			n++
		}
	}
	return n
}

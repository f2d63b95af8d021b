package worker

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Task runs on the worker goroutine.
type Task func(ctx context.Context)

// Worker runs at most one task at a time and never queues a second one
// (strict back-pressure).
type Worker struct {
	ctx  context.Context
	slot *semaphore.Weighted
	wg   sync.WaitGroup
}

// New creates a worker whose tasks receive ctx.
func New(ctx context.Context) *Worker {
	return &Worker{ctx: ctx, slot: semaphore.NewWeighted(1)}
}

// Submit starts task if the slot is free. Returns false if dropped.
func (w *Worker) Submit(name string, task Task) bool {
	if !w.slot.TryAcquire(1) {
		slog.Debug("worker busy, task dropped", "task", name)
		return false
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.slot.Release(1)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in worker task", "task", name, "panic", r)
			}
		}()
		slog.Debug("worker: starting task", "task", name)
		task(w.ctx)
		slog.Debug("worker: task completed", "task", name)
	}()
	return true
}

// Busy reports whether a task currently holds the slot.
func (w *Worker) Busy() bool {
	if w.slot.TryAcquire(1) {
		w.slot.Release(1)
		return false
	}
	return true
}

// Close waits for the running task, if any.
func (w *Worker) Close() {
	w.wg.Wait()
}

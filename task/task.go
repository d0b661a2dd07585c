// Package task implements the work-stealing task scheduler: a fixed
// worker pool, each with an MPMC inbox, splitting a task's worksize into
// granularity-sized ranges claimed via fetch-add, with completion
// detected through a status word and an await-count busy-wait that keeps
// the completing worker from walking away before every awaiter has
// observed completion.
package task

import (
	"context"

	"github.com/vethanis/pimcore/atomic"
)

// Status is a Task's lifecycle state.
type Status int32

const (
	StatusComplete Status = iota
	StatusExec
)

// Func does the work for the contiguous range [begin, end) of a Task's
// worksize. ctx carries the calling worker's identity, retrievable with
// WorkerID.
type Func func(ctx context.Context, t *Task, begin, end int32)

// Task is reusable: Submit awaits any prior run before reinitializing it.
// Exported only so Scheduler and Graph can share it across packages that
// build on task; callers construct a Task with New and pass it to
// Scheduler.Submit.
type Task struct {
	fn          Func
	worksize    int32
	granularity int32

	head   atomic.Value[int32]
	tail   atomic.Value[int32]
	status atomic.Value[int32]
	awaits atomic.Value[int32]
}

// New creates an idle Task (status Complete) ready for Submit.
func New(fn Func) *Task {
	t := &Task{fn: fn}
	t.status.Store(int32(StatusComplete), atomic.Relaxed)
	return t
}

// Status returns the task's current lifecycle state.
func (t *Task) Status() Status {
	return Status(t.status.Load(atomic.Acquire))
}

type workerIDKey struct{}

// WithWorkerID attaches a worker identity to ctx; the Scheduler calls this
// once per worker at startup.
func WithWorkerID(ctx context.Context, id int32) context.Context {
	return context.WithValue(ctx, workerIDKey{}, id)
}

// WorkerID extracts the calling worker's identity from ctx, or -1 if ctx
// was not produced by a Scheduler (e.g. the caller is the main thread
// awaiting a task outside any worker loop).
func WorkerID(ctx context.Context) int32 {
	if v, ok := ctx.Value(workerIDKey{}).(int32); ok {
		return v
	}
	return -1
}

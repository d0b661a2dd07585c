// Package syncx holds the L1 synchronization primitives the scheduler and
// containers are built from: a counting semaphore, an edge-triggered event
// with a sleeper count, a reusable two-phase barrier, an adaptive spinlock,
// a packed-word reader/writer lock, and a thin mutex wrapper.
package syncx

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// semCap bounds how many permits a Semaphore can ever hold outstanding.
// Counting semaphores in this codebase are signaled with at most one permit
// per worker thread, so this ceiling is never reached in practice; it only
// exists because golang.org/x/sync/semaphore.Weighted requires a fixed
// maximum at construction time.
const semCap = int64(1) << 40

// Semaphore is a classic counting semaphore: Wait blocks while the count is
// zero, Signal(n) releases n waiters. It is built on
// golang.org/x/sync/semaphore.Weighted, treating "available permits" as the
// semaphore's count and pre-acquiring the gap between semCap and the
// requested initial value.
type Semaphore struct {
	w *semaphore.Weighted
}

// NewSemaphore creates a semaphore with the given initial count.
func NewSemaphore(initial int64) *Semaphore {
	w := semaphore.NewWeighted(semCap)
	if used := semCap - initial; used > 0 {
		if err := w.Acquire(context.Background(), used); err != nil {
			panic(err)
		}
	}
	return &Semaphore{w: w}
}

// Wait decrements the count, blocking while it is zero.
func (s *Semaphore) Wait() {
	if err := s.w.Acquire(context.Background(), 1); err != nil {
		panic(err)
	}
}

// TryWait decrements the count without blocking, returning false if the
// count was already zero.
func (s *Semaphore) TryWait() bool {
	return s.w.TryAcquire(1)
}

// Signal releases n permits, waking up to n waiters.
func (s *Semaphore) Signal(n int64) {
	s.w.Release(n)
}

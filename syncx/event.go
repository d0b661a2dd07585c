package syncx

import (
	"github.com/vethanis/pimcore/atomic"
	"github.com/vethanis/pimcore/intrin"
)

// Event is an edge-triggered wait/wake primitive whose integer state is
// interpreted as: positive = number of pending wakes, zero = idle, negative
// = number of current sleepers. It directly mirrors the reference engine's
// event_t: a single atomic word plus a counting semaphore for the actual
// blocking.
type Event struct {
	state atomic.Value[int32]
	sema  *Semaphore
}

// NewEvent creates an idle event.
func NewEvent() *Event {
	return &Event{sema: NewSemaphore(0)}
}

// Wait atomically decrements state; if the prior value was >= 1 the caller
// proceeds without blocking, otherwise it blocks on the internal semaphore.
func (e *Event) Wait() {
	prev := e.state.Dec(atomic.AcqRel)
	if prev < 1 {
		e.sema.Wait()
	}
}

// WakeOne atomically increases state toward +1 (saturating), releasing
// exactly one sleeper if any were waiting.
func (e *Event) WakeOne() {
	var spins uint64
	old := e.state.Load(atomic.Relaxed)
	for {
		next := old
		if old < 1 {
			next = old + 1
		} else {
			next = 1
		}
		if e.state.CompareAndSwap(&old, next, atomic.AcqRel) {
			break
		}
		spins++
		intrin.Spin(spins)
	}
	if old < 0 {
		e.sema.Signal(1)
	}
}

// WakeAll flips state to max(1, -state), releasing every sleeper observed.
func (e *Event) WakeAll() {
	var spins uint64
	old := e.state.Load(atomic.Relaxed)
	for {
		next := -old
		if next < 1 {
			next = 1
		}
		if e.state.CompareAndSwap(&old, next, atomic.AcqRel) {
			break
		}
		spins++
		intrin.Spin(spins)
	}
	if old < 0 {
		e.sema.Signal(int64(-old))
	}
}

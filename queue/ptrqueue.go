// Package queue provides the bounded MPMC ring buffers the scheduler uses
// for per-worker inboxes, and the simpler single-producer-oriented integer
// queue genid uses as an index freelist.
package queue

import (
	"math/bits"

	"github.com/vethanis/pimcore/atomic"
	"github.com/vethanis/pimcore/syncx"
)

// PtrQueue is a bounded multi-producer multi-consumer ring buffer of
// pointers. Capacity is always a power of two; iWrite/iRead are
// free-running counters. A single RWLock guards resize only — every Push
// and Pop takes the read side, so producers and consumers never contend
// with each other, only with a concurrent Reserve.
//
// nil is reserved as the "empty slot" sentinel, matching the reference
// engine's NULL-based discriminator: callers must never push a nil
// pointer, and must never re-publish a pointer that might still be live
// in the queue (the PtrQueue_ABA precondition from Design Notes).
type PtrQueue[T any] struct {
	lock   *syncx.RWLock
	slots  []atomic.Pointer[T]
	width  atomic.Value[uint32]
	iWrite atomic.Value[uint32]
	iRead  atomic.Value[uint32]
}

// NewPtrQueue creates a queue with at least the given capacity, rounded up
// to the next power of two (minimum 16).
func NewPtrQueue[T any](capacity int) *PtrQueue[T] {
	q := &PtrQueue[T]{lock: syncx.NewRWLock()}
	q.reserveLocked(capacity)
	return q
}

func (q *PtrQueue[T]) Capacity() int { return int(q.width.Load(atomic.Acquire)) }

func (q *PtrQueue[T]) Size() int {
	return int(q.iWrite.Load(atomic.Acquire) - q.iRead.Load(atomic.Acquire))
}

func nextPow2(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len32(n-1)
}

// Reserve grows the ring to at least capacity, preserving in-flight order.
func (q *PtrQueue[T]) Reserve(capacity int) {
	if uint32(capacity) <= q.width.Load(atomic.Acquire) {
		return
	}
	q.reserveLocked(capacity)
}

func (q *PtrQueue[T]) reserveLocked(capacity int) {
	if capacity < 16 {
		capacity = 16
	}
	newWidth := nextPow2(uint32(capacity))
	if newWidth <= q.width.Load(atomic.Acquire) {
		return
	}

	q.lock.LockWrite()
	defer q.lock.UnlockWrite()

	oldWidth := q.width.Load(atomic.Relaxed)
	if newWidth <= oldWidth {
		return
	}

	newSlots := make([]atomic.Pointer[T], newWidth)
	if oldWidth > 0 {
		oldMask := oldWidth - 1
		oldTail := q.iRead.Load(atomic.Acquire)
		oldHead := q.iWrite.Load(atomic.Acquire)
		length := oldHead - oldTail
		for i := uint32(0); i < length; i++ {
			src := (oldTail + i) & oldMask
			newSlots[i].Store(q.slots[src].Load(atomic.Relaxed), atomic.Relaxed)
		}
		q.iRead.Store(0, atomic.Release)
		q.iWrite.Store(length, atomic.Release)
	}
	q.slots = newSlots
	q.width.Store(newWidth, atomic.Release)
}

// Push inserts a pointer, blocking (via internal resize + retry) until a
// free slot is found. v must not be nil.
func (q *PtrQueue[T]) Push(v *T) {
	if v == nil {
		panic("queue: PtrQueue.Push does not accept nil")
	}
	for {
		q.Reserve(q.Size() + 1)

		q.lock.LockRead()
		mask := q.width.Load(atomic.Acquire) - 1
		for i := q.iWrite.Load(atomic.Acquire); uint32(q.Size()) <= mask; i++ {
			slot := &q.slots[i&mask]
			var prev *T
			if slot.CompareAndSwap(&prev, v, atomic.Acquire) {
				q.iWrite.Inc(atomic.Release)
				q.lock.UnlockRead()
				return
			}
		}
		q.lock.UnlockRead()
	}
}

// TryPop removes and returns a pointer, or nil if the queue is empty.
func (q *PtrQueue[T]) TryPop() *T {
	if q.Size() == 0 {
		return nil
	}

	q.lock.LockRead()
	defer q.lock.UnlockRead()

	mask := q.width.Load(atomic.Acquire) - 1
	for i := q.iRead.Load(atomic.Acquire); q.Size() != 0; i++ {
		slot := &q.slots[i&mask]
		prev := slot.Load(atomic.Relaxed)
		if prev != nil && slot.CompareAndSwap(&prev, nil, atomic.Acquire) {
			q.iRead.Inc(atomic.Release)
			return prev
		}
	}
	return nil
}

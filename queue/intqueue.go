package queue

import "github.com/vethanis/pimcore/atomic"

// IntQueue is a free-running, fixed-capacity ring buffer of uint32 values,
// used as the index freelist backing genid.IdSet. Unlike PtrQueue it never
// resizes: capacity is fixed at construction, and Push panics on overflow
// the same way the reference engine's int_queue asserts on a full ring —
// genid.IdSet moves its freelist into a larger IntQueue before it fills.
type IntQueue struct {
	slots  []atomic.Value[uint32]
	filled []atomic.Value[uint32] // 0 = empty, 1 = filled; guards the ABA on wraparound
	mask   uint32
	iWrite atomic.Value[uint32]
	iRead  atomic.Value[uint32]
}

func NewIntQueue(capacity int) *IntQueue {
	width := nextPow2(uint32(capacity))
	if width < 16 {
		width = 16
	}
	q := &IntQueue{
		slots:  make([]atomic.Value[uint32], width),
		filled: make([]atomic.Value[uint32], width),
		mask:   width - 1,
	}
	return q
}

func (q *IntQueue) Capacity() int { return int(q.mask + 1) }

func (q *IntQueue) Size() int {
	return int(q.iWrite.Load(atomic.Acquire) - q.iRead.Load(atomic.Acquire))
}

// Push inserts v. It panics if the queue is at capacity.
func (q *IntQueue) Push(v uint32) {
	for i := q.iWrite.Load(atomic.Acquire); ; i++ {
		if uint32(q.Size()) > q.mask {
			panic("queue: IntQueue is full")
		}
		slot := i & q.mask
		var prevFilled uint32
		if q.filled[slot].CompareAndSwap(&prevFilled, 1, atomic.Acquire) {
			q.slots[slot].Store(v, atomic.Release)
			q.iWrite.Inc(atomic.Release)
			return
		}
	}
}

// TryPop removes a value, reporting false if the queue is empty.
func (q *IntQueue) TryPop() (uint32, bool) {
	if q.Size() == 0 {
		return 0, false
	}
	for i := q.iRead.Load(atomic.Acquire); q.Size() != 0; i++ {
		slot := i & q.mask
		prevFilled := uint32(1)
		if q.filled[slot].CompareAndSwap(&prevFilled, 0, atomic.Acquire) {
			v := q.slots[slot].Load(atomic.Acquire)
			q.iRead.Inc(atomic.Release)
			return v, true
		}
	}
	return 0, false
}

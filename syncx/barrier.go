package syncx

import (
	"github.com/vethanis/pimcore/atomic"
)

// Barrier is a reusable two-phase rendezvous for a fixed number of
// participants. Phase 1 counts up to size, the last arriver releases every
// participant from phase 1; phase 2 counts back down to zero, the last
// departer releases every participant from phase 2. Splitting the
// rendezvous into two phases keeps a late arriver from re-entering phase 1
// before every earlier participant has left phase 2.
type Barrier struct {
	size    int32
	counter atomic.Value[int32]
	phase1  *Semaphore
	phase2  *Semaphore
}

// NewBarrier creates a barrier for exactly size participants.
func NewBarrier(size int) *Barrier {
	return &Barrier{
		size:   int32(size),
		phase1: NewSemaphore(0),
		phase2: NewSemaphore(0),
	}
}

// Phase1 counts a participant in; the last arriver wakes everyone waiting
// on phase 1.
func (b *Barrier) Phase1() {
	n := b.counter.FetchAdd(1, atomic.AcqRel) + 1
	if n == b.size {
		b.phase1.Signal(int64(b.size))
	}
	b.phase1.Wait()
}

// Phase2 counts a participant out; the last departer wakes everyone
// waiting on phase 2.
func (b *Barrier) Phase2() {
	n := b.counter.FetchSub(1, atomic.AcqRel) - 1
	if n == 0 {
		b.phase2.Signal(int64(b.size))
	}
	b.phase2.Wait()
}

// Wait performs both phases, giving callers a single reusable rendezvous.
func (b *Barrier) Wait() {
	b.Phase1()
	b.Phase2()
}

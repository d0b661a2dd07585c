package syncx

import (
	"github.com/vethanis/pimcore/atomic"
	"github.com/vethanis/pimcore/intrin"
)

// Spinlock is a single-word adaptive spinning mutual-exclusion lock: Lock
// CASes 0->-1 with acquire ordering, backing off via intrin.Spin on
// contention; Unlock CASes -1->0 with release ordering.
type Spinlock struct {
	state atomic.Value[int32]
}

// TryLock attempts to acquire the lock without blocking.
func (s *Spinlock) TryLock() bool {
	expected := int32(0)
	return s.state.CompareAndSwap(&expected, -1, atomic.Acquire)
}

// Lock blocks, spinning with calibrated backoff, until the lock is acquired.
func (s *Spinlock) Lock() {
	var spins uint64
	for !s.TryLock() {
		spins++
		intrin.Spin(spins)
	}
}

// Unlock releases the lock. It panics if the lock was not held, matching
// the reference engine's debug assertion on the prior state.
func (s *Spinlock) Unlock() {
	expected := int32(-1)
	if !s.state.CompareAndSwap(&expected, 0, atomic.Release) {
		panic("syncx: Unlock of unlocked Spinlock")
	}
}

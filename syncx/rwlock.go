package syncx

import (
	"github.com/vethanis/pimcore/atomic"
	"github.com/vethanis/pimcore/intrin"
)

// RWLock packs reader/waiter/writer counts (8 bits each) into one 32-bit
// word plus two semaphores, exactly as described in spec §4.3. At most 255
// of each field may be outstanding at once; writers get bounded precedence
// over waiters so that a steady stream of readers cannot starve a writer.
type RWLock struct {
	state atomic.Value[uint32]
	rsema *Semaphore
	wsema *Semaphore
}

func NewRWLock() *RWLock {
	return &RWLock{rsema: NewSemaphore(0), wsema: NewSemaphore(0)}
}

const (
	rwReadersShift = 16
	rwWaitersShift = 8
	rwWritersShift = 0
	rwFieldMask    = 0xff
)

func rwUnpack(s uint32) (readers, waiters, writers uint32) {
	readers = (s >> rwReadersShift) & rwFieldMask
	waiters = (s >> rwWaitersShift) & rwFieldMask
	writers = (s >> rwWritersShift) & rwFieldMask
	return
}

func rwPack(readers, waiters, writers uint32) uint32 {
	return (readers << rwReadersShift) | (waiters << rwWaitersShift) | (writers << rwWritersShift)
}

// LockRead: if no writer holds or awaits the lock, increment readers and
// proceed; else queue as a waiter and block on the reader semaphore.
func (l *RWLock) LockRead() {
	var spins uint64
	for {
		old := l.state.Load(atomic.Relaxed)
		readers, waiters, writers := rwUnpack(old)
		blocked := writers > 0
		if blocked {
			waiters++
		} else {
			readers++
		}
		next := rwPack(readers, waiters, writers)
		oldCopy := old
		if l.state.CompareAndSwap(&oldCopy, next, atomic.AcqRel) {
			if blocked {
				l.rsema.Wait()
			}
			return
		}
		spins++
		intrin.Spin(spins)
	}
}

// UnlockRead decrements readers; if that was the last reader and a writer
// is waiting, wakes exactly one writer.
func (l *RWLock) UnlockRead() {
	var spins uint64
	for {
		old := l.state.Load(atomic.Relaxed)
		readers, waiters, writers := rwUnpack(old)
		if readers == 0 {
			panic("syncx: UnlockRead of RWLock with no readers")
		}
		readers--
		next := rwPack(readers, waiters, writers)
		oldCopy := old
		if l.state.CompareAndSwap(&oldCopy, next, atomic.Release) {
			if readers == 0 && writers > 0 {
				l.wsema.Signal(1)
			}
			return
		}
		spins++
		intrin.Spin(spins)
	}
}

// LockWrite increments writers; if there were any readers or writers
// already, waits on the writer semaphore.
func (l *RWLock) LockWrite() {
	var spins uint64
	for {
		old := l.state.Load(atomic.Relaxed)
		readers, waiters, writers := rwUnpack(old)
		if writers == rwFieldMask {
			panic("syncx: RWLock writer count overflow")
		}
		contended := readers > 0 || writers > 0
		next := rwPack(readers, waiters, writers+1)
		oldCopy := old
		if l.state.CompareAndSwap(&oldCopy, next, atomic.Acquire) {
			if contended {
				l.wsema.Wait()
			}
			return
		}
		spins++
		intrin.Spin(spins)
	}
}

// UnlockWrite promotes every waiter to a reader, decrements writers, and
// wakes whichever side is next: promoted readers first, else a remaining
// writer.
func (l *RWLock) UnlockWrite() {
	var spins uint64
	for {
		old := l.state.Load(atomic.Relaxed)
		readers, waiters, writers := rwUnpack(old)
		if writers == 0 {
			panic("syncx: UnlockWrite of RWLock with no writer")
		}
		var promoted uint32
		if waiters > 0 {
			promoted = waiters
			readers = waiters
			waiters = 0
		}
		writers--
		next := rwPack(readers, waiters, writers)
		oldCopy := old
		if l.state.CompareAndSwap(&oldCopy, next, atomic.AcqRel) {
			switch {
			case promoted > 0:
				l.rsema.Signal(int64(promoted))
			case writers > 0:
				l.wsema.Signal(1)
			}
			return
		}
		spins++
		intrin.Spin(spins)
	}
}

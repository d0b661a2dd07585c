// Package genid implements generational indices: a dense index paired with
// a version counter that increments on every alloc and release, so a stale
// ID can always be detected once its slot has been recycled.
package genid

import (
	"github.com/vethanis/pimcore/queue"
	"github.com/vethanis/pimcore/syncx"
)

// ID names one slot at a specific version. The zero ID is never returned
// by Alloc (version 0 slots have never been allocated), so it is safe to
// use as a "no id" sentinel.
type ID struct {
	Index   int32
	Version int32
}

// IdSet tracks the live version of every index it has ever handed out. An
// ID is current iff its Version matches Versions[Index]; after release the
// slot's version is bumped again (to an even number) so the released ID
// itself never reads as current, and the index is pushed onto the
// freelist for reuse on the next Alloc.
type IdSet struct {
	mu       syncx.Mutex
	versions []int32
	freelist *queue.IntQueue
}

func NewIdSet() *IdSet {
	return &IdSet{freelist: queue.NewIntQueue(1024)}
}

// Current reports whether id names the live occupant of its slot.
func (s *IdSet) Current(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(id)
}

func (s *IdSet) currentLocked(id ID) bool {
	if id.Index < 0 || int(id.Index) >= len(s.versions) {
		return false
	}
	return s.versions[id.Index] == id.Version
}

// Alloc reuses a released index when the freelist is non-empty, else
// appends a new slot. Version always ends up odd after Alloc: odd means
// live, even means free, matching the alternating bump on Alloc/Release.
func (s *IdSet) Alloc() ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var index int32
	if v, ok := s.freelist.TryPop(); ok {
		index = int32(v)
	} else {
		index = int32(len(s.versions))
		s.versions = append(s.versions, 0)
	}
	s.versions[index]++
	if s.versions[index]&1 == 0 {
		panic("genid: allocated slot has even version")
	}
	return ID{Index: index, Version: s.versions[index]}
}

// Release retires id if it is current, bumping its version so any
// outstanding copy of id will fail Current, and returns the index to the
// freelist for reuse. Reports whether id was current.
func (s *IdSet) Release(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(id) {
		return false
	}
	s.versions[id.Index]++
	if s.freelist.Size() == s.freelist.Capacity() {
		// IntQueue has a fixed capacity: move its contents, in order, into
		// one twice the size before the push would overflow it.
		grown := queue.NewIntQueue(2 * s.freelist.Capacity())
		for v, ok := s.freelist.TryPop(); ok; v, ok = s.freelist.TryPop() {
			grown.Push(v)
		}
		s.freelist = grown
	}
	s.freelist.Push(uint32(id.Index))
	return true
}

// Len returns the number of distinct indices ever allocated (live + freed).
func (s *IdSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.versions)
}

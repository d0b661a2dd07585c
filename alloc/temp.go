package alloc

import "github.com/vethanis/pimcore/atomic"

// tempFrames is the number of double-buffered-and-more linear rings; any
// Temp allocation is guaranteed to remain valid until at least this many
// Update() calls later.
const tempFrames = 4

// linearRing is one fixed-capacity bump allocator. alloc is a single
// atomic fetch-add on head; if the resulting tail exceeds capacity, the
// allocation fails and the caller must fall back (or the frame has
// overflowed its budget).
type linearRing struct {
	base     []byte
	head     atomic.Value[uint64]
	capacity uint64
}

func newLinearRing(capacity int) *linearRing {
	return &linearRing{base: make([]byte, capacity), capacity: uint64(capacity)}
}

func (r *linearRing) alloc(bytes int) (data []byte, head uint64, ok bool) {
	n := uint64(bytes)
	head = r.head.FetchAdd(n, atomic.Acquire)
	tail := head + n
	if tail > r.capacity {
		return nil, 0, false
	}
	return r.base[head:tail:tail], head, true
}

// rollback undoes the allocation if it was the last one made; otherwise
// it is a no-op, matching the reference engine's best-effort free.
func (r *linearRing) rollback(bytes int, allocatedHead uint64) {
	expected := allocatedHead + uint64(bytes)
	r.head.CompareAndSwap(&expected, allocatedHead, atomic.AcqRel)
}

func (r *linearRing) clear() {
	r.head.Store(0, atomic.Release)
}

// tempPool cycles through tempFrames linearRings, one "current" per
// Update() call.
type tempPool struct {
	rings   [tempFrames]*linearRing
	current atomic.Value[uint32]
}

func newTempPool(capacityPerFrame int) *tempPool {
	p := &tempPool{}
	for i := range p.rings {
		p.rings[i] = newLinearRing(capacityPerFrame)
	}
	return p
}

func (p *tempPool) alloc(bytes int) (data []byte, ring uint32, head uint64, ok bool) {
	idx := p.current.Load(atomic.Acquire)
	data, head, ok = p.rings[idx].alloc(bytes)
	return data, idx, head, ok
}

func (p *tempPool) rollback(ring uint32, bytes int, head uint64) {
	if int(ring) >= len(p.rings) {
		return
	}
	p.rings[ring].rollback(bytes, head)
}

// update advances to the next ring modulo tempFrames and clears it.
func (p *tempPool) update() {
	next := (p.current.Load(atomic.Relaxed) + 1) % tempFrames
	p.rings[next].clear()
	p.current.Store(next, atomic.Release)
}

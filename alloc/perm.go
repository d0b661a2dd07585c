package alloc

import (
	"math/bits"

	"github.com/vethanis/pimcore/syncx"
)

// permPool is the Perm tier: a segregated free-list pool keyed by
// power-of-two size class, guarded by one spinlock. The reference engine
// backs this with a TLSF arena carved out of a single malloc'd slab; since
// this runtime already has a tracing GC, the size-classed free lists are
// satisfied directly with GC'd byte slices, preserving the tier's
// contract (bounded alloc/free cost behind one lock) without hand-rolling
// a free-space coalescer the GC already subsumes.
type permPool struct {
	mu       syncx.Spinlock
	freeList map[int][][]byte
}

func newPermPool() *permPool {
	return &permPool{freeList: make(map[int][][]byte)}
}

func sizeClass(n int) int {
	if n <= Align {
		return Align
	}
	return 1 << bits.Len(uint(n-1))
}

func (p *permPool) alloc(bytes int) []byte {
	class := sizeClass(bytes)

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.freeList[class]
	if n := len(bucket); n > 0 {
		buf := bucket[n-1]
		p.freeList[class] = bucket[:n-1]
		return buf[:bytes]
	}
	return make([]byte, bytes, class)
}

func (p *permPool) free(buf []byte) {
	class := cap(buf)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.freeList[class] = append(p.freeList[class], buf[:0:class])
}

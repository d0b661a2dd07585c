package alloc

import (
	"github.com/vethanis/pimcore/atomic"
	"golang.org/x/sys/cpu"
)

const (
	arenaRingLen  = 32
	arenaRingMask = arenaRingLen - 1
	arenaSize     = 1 << 20 // 1 MiB per slot
)

// ArenaHandle names one acquired slot of an ArenaRing at a specific
// sequence number. The zero value never names a live slot.
type ArenaHandle struct {
	seqno uint32
}

// arenaSlot is one 1 MiB scratch region with its own bump pointer. Every
// concurrent task typically hammers a distinct slot's head continuously;
// _ pads each slot to its own cache line so those distinct hot counters
// never false-share.
type arenaSlot struct {
	head atomic.Value[uint32]
	_    cpu.CacheLinePad
}

// ArenaRing is a separate scratch pool for small, short-lived allocations
// made inside concurrent tasks, orthogonal to the Thread tier. Slots are
// handed out via a seqlock-style ring: ringseq[i] tracks the sequence
// number currently occupying slot i, so a handle is live only as long as
// its sequence number still matches, making double-release and
// use-after-release both detectable instead of silently corrupting.
type ArenaRing struct {
	mem     []byte
	seqno   atomic.Value[uint32]
	ringseq [arenaRingLen]atomic.Value[uint32]
	slots   [arenaRingLen]arenaSlot
}

// NewArenaRing allocates the backing storage and seeds the ring so that
// slot i's initial live sequence number is i+arenaRingLen.
func NewArenaRing() *ArenaRing {
	r := &ArenaRing{mem: make([]byte, arenaSize*arenaRingLen)}
	r.seqno.Store(arenaRingLen, atomic.Relaxed)
	for i := range r.ringseq {
		r.ringseq[i].Store(uint32(arenaRingLen+i), atomic.Relaxed)
	}
	return r
}

// Exists reports whether hdl still names a live, unreleased slot.
func (r *ArenaRing) Exists(hdl ArenaHandle) bool {
	slot := hdl.seqno & arenaRingMask
	return r.ringseq[slot].Load(atomic.Relaxed) == hdl.seqno+1
}

// Acquire claims the next available slot in the ring, wrapping around
// after arenaRingLen concurrent acquisitions of the same generation.
func (r *ArenaRing) Acquire() ArenaHandle {
	seqBase := r.seqno.Load(atomic.Relaxed)
	for i := uint32(0); i < arenaRingLen; i++ {
		seqno := seqBase + i
		slot := seqno & arenaRingMask
		expected := seqno
		if r.ringseq[slot].CompareAndSwap(&expected, seqno+1, atomic.Acquire) {
			r.seqno.Inc(atomic.Release)
			r.slots[slot].head.Store(0, atomic.Release)
			return ArenaHandle{seqno: seqno}
		}
	}
	return ArenaHandle{}
}

// Release retires hdl. It is idempotent: a double-release or a release of
// a stale handle simply fails its CAS and does nothing.
func (r *ArenaRing) Release(hdl ArenaHandle) {
	slot := hdl.seqno & arenaRingMask
	expected := hdl.seqno + 1
	r.ringseq[slot].CompareAndSwap(&expected, hdl.seqno+arenaRingLen, atomic.Release)
}

// Alloc reserves bytes from hdl's slot. It returns nil if hdl is not
// live, or if bytes is out of the (0, arenaSize) range, or if the slot
// has no room left — over-allocation is silent nil, matching the
// reference engine.
func (r *ArenaRing) Alloc(hdl ArenaHandle, bytes uint32) []byte {
	if !r.Exists(hdl) {
		return nil
	}
	bytes = (bytes + 15) &^ 15
	if bytes == 0 || bytes >= arenaSize {
		return nil
	}
	slot := hdl.seqno & arenaRingMask
	head := r.slots[slot].head.FetchAdd(bytes, atomic.Acquire)
	tail := head + bytes
	if tail > arenaSize {
		return nil
	}
	base := uint32(slot) * arenaSize
	return r.mem[base+head : base+tail]
}

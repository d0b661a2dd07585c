package alloc

import (
	"github.com/vethanis/pimcore/obslog"
	"github.com/vethanis/pimcore/pcconfig"
	"github.com/vethanis/pimcore/pcerrors"
)

var log = obslog.Component("alloc")

// ErrInvalidKind is returned when a Block carries a Kind the system does
// not recognize, which should never happen outside of memory corruption
// or a caller fabricating a Block by hand.
var ErrInvalidKind = pcerrors.ErrInvalidKind

// ErrWrongThread is returned when Free is called for a Thread-tier Block
// from a tid other than the one that allocated it.
var ErrWrongThread = pcerrors.ErrWrongThread

const (
	defaultTempFrameBytes = 256 << 20
)

// System is the four-tier allocator: Init (bootstrap, this package's
// constructors use plain make), Perm (one long-lived pool), Temp (N
// rotating linear rings), and Thread (one lazily-created pool per worker
// id). Alloc/Free/Realloc route by Kind the way the reference engine
// routes by the header's recorded type.
type System struct {
	perm    *permPool
	temp    *tempPool
	threads *threadPools
	debug   bool
}

// NewSystem constructs the Perm pool and the Temp rings. tempFrameBytes is
// the capacity of each of the tempFrames rotating rings; 0 selects a
// default sized for a single frame's scratch workload. Debug-mode
// poisoning (see NewSystemWithConfig) is off; use NewSystemWithConfig to
// enable it from a pcconfig.Config.
func NewSystem(tempFrameBytes int) *System {
	if tempFrameBytes <= 0 {
		tempFrameBytes = defaultTempFrameBytes
	}
	return &System{
		perm:    newPermPool(),
		temp:    newTempPool(tempFrameBytes),
		threads: newThreadPools(),
	}
}

// NewSystemWithConfig is NewSystem plus cfg.Debug: when set, every Alloc
// stamps its returned Data with debugAllocByte and every Free stamps it
// with debugFreeByte before the memory goes back to (or is dropped by)
// its owning tier, matching the reference engine's debug-build poisoning.
func NewSystemWithConfig(cfg pcconfig.Config) *System {
	s := NewSystem(cfg.Alloc.TempFrameBytes)
	s.debug = cfg.Debug
	return s
}

// Update advances the Temp tier to its next ring, clearing it. Call once
// per frame boundary.
func (s *System) Update() {
	s.temp.update()
}

// Alloc reserves bytes (rounded up to Align) from the requested tier.
// Temp allocations return a zero-value Block with nil Data if the current
// ring's capacity is exhausted.
func (s *System) Alloc(kind Kind, tid int32, bytes int) (Block, error) {
	bytes = alignBytes(bytes)
	var b Block
	switch kind {
	case KindPerm:
		b = Block{Kind: KindPerm, Tid: tid, RefCount: 1, Data: s.perm.alloc(bytes)}
	case KindTemp:
		data, ring, head, ok := s.temp.alloc(bytes)
		if !ok {
			log.Warn().Int("bytes", bytes).Msg("temp ring exhausted, returning empty block")
			return Block{}, nil
		}
		b = Block{Kind: KindTemp, Tid: tid, RefCount: 1, Data: data, tempRing: int32(ring), tempHead: head}
	case KindThread:
		pool := s.threads.poolFor(tid)
		b = Block{Kind: KindThread, Tid: tid, RefCount: 1, Data: pool.alloc(bytes)}
	case KindInit:
		b = Block{Kind: KindInit, Tid: tid, RefCount: 1, Data: make([]byte, bytes)}
	default:
		return Block{}, pcerrors.Wrapf(ErrInvalidKind, "alloc: kind %d", kind)
	}
	if s.debug {
		stampBytes(b.Data, debugAllocByte)
	}
	return b, nil
}

// Free releases b back to its owning tier. Temp frees are best-effort: a
// rollback only happens if b was the most recent allocation in its ring,
// otherwise Free is a no-op (Temp memory is reclaimed collectively at the
// next frame boundaries it survives).
func (s *System) Free(b Block, tid int32) error {
	if b.Data == nil {
		return nil
	}
	// Validate ownership before poisoning: a rejected Free must leave the
	// still-live Data untouched for its actual owner.
	if b.Kind == KindThread && b.Tid != tid {
		return pcerrors.Wrapf(ErrWrongThread, "owner=%d caller=%d", b.Tid, tid)
	}
	if s.debug {
		stampBytes(b.Data, debugFreeByte)
	}
	switch b.Kind {
	case KindPerm:
		s.perm.free(b.Data)
		return nil
	case KindTemp:
		s.temp.rollback(uint32(b.tempRing), len(b.Data), b.tempHead)
		return nil
	case KindThread:
		s.threads.poolFor(tid).free(b.Data)
		return nil
	case KindInit:
		return nil
	default:
		return pcerrors.Wrapf(ErrInvalidKind, "alloc: kind %d", b.Kind)
	}
}

// Realloc grows prev to at least bytes, preserving its content. The new
// size is max(2*len(prev.Data), 64, bytes), matching the reference
// engine's growth policy. If prev already satisfies bytes it is returned
// unchanged.
func (s *System) Realloc(kind Kind, tid int32, prev Block, bytes int) (Block, error) {
	if len(prev.Data) >= bytes {
		return prev, nil
	}
	next := len(prev.Data) * 2
	if next < 64 {
		next = 64
	}
	if next < bytes {
		next = bytes
	}
	nb, err := s.Alloc(kind, tid, next)
	if err != nil {
		return Block{}, err
	}
	copy(nb.Data, prev.Data)
	if err := s.Free(prev, tid); err != nil {
		return Block{}, err
	}
	return nb, nil
}

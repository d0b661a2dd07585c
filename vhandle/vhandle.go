// Package vhandle implements version-stamped handles: a released handle
// can never be mistaken for live, even if its backing memory is reused by
// an unrelated allocation, because release bumps a version stamp embedded
// alongside the value rather than relying on the pointer alone.
package vhandle

import "github.com/vethanis/pimcore/atomic"

// kStartVersion biases every handle's version away from zero, so a
// zero-valued Handle (no New call) never aliases a real one. The constant
// itself carries no meaning beyond "not a small, easily-collided integer".
const kStartVersion = 1855542631

var globalVersion atomic.Value[uint64]

type block[T any] struct {
	version atomic.Value[uint64]
	value   T
}

// Handle refers to a value of type T at a specific version. The zero
// Handle[T] is always invalid: Get reports false and Del is a no-op.
type Handle[T any] struct {
	version uint64
	block   *block[T]
}

// New stores v and returns a handle to it at a freshly minted version.
// Versions are biased by 4 per call so that concurrent New/Del pairs on
// unrelated handles never observe the same version.
func New[T any](v T) Handle[T] {
	ver := kStartVersion + globalVersion.FetchAdd(4, atomic.Relaxed)
	b := &block[T]{value: v}
	b.version.Store(ver, atomic.Relaxed)
	return Handle[T]{version: ver, block: b}
}

// Get returns the handle's value and true if the handle is still live.
func (h Handle[T]) Get() (T, bool) {
	var zero T
	if h.block == nil {
		return zero, false
	}
	if h.block.version.Load(atomic.Relaxed) == h.version {
		return h.block.value, true
	}
	return zero, false
}

// Del releases the handle exactly once: the first caller to race the CAS
// wins, receives the stored value, and every subsequent Get or Del on any
// copy of this handle fails from then on.
func Del[T any](h Handle[T]) (T, bool) {
	var zero T
	if h.block == nil {
		return zero, false
	}
	expected := h.version
	if h.block.version.CompareAndSwap(&expected, h.version+1, atomic.Release) {
		v := h.block.value
		h.block.value = zero
		return v, true
	}
	return zero, false
}

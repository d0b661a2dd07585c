package syncx

import "sync"

// Mutex wraps the standard library's mutual-exclusion lock. The reference
// engine's mutex_t is a fixed byte buffer sized for the host OS's critical
// section record; on this runtime sync.Mutex already is that wrapper, so
// there is nothing left to hand-roll (see Design Notes: "the byte-buffer
// trick is not needed").
type Mutex struct {
	mu sync.Mutex
}

func (m *Mutex) Lock()   { m.mu.Lock() }
func (m *Mutex) Unlock() { m.mu.Unlock() }

// TryLock attempts to acquire the lock without blocking.
func (m *Mutex) TryLock() bool { return m.mu.TryLock() }

// Package intrin exposes the handful of hardware/runtime hints the
// scheduler and lock-free containers build their backoff on: a monotonic
// timestamp, a spin-loop pause hint, a timeslice yield, and a calibrated
// adaptive spin that converts a retry count into a backoff duration.
package intrin

import (
	"runtime"
	"time"
)

// Timestamp returns a monotonically non-decreasing tick count. The reference
// engine reads the CPU's rdtsc register directly; Go has no portable
// equivalent, so this reads the runtime's monotonic clock instead. The two
// sources differ in units but share every property Spin relies on:
// monotonic, cheap, and free of syscalls on the fast path. The count is
// nanoseconds since timestampEpoch.
func Timestamp() uint64 {
	return uint64(time.Since(timestampEpoch))
}

// timestampEpoch carries the monotonic clock reading Timestamp measures from.
var timestampEpoch = time.Now()

// Pause is a hint to the processor that this goroutine is in a spin loop.
// Go exposes no portable PAUSE instruction intrinsic, and runtime.Gosched
// is too expensive to call on every spin iteration (it is a full
// scheduler round trip), so this just burns a handful of cycles on work
// the compiler cannot prove is side-effect-free — the same shape every
// pure-Go spinlock in the wild settles for absent assembly.
func Pause() {
	x := uint32(2166136261)
	for i := 0; i < 8; i++ {
		x = (x ^ uint32(i)) * 16777619
	}
	runtime.KeepAlive(x)
}

// Yield relinquishes the remaining timeslice.
func Yield() {
	runtime.Gosched()
}

// pauseBudgetNanos mirrors the reference engine's "spins * 100" tick
// conversion; on this substrate one "tick" is one nanosecond of wall time.
const pauseBudgetNanos = 100

// yieldThresholdNanos mirrors the reference engine's 2500-tick threshold
// above which spinning switches to yielding the timeslice.
const yieldThresholdNanos = 2500

// Spin implements adaptive back-off: spins is converted to a nanosecond
// budget; if the budget is at or above yieldThresholdNanos it yields once,
// otherwise it busy-waits on Pause until the budget elapses. Callers pass a
// monotonically increasing spins count so backoff grows between retries.
func Spin(spins uint64) {
	budget := spins * pauseBudgetNanos
	if budget >= yieldThresholdNanos {
		Yield()
		return
	}
	end := Timestamp() + budget
	for Timestamp() < end {
		Pause()
	}
}

// Package pcerrors collects the sentinel errors shared across the
// allocator, handle table, and id set, wrapped with call-site context via
// github.com/pkg/errors where that context helps a caller diagnose a
// contract violation.
package pcerrors

import "github.com/pkg/errors"

var (
	// ErrCapacityExhausted names the condition of a fixed-capacity pool (a
	// Temp ring, an arena slot) with no room left for a request. No function
	// in this module returns it: alloc signals that case with an empty
	// Block or a nil slice.
	ErrCapacityExhausted = errors.New("pcerrors: capacity exhausted")

	// ErrStaleHandle names the condition of a vhandle or genid.ID whose
	// version no longer matches the live slot. No function in this module
	// returns it: those packages report the case with a false bool.
	ErrStaleHandle = errors.New("pcerrors: stale handle")

	// ErrAlreadyReleased names the condition of a release that lost the
	// race to retire a handle that has already been freed. No function in
	// this module returns it: those packages report the case with a false
	// bool.
	ErrAlreadyReleased = errors.New("pcerrors: handle already released")

	// ErrInvalidKind is returned when an alloc.Kind value outside the
	// known enum is presented to the allocator.
	ErrInvalidKind = errors.New("pcerrors: invalid allocation kind")

	// ErrWrongThread is returned when a Thread-tier block is freed from a
	// goroutine other than the one that owns its pool.
	ErrWrongThread = errors.New("pcerrors: block does not belong to this thread")
)

// Wrap annotates err with msg using github.com/pkg/errors, preserving the
// original sentinel for errors.Is/errors.Cause. Returns nil if err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

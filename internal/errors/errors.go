// Package errors defines the sentinel errors returned across the engine's
// public surface. Callers compare with errors.Is; nothing is swallowed.
package errors

import "errors"

var (
	// ErrInvalidArgument covers arity out of [1,255] and values.length != w.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidQuery covers period-alignment violations. Callers wrap it
	// with a message naming the violated field, e.g.
	// fmt.Errorf("%w: second must be a multiple of 30", ErrInvalidQuery).
	ErrInvalidQuery = errors.New("invalid query")

	// ErrMisalignedRange is returned when range enumeration would overshoot
	// the query's end boundary.
	ErrMisalignedRange = errors.New("misaligned range")

	// ErrAlreadyExists is returned by prefix configuration creation when the
	// prefix is already registered.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned when a prefix configuration does not exist.
	ErrNotFound = errors.New("not found")

	// ErrHasData is returned when deleting a prefix configuration that
	// still has raw series data under it.
	ErrHasData = errors.New("has data")

	// ErrNotImplemented covers reserved operations: delete, deleteRange,
	// getTimeSeriesCount, and the GetPrefixConfiguration read path.
	ErrNotImplemented = errors.New("not implemented")

	// ErrCancelled is returned when a caller's cancellation token fires
	// mid-iteration.
	ErrCancelled = errors.New("cancelled")

	// ErrStorage wraps failures from the storage substrate (I/O,
	// corruption, transaction conflict). Always used with %w so the
	// underlying cause survives.
	ErrStorage = errors.New("storage error")

	// ErrClosed is returned by export.Writer.Write after the writer has
	// been closed. The Store keeps no closed state: its methods do not
	// return ErrClosed after Close, and Open does not detect a store that
	// is already open.
	ErrClosed = errors.New("store is closed")
)

// Is is a convenience wrapper for errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }

// IsPrefixConflict returns true if err reflects a prefix configuration
// conflict (already exists, not found, or has data).
func IsPrefixConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrHasData)
}

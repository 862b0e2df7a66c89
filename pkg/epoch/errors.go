package epoch

import "errors"

// Error classification.
//
// Callers should classify errors using errors.Is.
var (
	// ErrTableExhausted indicates Acquire failed to reserve a slot after
	// 3*N probes, where N is the entry table size. Fatal: the caller should
	// abort rather than retry.
	ErrTableExhausted = errors.New("epoch: entry table exhausted")

	// ErrNotProtected indicates ProtectAndDrain, BumpCurrentEpoch or a
	// marker operation was invoked on a Handle that has been released.
	// Programmer error.
	ErrNotProtected = errors.New("epoch: goroutine not protected")

	// ErrAlreadyDisposed indicates an operation ran after Dispose.
	ErrAlreadyDisposed = errors.New("epoch: manager already disposed")

	// ErrInvalidTableSize indicates New was called with a table size that
	// is not a power of two, or lies outside [MinTableSize, MaxTableSize].
	ErrInvalidTableSize = errors.New("epoch: table size must be a power of two in [2, 32768]")

	// ErrInvalidMarkerIndex indicates a marker index outside [0, MarkerCount).
	ErrInvalidMarkerIndex = errors.New("epoch: marker index out of range")
)

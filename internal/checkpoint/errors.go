package checkpoint

import "errors"

var (
	// ErrCheckpointTimedOut is returned when the context passed to
	// [Coordinator.RunCheckpoint] is canceled before the checkpoint
	// completes: either before every active session has acknowledged the
	// flush phase, or before the commit phase's deferred manifest write
	// has run.
	ErrCheckpointTimedOut = errors.New("checkpoint: timed out waiting for sessions to flush")

	// ErrManifestWrite wraps a failure to durably persist the checkpoint
	// manifest.
	ErrManifestWrite = errors.New("checkpoint: failed to write manifest")
)

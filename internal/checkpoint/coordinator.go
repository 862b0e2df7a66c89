package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lfkv/epochkv/pkg/epoch"
	"github.com/lfkv/epochkv/pkg/fs"
)

// PhaseMarker is the marker index used for the begin/flush/commit
// rendezvous. Chosen arbitrarily among the epoch manager's available
// marker slots (see [epoch.MarkerCount]); nothing else in this module uses
// marker 0.
const PhaseMarker = 0

const defaultPollInterval = 5 * time.Millisecond

// Coordinator drives the checkpoint protocol described in the package doc.
// It holds its own epoch handle for the lifetime of the process.
type Coordinator struct {
	mgr    *epoch.Manager
	handle *epoch.Handle
	writer *fs.AtomicWriter

	manifestPath string
	pollInterval time.Duration
	logger       zerolog.Logger

	generation atomic.Int64
}

// Option configures a Coordinator constructed by [NewCoordinator].
type Option func(*Coordinator)

// WithLogger attaches a logger for operational diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithPollInterval overrides the default flush-phase poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.pollInterval = d }
}

// NewCoordinator acquires an epoch handle from mgr and returns a Coordinator
// that writes its manifest to manifestPath via filesystem, atomically.
func NewCoordinator(mgr *epoch.Manager, filesystem fs.FS, manifestPath string, opts ...Option) (*Coordinator, error) {
	handle, err := mgr.Acquire()
	if err != nil {
		return nil, fmt.Errorf("checkpoint: acquire coordinator handle: %w", err)
	}

	c := &Coordinator{
		mgr:          mgr,
		handle:       handle,
		writer:       fs.NewAtomicWriter(filesystem),
		manifestPath: manifestPath,
		pollInterval: defaultPollInterval,
		logger:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close releases the coordinator's epoch handle. The Coordinator must not
// be used afterward.
func (c *Coordinator) Close() error {
	return c.handle.Release() //nolint:wrapcheck // epoch errors are already descriptive sentinels
}

// ManifestPath returns the path the coordinator writes its manifest to.
func (c *Coordinator) ManifestPath() string {
	return c.manifestPath
}

// PendingGeneration reports the generation number of the checkpoint
// currently in flight (0 if none has ever started). Sessions compare this
// against their own last-seen generation to decide whether to acknowledge
// the flush phase on their next [session.Session.Do].
func (c *Coordinator) PendingGeneration() int64 {
	return c.generation.Load()
}

// RunCheckpoint runs one full begin/flush/commit cycle and returns the
// manifest that was durably written. It blocks in the flush phase until
// every currently-protected session has acknowledged, or until ctx is
// canceled.
func (c *Coordinator) RunCheckpoint(ctx context.Context) (Manifest, error) {
	gen := c.generation.Add(1)

	beginVersion := gen * 3
	flushVersion := beginVersion + 1
	commitVersion := beginVersion + 2

	c.logger.Debug().Int64("generation", gen).Msg("checkpoint: begin")

	if _, err := c.handle.ProtectAndDrain(); err != nil {
		return Manifest{}, fmt.Errorf("checkpoint: begin phase: %w", err)
	}

	if _, err := c.handle.MarkAndCheckIsComplete(PhaseMarker, int32(beginVersion)); err != nil { //nolint:gosec // generation*3 fits comfortably in int32 well before epoch exhaustion
		return Manifest{}, fmt.Errorf("checkpoint: begin phase: %w", err)
	}

	if err := c.waitForFlush(ctx, flushVersion); err != nil {
		return Manifest{}, err
	}

	c.logger.Debug().Int64("generation", gen).Msg("checkpoint: flush acknowledged, committing")

	type commitResult struct {
		manifest Manifest
		err      error
	}

	done := make(chan commitResult, 1)

	checkpointID, err := uuid.NewV7()
	if err != nil {
		return Manifest{}, fmt.Errorf("checkpoint: generate id: %w", err)
	}

	if _, err := c.handle.BumpCurrentEpoch(func() {
		manifest := Manifest{ID: checkpointID.String(), Generation: gen, Epoch: c.mgr.CurrentEpoch()}
		writeErr := c.persist(manifest)
		done <- commitResult{manifest: manifest, err: writeErr}
	}); err != nil {
		return Manifest{}, fmt.Errorf("checkpoint: commit phase: %w", err)
	}

	select {
	case res := <-done:
		if res.err != nil {
			return Manifest{}, res.err
		}

		if _, err := c.handle.MarkAndCheckIsComplete(PhaseMarker, int32(commitVersion)); err != nil { //nolint:gosec
			return res.manifest, fmt.Errorf("checkpoint: post-commit phase: %w", err)
		}

		c.logger.Info().Int64("generation", gen).Int32("epoch", res.manifest.Epoch).Msg("checkpoint: committed")

		return res.manifest, nil
	case <-ctx.Done():
		return Manifest{}, fmt.Errorf("%w: %w", ErrCheckpointTimedOut, context.Cause(ctx))
	}
}

func (c *Coordinator) waitForFlush(ctx context.Context, flushVersion int64) error {
	for {
		complete, err := c.handle.MarkAndCheckIsComplete(PhaseMarker, int32(flushVersion)) //nolint:gosec
		if err != nil {
			return fmt.Errorf("checkpoint: flush phase: %w", err)
		}

		if complete {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrCheckpointTimedOut, context.Cause(ctx))
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Coordinator) persist(manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %w", ErrManifestWrite, err)
	}

	if err := c.writer.WriteWithDefaults(c.manifestPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrManifestWrite, err)
	}

	return nil
}

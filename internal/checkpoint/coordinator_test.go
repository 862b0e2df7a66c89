package checkpoint_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lfkv/epochkv/internal/checkpoint"
	"github.com/lfkv/epochkv/pkg/epoch"
	"github.com/lfkv/epochkv/pkg/fs"
)

// TestScenario_S7_CheckpointRendezvous: three participants (the
// coordinator plus two sessions); RunCheckpoint blocks in the flush phase
// until both sessions acknowledge.
func TestScenario_S7_CheckpointRendezvous(t *testing.T) {
	t.Parallel()

	mgr, err := epoch.New(8)
	if err != nil {
		t.Fatalf("epoch.New: %v", err)
	}

	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.json")

	coord, err := checkpoint.NewCoordinator(mgr, fs.NewReal(), manifestPath, checkpoint.WithPollInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	session1, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("Acquire session1: %v", err)
	}

	session2, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("Acquire session2: %v", err)
	}

	if _, err := session1.ProtectAndDrain(); err != nil {
		t.Fatalf("session1 ProtectAndDrain: %v", err)
	}

	if _, err := session2.ProtectAndDrain(); err != nil {
		t.Fatalf("session2 ProtectAndDrain: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Simulate each session's normal activity loop (what [session.Session.Do]
	// does on every operation): republish the local epoch, and whenever the
	// coordinator has started a new checkpoint generation, acknowledge the
	// flush phase. Running this continuously (rather than poking the handle
	// once) is what actually lets the commit phase's deferred action become
	// safe: it requires every session to republish a local epoch at or past
	// the post-bump epoch, which only happens on a session's *subsequent*
	// operation.
	stop := make(chan struct{})

	simulateSession := func(h *epoch.Handle) {
		var lastAcked int64

		for {
			select {
			case <-stop:
				return
			default:
			}

			if _, err := h.ProtectAndDrain(); err != nil {
				t.Errorf("session ProtectAndDrain: %v", err)
				return
			}

			if gen := coord.PendingGeneration(); gen != 0 && gen != lastAcked {
				flushVersion := int32(gen*3 + 1) //nolint:gosec
				if _, err := h.MarkAndCheckIsComplete(checkpoint.PhaseMarker, flushVersion); err != nil {
					t.Errorf("session MarkAndCheckIsComplete: %v", err)
					return
				}

				lastAcked = gen
			}

			time.Sleep(time.Millisecond)
		}
	}

	var wg sync.WaitGroup

	wg.Add(2)

	go func() { defer wg.Done(); simulateSession(session1) }()
	go func() { defer wg.Done(); simulateSession(session2) }()

	manifest, runErr := coord.RunCheckpoint(ctx)

	close(stop)
	wg.Wait()

	if runErr != nil {
		t.Fatalf("RunCheckpoint: %v", runErr)
	}

	if manifest.Generation != 1 {
		t.Fatalf("manifest.Generation: got %d, want 1", manifest.Generation)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("ReadFile manifest: %v", err)
	}

	var onDisk checkpoint.Manifest
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("Unmarshal manifest: %v", err)
	}

	if onDisk != manifest {
		t.Fatalf("on-disk manifest %+v != returned manifest %+v", onDisk, manifest)
	}
}

func TestCoordinator_RunCheckpoint_TimesOutWithoutAcknowledgement(t *testing.T) {
	t.Parallel()

	mgr, err := epoch.New(8)
	if err != nil {
		t.Fatalf("epoch.New: %v", err)
	}

	dir := t.TempDir()

	coord, err := checkpoint.NewCoordinator(mgr, fs.NewReal(), filepath.Join(dir, "manifest.json"), checkpoint.WithPollInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	// A session that never acknowledges the flush phase.
	stuck, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := stuck.ProtectAndDrain(); err != nil {
		t.Fatalf("ProtectAndDrain: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := coord.RunCheckpoint(ctx); err == nil {
		t.Fatalf("expected a timeout error")
	}
}

func TestCoordinator_RunCheckpoint_SoloCompletesImmediately(t *testing.T) {
	t.Parallel()

	mgr, err := epoch.New(8)
	if err != nil {
		t.Fatalf("epoch.New: %v", err)
	}

	dir := t.TempDir()

	coord, err := checkpoint.NewCoordinator(mgr, fs.NewReal(), filepath.Join(dir, "manifest.json"), checkpoint.WithPollInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	manifest, err := coord.RunCheckpoint(ctx)
	if err != nil {
		t.Fatalf("RunCheckpoint: %v", err)
	}

	if manifest.Generation != 1 {
		t.Fatalf("Generation: got %d, want 1", manifest.Generation)
	}
}

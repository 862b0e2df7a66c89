package epoch_test

import (
	"sync"
	"testing"

	"github.com/lfkv/epochkv/pkg/epoch"
)

// TestScenario_S5_MarkerRendezvous: three threads protected, each calls
// MarkAndCheckIsComplete(0, 7); exactly the last caller sees true.
func TestScenario_S5_MarkerRendezvous(t *testing.T) {
	t.Parallel()

	mgr, err := epoch.New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const n = 3

	handles := make([]*epoch.Handle, n)

	for i := range n {
		h, err := mgr.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}

		if _, err := h.ProtectAndDrain(); err != nil {
			t.Fatalf("ProtectAndDrain: %v", err)
		}

		handles[i] = h
	}

	var (
		mu        sync.Mutex
		start     = make(chan struct{})
		wg        sync.WaitGroup
		trueCount int
	)

	wg.Add(n)

	for i := range n {
		go func(i int) {
			defer wg.Done()
			<-start

			// Serialize the actual mark call so the test is deterministic
			// about which call is "last" while still exercising the real
			// concurrent-scan code path (forEachProtected has no lock).
			mu.Lock()
			complete, err := handles[i].MarkAndCheckIsComplete(0, 7)
			mu.Unlock()

			if err != nil {
				t.Errorf("MarkAndCheckIsComplete: %v", err)
			}

			if complete {
				mu.Lock()
				trueCount++
				mu.Unlock()
			}
		}(i)
	}

	close(start)
	wg.Wait()

	if trueCount != 1 {
		t.Fatalf("expected exactly one true, got %d", trueCount)
	}
}

func TestHandle_MarkAndCheckIsComplete_InvalidIndex(t *testing.T) {
	t.Parallel()

	mgr, err := epoch.New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := h.MarkAndCheckIsComplete(-1, 0); err != epoch.ErrInvalidMarkerIndex {
		t.Fatalf("got %v, want ErrInvalidMarkerIndex", err)
	}

	if _, err := h.MarkAndCheckIsComplete(epoch.MarkerCount, 0); err != epoch.ErrInvalidMarkerIndex {
		t.Fatalf("got %v, want ErrInvalidMarkerIndex", err)
	}
}

func TestHandle_MarkAndCheckIsComplete_WithoutProtection(t *testing.T) {
	t.Parallel()

	mgr, err := epoch.New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if err := h.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	if _, err := h.MarkAndCheckIsComplete(0, 1); err != epoch.ErrNotProtected {
		t.Fatalf("got %v, want ErrNotProtected", err)
	}
}

// A handle that is reserved but never entered a protected region
// (local_epoch == 0) must not block completion: unprotected slots are
// ignored by the scan.
func TestHandle_MarkAndCheckIsComplete_IgnoresUnprotectedSlots(t *testing.T) {
	t.Parallel()

	mgr, err := epoch.New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	active, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := active.ProtectAndDrain(); err != nil {
		t.Fatalf("ProtectAndDrain: %v", err)
	}

	// Reserved, but never protected.
	if _, err := mgr.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	complete, err := active.MarkAndCheckIsComplete(1, 42)
	if err != nil {
		t.Fatalf("MarkAndCheckIsComplete: %v", err)
	}

	if !complete {
		t.Fatalf("unprotected slot should not block completion")
	}
}

package epoch_test

import (
	"testing"

	"github.com/lfkv/epochkv/pkg/epoch"
)

func TestManager_Acquire_ReturnsUniqueSlots(t *testing.T) {
	t.Parallel()

	mgr, err := epoch.New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	seen := make(map[*epoch.Handle]bool)

	handles := make([]*epoch.Handle, 0, 8)

	for range 8 {
		h, err := mgr.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}

		if seen[h] {
			t.Fatalf("duplicate handle returned")
		}

		seen[h] = true
		handles = append(handles, h)
	}

	// Eight live handles on an 8-slot table must hold eight distinct slots.
	if got := mgr.OccupiedSlots(); got != 8 {
		t.Fatalf("OccupiedSlots: got %d, want 8 distinct slots", got)
	}

	for _, h := range handles {
		if err := h.Release(); err != nil {
			t.Fatalf("Release: %v", err)
		}
	}
}

func TestManager_Acquire_TableExhausted(t *testing.T) {
	t.Parallel()

	const size = 4

	mgr, err := epoch.New(size)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for range size {
		if _, err := mgr.Acquire(); err != nil {
			t.Fatalf("Acquire: %v", err)
		}
	}

	// The table has `size` usable slots, all occupied. One more Acquire
	// must fail with ErrTableExhausted after bounded probing: its reserve
	// tries 3*N slots, finds none free, and gives up.
	if _, err := mgr.Acquire(); err != epoch.ErrTableExhausted {
		t.Fatalf("Acquire on full table: got %v, want ErrTableExhausted", err)
	}
}

func TestManager_New_RejectsBadTableSizes(t *testing.T) {
	t.Parallel()

	for _, size := range []int{-1, 1, 3, 100, 32769} {
		if _, err := epoch.New(size); err != epoch.ErrInvalidTableSize {
			t.Fatalf("New(%d): got %v, want ErrInvalidTableSize", size, err)
		}
	}
}

func TestManager_New_AcceptsBoundarySizes(t *testing.T) {
	t.Parallel()

	for _, size := range []int{epoch.MinTableSize, epoch.MaxTableSize, 0} {
		if _, err := epoch.New(size); err != nil {
			t.Fatalf("New(%d): %v", size, err)
		}
	}
}

func TestHandle_Release_FreesSlotForReuse(t *testing.T) {
	t.Parallel()

	const size = 2

	mgr, err := epoch.New(size)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for range 10_000 {
		h, err := mgr.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}

		if _, err := h.ProtectAndDrain(); err != nil {
			t.Fatalf("ProtectAndDrain: %v", err)
		}

		if err := h.Release(); err != nil {
			t.Fatalf("Release: %v", err)
		}
	}
}

func TestHandle_Release_IsIdempotent(t *testing.T) {
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
		t.Fatalf("first Release: %v", err)
	}

	if err := h.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

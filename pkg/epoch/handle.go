package epoch

// Handle is a per-thread handle bound to one reserved entry-table slot.
// It is returned by [Manager.Acquire] and caches its slot index for O(1)
// re-entry on every subsequent call: the cache is just the struct field
// rather than a thread-local lookup, since the caller retains the pointer
// itself.
//
// A Handle must not be used concurrently by more than one goroutine; it
// represents a single logical thread of execution's participation in the
// Manager.
type Handle struct {
	mgr      *Manager
	slot     uint32
	threadID int32
	released bool
}

// Release clears the handle's slot and marks it unusable.
// It is legal to Acquire again later and receive a new Handle. Release is
// a no-op if already released.
func (h *Handle) Release() error {
	if h.released {
		return nil
	}

	if h.mgr.disposed.Load() {
		return ErrAlreadyDisposed
	}

	h.mgr.entries.free(h.slot)
	h.released = true

	return nil
}

// IsProtected reports whether this handle currently holds a non-zero
// local epoch, i.e. is inside a protected region.
func (h *Handle) IsProtected() bool {
	if h.released {
		return false
	}

	return h.entry().localEpoch.Load() != 0
}

// ProtectAndDrain publishes the manager's current epoch into this
// handle's slot with release semantics, then, iff the drain list is
// non-empty, opportunistically drains it. It returns the epoch just
// published.
//
// This is the hot path: in the common case (nothing to drain) it performs
// atomic loads of the disposed flag and the current epoch, one atomic
// store, and one atomic load of the drain count — no allocation, no
// unbounded loop.
func (h *Handle) ProtectAndDrain() (int32, error) {
	if h.released {
		return 0, ErrNotProtected
	}

	if h.mgr.disposed.Load() {
		return h.mgr.currentEpoch.Load(), ErrAlreadyDisposed
	}

	published := h.mgr.currentEpoch.Load()
	h.entry().localEpoch.Store(published)

	if h.mgr.drain.occupied() > 0 {
		h.mgr.drainNow()
	}

	return published, nil
}

// BumpCurrentEpoch increments the manager's global epoch and enqueues
// action with trigger_epoch = new_epoch-1, so it fires once every slot
// has either been released or published a local epoch >= new_epoch.
// It concludes by calling ProtectAndDrain on this handle.
func (h *Handle) BumpCurrentEpoch(action func()) (int32, error) {
	if h.released {
		return 0, ErrNotProtected
	}

	if h.mgr.disposed.Load() {
		return h.mgr.currentEpoch.Load(), ErrAlreadyDisposed
	}

	next := h.mgr.currentEpoch.Add(1)

	h.mgr.drain.enqueue(
		int64(next-1),
		action,
		func() int64 { return int64(h.mgr.safeToReclaim.Load()) },
		h.mgr.onDrainStall,
	)

	_, err := h.ProtectAndDrain()

	return next, err
}

// entry returns the Entry backing this handle's reserved slot.
func (h *Handle) entry() *Entry {
	return &h.mgr.entries.entries[h.slot]
}

package epoch

// MarkAndCheckIsComplete implements the per-thread marker facility.
//
// It writes version into this handle's markers[markerIndex], then scans
// every reserved entry: if any entry is currently protected (local epoch
// != 0) and has not yet written version into the same marker, it returns
// false. Otherwise it returns true.
//
// The scan is not itself a barrier for other threads; callers typically
// call this repeatedly across a multi-phase protocol, advancing version on
// each phase, until every participant converges.
//
// The caller must already hold a slot (via [Manager.Acquire]); calling on
// a released handle returns ErrNotProtected.
func (h *Handle) MarkAndCheckIsComplete(markerIndex int, version int32) (bool, error) {
	if markerIndex < 0 || markerIndex >= MarkerCount {
		return false, ErrInvalidMarkerIndex
	}

	if h.released {
		return false, ErrNotProtected
	}

	if h.mgr.disposed.Load() {
		return false, ErrAlreadyDisposed
	}

	h.entry().markers[markerIndex].Store(version)

	complete := true

	h.mgr.entries.forEachProtected(func(idx uint32, _ int32) {
		if !complete {
			return
		}

		if h.mgr.entries.entries[idx].markers[markerIndex].Load() != version {
			complete = false
		}
	})

	return complete, nil
}

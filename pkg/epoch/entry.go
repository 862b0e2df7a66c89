package epoch

import "sync/atomic"

// Entry is one per-thread protection record.
//
// It is sized to exactly one cache line (16 x 4-byte fields = 64 bytes) so
// that, laid out contiguously in entryTable.slots, no two Entry values ever
// share a cache line: false sharing between unrelated threads' hot fields
// (localEpoch) is eliminated by construction, not by guesswork padding.
//
// Every field is an atomic so that readers (safe-epoch computation, marker
// scans) and writers (the owning thread) never need a lock to touch it.
type Entry struct {
	// localEpoch is the most recent global epoch this thread observed while
	// inside a protected region. 0 means "not currently protected."
	localEpoch atomic.Int32

	// threadID identifies the owning thread. 0 means "slot free." It is the
	// sole means of freeness detection, so the allocator that hands these
	// out (see Manager.nextThreadID) must never produce 0.
	threadID atomic.Int32

	// reentrant is reserved for nested-protection support. No code path
	// currently increments it; see the "Open question" in the package
	// design notes about nested protect_and_drain semantics.
	reentrant atomic.Int32

	// markers holds one version stamp per supported phase marker, written
	// by mark_and_check_is_complete (see marker.go).
	markers [MarkerCount]atomic.Int32
}

// reset clears an Entry back to its zero state. Called by entryTable.free
// while the slot is still reserved by the releasing thread, so no other
// thread can observe a half-cleared entry under the thread_id==0 sentinel
// rule: threadID is cleared last.
func (e *Entry) reset() {
	e.localEpoch.Store(0)
	e.reentrant.Store(0)

	for i := range e.markers {
		e.markers[i].Store(0)
	}
	// threadID cleared last: it is the freeness sentinel.
	e.threadID.Store(0)
}

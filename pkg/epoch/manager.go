package epoch

import (
	"math"
	"sync/atomic"
)

// Manager is the global epoch core.
//
// It is the lock-free heart of the package: entries is the fixed-size
// entry table threads reserve slots in, drain is the small set of deferred
// actions awaiting safety, and currentEpoch/safeToReclaim are the shared
// scalars every Handle operation reads or advances.
//
// The zero value is not usable; construct with [New].
type Manager struct {
	entries *entryTable
	drain   *drainList

	currentEpoch  atomic.Int32
	safeToReclaim atomic.Int32

	// nextThreadID hands out unique, always-nonzero ids to Acquire callers.
	// Go exposes no OS thread identity to user code (goroutines are not
	// threads), so ids are synthesized here rather than read from the
	// runtime; see the package doc and DESIGN.md for the rationale.
	nextThreadID atomic.Int32

	disposed atomic.Bool

	// onDrainStall is called when drain-list enqueue has spun for
	// drainEnqueueWarnWraps complete wraps without finding a slot.
	// Nil by default; set via WithStallHandler.
	onDrainStall func(wraps int)
}

// Option configures a Manager constructed by New.
type Option func(*Manager)

// WithStallHandler registers a callback invoked when drain-list enqueue
// has spun for drainEnqueueWarnWraps complete wraps without finding a free
// or ripe slot. Callers typically wire this to their logger.
func WithStallHandler(fn func(wraps int)) Option {
	return func(m *Manager) { m.onDrainStall = fn }
}

// New creates an EpochManager with the given entry table size, which must
// be a power of two in [MinTableSize, MaxTableSize]. A size of 0 selects
// DefaultTableSize.
func New(tableSize int, opts ...Option) (*Manager, error) {
	if tableSize == 0 {
		tableSize = DefaultTableSize
	}

	if tableSize < MinTableSize || tableSize > MaxTableSize || tableSize&(tableSize-1) != 0 {
		return nil, ErrInvalidTableSize
	}

	m := &Manager{
		entries: newEntryTable(uint32(tableSize)),
		drain:   newDrainList(),
	}
	m.currentEpoch.Store(1)

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Dispose releases the Manager. Any drain actions not yet ripe are dropped
// silently; disposal is expected only at process shutdown. Dispose is
// idempotent. Operations on handles derived from a disposed Manager
// return ErrAlreadyDisposed.
func (m *Manager) Dispose() {
	m.disposed.Store(true)
}

// CurrentEpoch returns the current global epoch.
func (m *Manager) CurrentEpoch() int32 {
	return m.currentEpoch.Load()
}

// SafeToReclaimEpoch returns the largest epoch known safe to reclaim past.
// The value is advisory: a stale read delays reclamation but never
// endangers it.
func (m *Manager) SafeToReclaimEpoch() int32 {
	return m.safeToReclaim.Load()
}

// OccupiedSlots reports how many entry-table slots are currently reserved
// by an acquired, not yet released handle, protected or not. It is a status/diagnostics
// accessor only, not part of the epoch protocol itself.
func (m *Manager) OccupiedSlots() int {
	return m.entries.occupied()
}

// DrainOccupancy reports how many drain-list slots currently hold a
// pending deferred action. Like OccupiedSlots, this is a diagnostics
// accessor.
func (m *Manager) DrainOccupancy() int32 {
	return m.drain.occupied()
}

// Acquire reserves a slot in the entry table and returns a Handle bound to
// it. The Handle stands in for the calling thread's identity: Go has no
// portable thread-local storage, so callers hold onto the returned Handle
// and pass it to ProtectAndDrain/Release themselves (see DESIGN.md).
// Acquire itself is not reentrant for a given logical thread of execution —
// callers must Acquire once and retain the Handle for the lifetime of
// their participation.
func (m *Manager) Acquire() (*Handle, error) {
	if m.disposed.Load() {
		return nil, ErrAlreadyDisposed
	}

	threadID := m.nextThreadID.Add(1)

	slot, err := m.entries.reserve(threadID)
	if err != nil {
		return nil, err
	}

	return &Handle{mgr: m, slot: slot, threadID: threadID}, nil
}

// BumpCurrentEpoch atomically increments the global epoch and returns the
// new value. It then recomputes the safe-to-reclaim epoch and fires any
// drain-list actions that have become ripe.
func (m *Manager) BumpCurrentEpoch() int32 {
	next := m.currentEpoch.Add(1)

	m.drainNow()

	return next
}

// computeSafeToReclaim scans the entry table and stores the largest epoch
// e such that no entry has local_epoch in [1, e]. referenceEpoch caps the
// result from above (it is normally the current global epoch).
func (m *Manager) computeSafeToReclaim(referenceEpoch int32) int32 {
	minLocal := int32(math.MaxInt32)

	m.entries.forEachProtected(func(_ uint32, local int32) {
		if local < minLocal {
			minLocal = local
		}
	})

	bound := referenceEpoch
	if minLocal < bound {
		bound = minLocal
	}

	safe := bound - 1

	m.safeToReclaim.Store(safe)

	return safe
}

// drainNow recomputes safe-to-reclaim against the current epoch and fires
// every drain-list slot that is now ripe.
func (m *Manager) drainNow() {
	m.drain.drain(func() int64 {
		return int64(m.computeSafeToReclaim(m.currentEpoch.Load()))
	})
}

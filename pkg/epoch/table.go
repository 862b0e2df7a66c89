package epoch

import "unsafe"

// entryTable is the fixed-size, cache-line-aligned array of per-thread
// entries.
//
// It holds size+2 entries: index 0 is the permanently-unused invalid
// sentinel (reserve never considers it, so it stays all-zero forever), and
// the tail entry is likewise never reserved. The alignment shift computed
// in newEntryTable is absorbed by the extra cacheLineSize bytes of raw.
// Usable slots live at indices [1, size].
type entryTable struct {
	raw     []byte  // backing allocation; oversized by up to cacheLineSize bytes
	entries []Entry // aligned view over raw, length size+2
	size    uint32  // N, the usable slot count
}

// newEntryTable allocates and zeroes a table with the given usable size,
// aligning the backing storage so entries[0] begins on a cache-line
// boundary. Go's garbage collector does not move heap allocations once
// taken, so the alignment computed here is stable for the table's lifetime;
// it is computed once, here, and Dispose does not reallocate the table.
func newEntryTable(size uint32) *entryTable {
	count := int(size) + 2
	entrySize := int(unsafe.Sizeof(Entry{}))

	raw := make([]byte, count*entrySize+cacheLineSize)

	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + cacheLineSize - 1) &^ (cacheLineSize - 1)
	offset := aligned - base

	entries := unsafe.Slice((*Entry)(unsafe.Pointer(&raw[offset])), count)

	return &entryTable{raw: raw, entries: entries, size: size}
}

// fmix32 is Murmur3's 32-bit finalizer, used to avalanche thread ids into a
// well-spread start index for the linear probe below.
func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h
}

// reserve finds a free slot for threadID using a hashed linear probe: the
// start index is derived by avalanching threadID, then slots
// 1+((start+i) mod N) are tried in turn, CAS'ing threadID from 0 to claim
// one. It restarts the scan (by continuing the same probe sequence) until
// a slot is claimed or 3*N attempts have been made.
func (t *entryTable) reserve(threadID int32) (uint32, error) {
	n := t.size
	start := fmix32(uint32(threadID)) % n

	maxAttempts := reserveMaxAttemptFactor * int(n)

	for attempt := range maxAttempts {
		idx := 1 + (start+uint32(attempt))%n

		if t.entries[idx].threadID.CompareAndSwap(0, threadID) {
			return idx, nil
		}
	}

	return 0, ErrTableExhausted
}

// free releases slot idx, resetting it to its zero state.
func (t *entryTable) free(idx uint32) {
	t.entries[idx].reset()
}

// occupied counts slots currently reserved by some thread, protected or
// not. Used only for status reporting; it is not on any hot path.
func (t *entryTable) occupied() int {
	n := 0

	for i := uint32(1); i <= t.size; i++ {
		if t.entries[i].threadID.Load() != 0 {
			n++
		}
	}

	return n
}

// forEachProtected calls fn with the localEpoch of every currently occupied
// slot (threadID != 0) whose localEpoch != 0, i.e. every thread mid
// protected-region. Used by safe-epoch computation and marker scans.
func (t *entryTable) forEachProtected(fn func(idx uint32, localEpoch int32)) {
	for i := uint32(1); i <= t.size; i++ {
		if t.entries[i].threadID.Load() == 0 {
			continue
		}

		local := t.entries[i].localEpoch.Load()
		if local == 0 {
			continue
		}

		fn(i, local)
	}
}

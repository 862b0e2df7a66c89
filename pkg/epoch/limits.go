package epoch

// Hardcoded implementation limits.
//
// These keep the entry table a small power of two, keep the drain list
// short enough to scan in a handful of cache lines, and leave enormous
// headroom in the 32-bit epoch space before the drain-list sentinels
// become reachable.
const (
	// MinTableSize is the smallest usable entry table.
	MinTableSize = 2

	// MaxTableSize is the largest entry table New will accept.
	MaxTableSize = 32768

	// DefaultTableSize is used when New is called with a zero table size.
	DefaultTableSize = 128

	// MarkerCount is the number of per-thread phase markers. Chosen,
	// together with localEpoch/threadID/reentrant, to fill one cache line
	// per entry.
	MarkerCount = 13

	// drainListSize is the fixed length of the drain list.
	drainListSize = 16

	// reserveMaxAttemptFactor bounds reservation probing to 3*N attempts
	// before ErrTableExhausted.
	reserveMaxAttemptFactor = 3

	// drainEnqueueWarnWraps is the number of complete scans of the drain
	// list enqueue performs before emitting a single diagnostic and
	// continuing to spin.
	drainEnqueueWarnWraps = 500

	// cacheLineSize is the assumed cache line size used to pad Entry and
	// to align the usable region of the entry table.
	cacheLineSize = 64
)

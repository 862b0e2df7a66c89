// Package epoch provides a lock-free, wait-free-on-the-happy-path epoch
// protection and deferred-reclamation primitive.
//
// Threads (goroutines pinned to OS threads, or any caller that agrees to
// serialize its own calls) reserve a slot with [Manager.Acquire], publish
// their current epoch with [Handle.ProtectAndDrain] before touching
// epoch-protected state, and register callbacks with
// [Handle.BumpCurrentEpoch] that run only once every protected slot has
// moved past the epoch the callback was registered at. It is the
// reclamation substrate a lock-free key-value store uses to free memory,
// truncate logs, or land a checkpoint without ever blocking a reader.
//
// # Basic usage
//
//	mgr, err := epoch.New(128)
//	if err != nil {
//	    return err
//	}
//	defer mgr.Dispose()
//
//	h, err := mgr.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
//
//	h.ProtectAndDrain()
//	// ... touch epoch-protected state ...
//
//	h.BumpCurrentEpoch(func() {
//	    // runs once every other protected thread has moved past the
//	    // epoch active at the time of this call
//	})
//
// # Concurrency
//
// [Manager.Acquire] and [Manager.BumpCurrentEpoch] may be called from any
// number of goroutines at once. Each [Handle] returned by Acquire belongs
// to one logical thread of execution: its methods
// ([Handle.ProtectAndDrain], [Handle.BumpCurrentEpoch],
// [Handle.MarkAndCheckIsComplete], [Handle.Release]) must not be called
// concurrently on the same Handle, while different Handles may be used in
// parallel.
//
// # Error handling
//
// [ErrTableExhausted] is returned from [Manager.Acquire] when the entry
// table has no free slot after bounded probing; callers should treat it as
// fatal and abort rather than retry indefinitely. [ErrNotProtected] and
// [ErrAlreadyDisposed] guard programmer errors (calling marker operations
// without a slot, or calling anything after [Manager.Dispose]); production
// code may treat both as benign no-ops, per the package's error handling
// design.
package epoch

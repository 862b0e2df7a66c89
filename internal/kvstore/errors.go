package kvstore

import "errors"

var (
	// ErrWALOpen wraps a failure to open or migrate the sqlite-backed
	// write-ahead log.
	ErrWALOpen = errors.New("kvstore: failed to open wal")

	// ErrWALAppend wraps a failure to append a record to the write-ahead
	// log.
	ErrWALAppend = errors.New("kvstore: failed to append to wal")

	// ErrWALReplay wraps a failure while replaying the write-ahead log
	// during repair.
	ErrWALReplay = errors.New("kvstore: failed to replay wal")
)

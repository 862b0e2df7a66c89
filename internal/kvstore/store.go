// Package kvstore is a minimal epoch-protected key-value map. It gives the
// epoch core's deferred-action drain list a concrete, textbook reclamation
// workload: deleting or overwriting a key never frees the old value
// immediately, only once the epoch manager confirms no protected reader
// can still observe it.
package kvstore

import (
	"sync"

	"github.com/lfkv/epochkv/internal/session"
)

// Store is a copy-on-write map of string keys to byte-slice values. All
// reads and writes go through a [session.Session], which is what ties a
// caller's protected region to the store's deferred releases.
//
// Store does not itself hold an epoch handle; every operation borrows the
// session's handle for the duration of the call.
type Store struct {
	mu    sync.Mutex
	index map[string][]byte
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{index: make(map[string][]byte)}
}

// Get returns the value stored under key, protecting the read with sess.
// The returned slice aliases the store's internal buffer; callers must not
// hold it past the session's next [session.Session.Do] call if a
// concurrent Delete or Put may have retired it (see the package tests for
// why that's safe, not merely convenient).
func (s *Store) Get(sess *session.Session, key string) ([]byte, bool, error) {
	var (
		value []byte
		ok    bool
	)

	err := sess.Do(func() error {
		s.mu.Lock()
		value, ok = s.index[key]
		s.mu.Unlock()

		return nil
	})

	return value, ok, err
}

// Put inserts or replaces the value stored under key. If key already held a
// value, the old buffer is retired: it stays untouched until the epoch
// manager confirms no protected reader can still observe it, at which
// point it is zeroed to make the reclamation observable (see
// [Store.retire]).
func (s *Store) Put(sess *session.Session, key string, value []byte) error {
	return sess.Do(func() error {
		s.mu.Lock()
		old, existed := s.index[key]
		s.index[key] = value
		s.mu.Unlock()

		if !existed {
			return nil
		}

		return s.retire(sess, old)
	})
}

// Delete removes key from the live index immediately, so no new reader can
// observe it, but defers release of its value buffer the same way Put does
// for an overwritten value.
func (s *Store) Delete(sess *session.Session, key string) error {
	return sess.Do(func() error {
		s.mu.Lock()
		old, existed := s.index[key]
		delete(s.index, key)
		s.mu.Unlock()

		if !existed {
			return nil
		}

		return s.retire(sess, old)
	})
}

// Len reports the number of live keys. It does not protect the read with an
// epoch handle since it observes only the live index, never a retired
// buffer.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.index)
}

// retire schedules buf to be zeroed once it is safe to reclaim, i.e. once
// every session that might still be holding a reference obtained via Get
// has republished a local epoch past the one current when retire was
// called. It piggybacks on the caller's own handle via
// [epoch.Handle.BumpCurrentEpoch]; it does not allocate a handle of its
// own.
func (s *Store) retire(sess *session.Session, buf []byte) error {
	_, err := sess.Handle().BumpCurrentEpoch(func() {
		for i := range buf {
			buf[i] = 0
		}
	})

	return err //nolint:wrapcheck // epoch errors are already descriptive sentinels
}

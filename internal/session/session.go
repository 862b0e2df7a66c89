// Package session is client-facing plumbing around an [epoch.Handle]: it
// gives every client exactly one handle and threads the checkpoint
// coordinator's flush-phase rendezvous through each operation a session
// performs.
package session

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lfkv/epochkv/internal/checkpoint"
	"github.com/lfkv/epochkv/pkg/epoch"
)

// Session is one client's participation in the epoch manager. It is not
// safe for concurrent use by multiple goroutines; callers typically own
// one Session per connection or worker.
type Session struct {
	id     string
	handle *epoch.Handle
	coord  *checkpoint.Coordinator
	logger zerolog.Logger

	mu        sync.Mutex
	lastAcked int64
	closed    bool
}

// Do runs fn inside a protected region: it publishes the current epoch,
// runs fn, and then — if the checkpoint coordinator has started a new
// generation since this session last saw one — acknowledges the flush
// phase before returning.
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if _, err := s.handle.ProtectAndDrain(); err != nil {
		return fmt.Errorf("session %s: protect: %w", s.id, err)
	}

	if err := fn(); err != nil {
		return err
	}

	if s.coord != nil {
		if gen := s.coord.PendingGeneration(); gen != 0 && gen != s.lastAcked {
			flushVersion := int32(gen*3 + 1) //nolint:gosec // generation*3 stays far below int32 range

			if _, err := s.handle.MarkAndCheckIsComplete(checkpoint.PhaseMarker, flushVersion); err != nil {
				return fmt.Errorf("session %s: acknowledge checkpoint flush: %w", s.id, err)
			}

			s.lastAcked = gen
			s.logger.Debug().Str("session", s.id).Int64("generation", gen).Msg("acknowledged checkpoint flush")
		}
	}

	return nil
}

// Close releases the session's epoch handle. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if err := s.handle.Release(); err != nil {
		return fmt.Errorf("session %s: release: %w", s.id, err)
	}

	return nil
}

// ID returns the session's identifier, as given to [Manager.Open].
func (s *Session) ID() string {
	return s.id
}

// Handle returns the session's underlying epoch handle. Consumers like
// kvstore.Store use it to schedule deferred reclamation actions
// ([epoch.Handle.BumpCurrentEpoch]) from inside a [Session.Do] call, rather
// than reimplementing epoch participation themselves.
func (s *Session) Handle() *epoch.Handle {
	return s.handle
}

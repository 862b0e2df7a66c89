package session

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lfkv/epochkv/internal/checkpoint"
	"github.com/lfkv/epochkv/pkg/epoch"
)

// Manager opens and tracks [Session] values bound to a single
// [epoch.Manager]. It also doubles as the registry the CLI's "sessions"
// command reads from.
type Manager struct {
	mgr    *epoch.Manager
	coord  *checkpoint.Coordinator
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager constructs a session Manager. coord may be nil if no
// checkpoint coordinator is running; sessions then never acknowledge a
// flush phase.
func NewManager(mgr *epoch.Manager, coord *checkpoint.Coordinator, logger zerolog.Logger) *Manager {
	return &Manager{
		mgr:      mgr,
		coord:    coord,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open acquires an epoch handle and registers a new Session under id. It is
// the caller's responsibility to ensure id is unique; Open returns an error
// if id is already open.
func (m *Manager) Open(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("session: %q already open", id)
	}

	handle, err := m.mgr.Acquire()
	if err != nil {
		return nil, fmt.Errorf("session: acquire handle for %q: %w", id, err)
	}

	s := &Session{
		id:     id,
		handle: handle,
		coord:  m.coord,
		logger: m.logger,
	}

	m.sessions[id] = s
	m.logger.Debug().Str("session", id).Msg("opened")

	return s, nil
}

// Close closes and unregisters the session with the given id. It is a
// no-op if no such session is open.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, exists := m.sessions[id]
	if exists {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !exists {
		return nil
	}

	return s.Close()
}

// List returns the ids of every currently open session, in no particular
// order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}

	return ids
}

// Count reports the number of currently open sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

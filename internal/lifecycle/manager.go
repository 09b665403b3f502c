// Package lifecycle enforces at-most-one live store handle per
// location within a process.
//
// The store handle itself is an explicitly owned value returned by
// Open and passed to every operation; the manager only polices double
// opens and deterministic shutdown. Tests that want several isolated
// stores can bypass the manager and call store.Open directly.
package lifecycle

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/kbolt/sensorlog/internal/store"
)

// ErrAlreadyInitialized is returned when a location already has a live
// handle. Opening twice is a caller bug, not something to paper over
// with a shared handle.
var ErrAlreadyInitialized = errors.New("store already initialized for this location")

// Manager tracks live handles by absolute store location.
// Safe for concurrent use.
type Manager struct {
	mu   sync.Mutex
	open map[string]*store.Store
}

// NewManager returns a manager with no open handles.
func NewManager() *Manager {
	return &Manager{open: make(map[string]*store.Store)}
}

// Open opens the store at path and registers the handle. Fails with
// ErrAlreadyInitialized if this process already holds a live handle
// for the same location.
func (m *Manager) Open(path string) (*store.Store, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve store location: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.open[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, key)
	}

	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	m.open[key] = s
	return s, nil
}

// Close closes the handle and releases its location slot, so the
// location can be opened again. Closing a handle the manager does not
// know (already closed, or opened directly via store.Open) is a no-op
// beyond closing the handle itself.
func (m *Manager) Close(s *store.Store) error {
	if s == nil {
		return nil
	}

	key, err := filepath.Abs(s.Path())
	if err == nil {
		m.mu.Lock()
		if m.open[key] == s {
			delete(m.open, key)
		}
		m.mu.Unlock()
	}

	return s.Close()
}

// CloseAll closes every live handle. Used at process shutdown.
// Returns the first close error encountered, after attempting all.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	handles := make([]*store.Store, 0, len(m.open))
	for _, s := range m.open {
		handles = append(handles, s)
	}
	m.open = make(map[string]*store.Store)
	m.mu.Unlock()

	var firstErr error
	for _, s := range handles {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/skyharbor-io/opsdeck/internal/shared/types"
)

const keyPrefix = "session-"

// Shell is the window surface sessions capture and restore.
type Shell interface {
	Workspace() types.Workspace
	Restore(ws types.Workspace)
}

// Cache is the durable key-value store sessions live in.
type Cache interface {
	Set(key string, value any) error
	Get(key string, out any) (bool, error)
	Remove(key string) error
	Keys(prefix string) ([]string, error)
}

// Manager handles session persistence.
type Manager struct {
	mu    sync.Mutex
	shell Shell
	cache Cache
}

// NewManager creates a session manager.
func NewManager(shell Shell, cache Cache) *Manager {
	return &Manager{shell: shell, cache: cache}
}

// Save captures the current workspace under a new session id.
func (m *Manager) Save(name, description string) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	session := &types.Session{
		ID:          fmt.Sprintf("%s%s", keyPrefix, now.Format("20060102-150405.000")),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		Workspace:   m.shell.Workspace(),
	}

	if err := m.cache.Set(session.ID, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return session, nil
}

// SaveDefault saves under the well-known default name.
func (m *Manager) SaveDefault() (*types.Session, error) {
	return m.Save("default", "Auto-saved workspace")
}

// Get loads one session by id.
func (m *Manager) Get(id string) (*types.Session, error) {
	var session types.Session
	found, err := m.cache.Get(id, &session)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

// List returns all saved sessions, newest first.
func (m *Manager) List() ([]*types.Session, error) {
	keys, err := m.cache.Keys(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*types.Session, 0, len(keys))
	for _, key := range keys {
		session, err := m.Get(key)
		if err != nil || session == nil {
			continue // Skip unreadable entries rather than failing the listing
		}
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Restore replaces the current workspace with a saved one. Returns false
// when the session does not exist.
func (m *Manager) Restore(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.Get(id)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}

	m.shell.Restore(session.Workspace)
	return true, nil
}

// Delete removes a saved session. Deleting a missing id is a no-op.
func (m *Manager) Delete(id string) error {
	return m.cache.Remove(id)
}

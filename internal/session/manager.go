package session

import (
	"fmt"
	"slices"
	"sync"

	"github.com/daniacca/doughsim/internal/dough"
	"github.com/google/uuid"
)

// Manager keeps sessions isolated from each other, keyed by ID.
type Manager struct {
	mu            sync.RWMutex
	sessions      map[ID]*Session
	notifications *NotificationManager
	logger        dough.Logger
}

// NewManager creates a manager. Sessions it creates publish to nm, which may be nil.
func NewManager(nm *NotificationManager, logger dough.Logger) *Manager {
	if logger == nil {
		logger = dough.NewNoOpLogger()
	}
	return &Manager{
		sessions:      make(map[ID]*Session),
		notifications: nm,
		logger:        logger,
	}
}

// Create builds a session. An empty id gets a random UUID.
func (m *Manager) Create(id ID, cfg Config) (ID, error) {
	if id == "" {
		id = ID(uuid.NewString())
	}

	m.mu.RLock()
	_, exists := m.sessions[id]
	m.mu.RUnlock()
	if exists {
		return "", fmt.Errorf("session with id %s already exists", id)
	}

	s, err := NewSession(id, cfg)
	if err != nil {
		return "", err
	}
	s.SetLogger(m.logger)
	s.SetNotificationManager(m.notifications)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; exists {
		return "", fmt.Errorf("session with id %s already exists", id)
	}
	m.sessions[id] = s
	m.logger.Infof("session created: id=%s molecules=%d", id, s.Stats().Molecules)
	return id, nil
}

// Get retrieves a session by ID
func (m *Manager) Get(id ID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete stops and removes a session.
func (m *Manager) Delete(id ID) error {
	m.mu.Lock()
	s, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("session with id %s does not exist", id)
	}
	s.Stop()
	m.logger.Infof("session deleted: id=%s", id)
	return nil
}

// List returns all session IDs in sorted order.
func (m *Manager) List() []ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]ID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// StopAll stops every running session.
func (m *Manager) StopAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.Stop()
	}
}

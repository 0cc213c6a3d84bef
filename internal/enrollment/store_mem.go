package enrollment

import (
	"context"
	"sync"
)

// NewInMemoryDirectory backs the directory with maps; used by tests and
// offline mode.
func NewInMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users:   map[string]User{},
		classes: map[string]ClassGroup{},
	}
}

type MemoryDirectory struct {
	mu      sync.RWMutex
	users   map[string]User
	classes map[string]ClassGroup
}

func (m *MemoryDirectory) PutUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MemoryDirectory) PutClass(c ClassGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[c.ID] = c
}

func (m *MemoryDirectory) GetUser(_ context.Context, userID string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryDirectory) GetClass(_ context.Context, classID string) (ClassGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classes[classID]
	if !ok {
		return ClassGroup{}, ErrClassNotFound
	}
	return c, nil
}

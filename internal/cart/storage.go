package cart

import (
	"context"
	"sync"
)

// Storage persists the full cart state for a session. Save must be durable
// before it returns; Load of an unknown session yields an empty cart.
type Storage interface {
	Save(ctx context.Context, sessionID string, lines []Line) error
	Load(ctx context.Context, sessionID string) ([]Line, error)
}

// MemoryStorage is an in-process Storage for tests and single-node runs.
// Production uses the redis-backed storage in internal/redisclient.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string][]Line
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string][]Line)}
}

func (m *MemoryStorage) Save(_ context.Context, sessionID string, lines []Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]Line, len(lines))
	copy(stored, lines)
	m.carts[sessionID] = stored
	return nil
}

func (m *MemoryStorage) Load(_ context.Context, sessionID string) ([]Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.carts[sessionID]
	lines := make([]Line, len(stored))
	copy(lines, stored)
	return lines, nil
}

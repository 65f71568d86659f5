package storage

import (
	"context"
	"sync"
	"time"
)

type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *Memory) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// MemoryScopes keeps one Memory per visitor. It is meant for tests and local
// runs: scopes live until Sweep drops them.
type MemoryScopes struct {
	mu     sync.Mutex
	scopes map[string]*memoryScope
}

type memoryScope struct {
	mem        *Memory
	lastAccess time.Time
}

func NewMemoryScopes() *MemoryScopes {
	return &MemoryScopes{scopes: make(map[string]*memoryScope)}
}

func (s *MemoryScopes) Scope(visitorID string) Storage {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scopes[visitorID]
	if !ok {
		sc = &memoryScope{mem: NewMemory()}
		s.scopes[visitorID] = sc
	}
	sc.lastAccess = time.Now()
	return sc.mem
}

// Sweep drops scopes not opened within idle of now.
func (s *MemoryScopes) Sweep(now time.Time, idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sc := range s.scopes {
		if now.Sub(sc.lastAccess) > idle {
			delete(s.scopes, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryScopes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scopes)
}

func (s *MemoryScopes) Ping(context.Context) error { return nil }

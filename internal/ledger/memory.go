package ledger

import "sync"

// Memory is a ledger that lives only in memory.
type Memory struct {
	ids   map[string]struct{}
	order []string
	mu    sync.RWMutex
}

// NewMemory returns a memory ledger seeded with ids.
func NewMemory(ids ...string) *Memory {
	m := &Memory{ids: make(map[string]struct{})}
	for _, id := range ids {
		_ = m.Add(id)
	}
	return m
}

func (m *Memory) Contains(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[id]
	return ok
}

func (m *Memory) Add(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[id]; ok {
		return nil
	}
	m.ids[id] = struct{}{}
	m.order = append(m.order, id)
	return nil
}

// IDs returns the ids in the order they were added.
func (m *Memory) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, len(m.order))
	copy(result, m.order)
	return result
}

package kvstore

import "sync"

// Memory is a simple in-memory store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]Entry
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]Entry)}
}

// Get retrieves an entry by key. Expired entries are treated as missing.
func (m *Memory) Get(key string) (Entry, bool) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok || e.expired() {
		return Entry{}, false
	}
	return e, true
}

// Set stores an entry.
func (m *Memory) Set(key string, value Entry) {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
}

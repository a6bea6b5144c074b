package store

import (
	"context"
	"sync"
)

// MemoryKV keeps the namespace in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Commit(ctx context.Context, b *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range b.Deletes {
		delete(m.data, k)
	}
	for k, v := range b.Puts {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryKV) Ping(ctx context.Context) error { return nil }

func (m *MemoryKV) Close() error { return nil }

// Len returns the number of keys held.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Package storage provides the durable key-value slots carts are persisted to.
// Every slot returns nil data and a nil error for a key that holds nothing.
package storage

import (
	"context"
	"sync"
)

// MemorySlot keeps payloads in process memory. Used for local development and tests.
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

func (m *MemorySlot) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemorySlot) Save(_ context.Context, key string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()
	return nil
}

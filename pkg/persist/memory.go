package persist

import (
	"bytes"
	"context"
	"sync"
)

// MemoryBackend keeps payloads in process memory. It is intended for tests,
// examples and sessions that should not touch disk.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: map[string][]byte{}}
}

func (b *MemoryBackend) Load(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	value, ok := b.values[key]
	b.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(value), true, nil
}

func (b *MemoryBackend) Save(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	b.values[key] = bytes.Clone(value)
	b.writes++
	b.mu.Unlock()
	return nil
}

// Writes returns how many times Save has been called.
func (b *MemoryBackend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}

package storage

import (
	"context"
	"sort"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/hostelhub/go-hostel"
)

// Memory is a process-lifetime key-value store. It backs the volatile auth
// artifact scope: contents vanish on restart, which is exactly the lifetime
// a non-persistent session should have.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ hostel.ArtifactStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return "", goerrors.New("key not found", goerrors.CategoryNotFound).
			WithMetadata(map[string]any{"key": key})
	}

	return value, nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

package repository

import (
	"context"
	"maps"
	"sync"
)

// memoryStore backs the "memory" storage driver and tests. Values do not survive a restart.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() KeyValueStore {
	return &memoryStore{data: make(map[string]string)}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, bool, error) {

	if err := validateKeys([]string{key}); err != nil {
		return "", false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]

	return v, ok, nil
}

func (m *memoryStore) Set(ctx context.Context, key, value string) error {
	return m.MultiSet(ctx, map[string]string{key: value})
}

func (m *memoryStore) Remove(ctx context.Context, key string) error {
	return m.MultiRemove(ctx, []string{key})
}

func (m *memoryStore) MultiGet(_ context.Context, keys []string) (map[string]string, error) {

	if err := validateKeys(keys); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}

	return out, nil
}

func (m *memoryStore) MultiSet(_ context.Context, pairs map[string]string) error {

	if err := validateKeys(sortedKeys(pairs)); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	maps.Copy(m.data, pairs)

	return nil
}

func (m *memoryStore) MultiRemove(_ context.Context, keys []string) error {

	if err := validateKeys(keys); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.data, k)
	}

	return nil
}

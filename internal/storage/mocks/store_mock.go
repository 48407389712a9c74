package mocks

import (
	"context"
	"maps"
	"sync"
)

// MockStore is a KeyValueStore for tests that records every write
type MockStore struct {
	mu     sync.RWMutex
	values map[string]string

	// For tracking calls in tests
	SetCalls    []map[string]string
	RemoveCalls [][]string
	SetErr      error
	RemoveErr   error
	GetErr      error
}

// NewMockStore creates a MockStore seeded with initial values
func NewMockStore(initial map[string]string) *MockStore {
	values := make(map[string]string)
	maps.Copy(values, initial)
	return &MockStore{values: values}
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MockStore) Set(ctx context.Context, key, value string) error {
	return m.SetMany(ctx, map[string]string{key: value})
}

func (m *MockStore) SetMany(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, maps.Clone(values))
	if m.SetErr != nil {
		return m.SetErr
	}
	maps.Copy(m.values, values)
	return nil
}

func (m *MockStore) Remove(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RemoveCalls = append(m.RemoveCalls, append([]string(nil), keys...))
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Value returns the stored value for key, or "" when absent
func (m *MockStore) Value(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Reset clears stored values and recorded calls
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	m.SetCalls = nil
	m.RemoveCalls = nil
	m.SetErr = nil
	m.RemoveErr = nil
	m.GetErr = nil
}

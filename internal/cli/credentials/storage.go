// Package credentials persists the token and apiKey pair for the CLI and the
// dashboard gateway.
package credentials

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by a Storage when the key is absent
var ErrNotFound = errors.New("credential not found")

// Storage is a durable key-value capability for credentials.
// This allows the OS keyring to be swapped for a file, memory or no-op backend.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	// Available reports whether the backend can persist anything at all
	Available() bool
}

// MemoryStorage keeps credentials in process memory
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStorage) Available() bool { return true }

// NoopStorage stands in where no durable client storage exists.
// Reads always miss and writes are discarded.
type NoopStorage struct{}

func (NoopStorage) Get(string) (string, error) { return "", ErrNotFound }
func (NoopStorage) Set(string, string) error   { return nil }
func (NoopStorage) Delete(string) error        { return nil }
func (NoopStorage) Available() bool            { return false }

package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Storage keys
const (
	KeyToken    = "token"
	KeyAPIKey   = "apiKey"
	KeySnapshot = "auth-storage"
)

// Credentials is the token and apiKey pair.
// A session needs both; either one alone counts as no session.
type Credentials struct {
	Token  string
	APIKey string
}

// Complete reports whether both credentials are present
func (c Credentials) Complete() bool {
	return c.Token != "" && c.APIKey != ""
}

// Store is the credential store shared by the HTTP client and the session
// container. It never returns read errors: an unreadable credential is absent.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	logger  zerolog.Logger
}

// NewStore wraps a storage backend
func NewStore(storage Storage, logger zerolog.Logger) *Store {
	if storage == nil {
		storage = NoopStorage{}
	}
	return &Store{
		storage: storage,
		logger:  logger.With().Str("component", "credentials").Logger(),
	}
}

// Available reports whether the underlying storage can persist credentials
func (s *Store) Available() bool {
	return s.storage.Available()
}

// Get returns the named credential or "" when absent or unreadable
func (s *Store) Get(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(name)
}

func (s *Store) get(name string) string {
	if !s.storage.Available() {
		return ""
	}
	v, err := s.storage.Get(name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Debug().Err(err).Str("key", name).Msg("Credential storage read failed")
		}
		return ""
	}
	return v
}

// Set persists the named credential. No-op when storage is unavailable.
func (s *Store) Set(name, value string) error {
	if !s.storage.Available() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.Set(name, value)
}

// Credentials reads both credentials under one lock
func (s *Store) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Credentials{
		Token:  s.get(KeyToken),
		APIKey: s.get(KeyAPIKey),
	}
}

// Clear removes token, apiKey and the persisted session snapshot.
// Clearing already-empty storage is not an error.
func (s *Store) Clear() error {
	if !s.storage.Available() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range []string{KeyToken, KeyAPIKey, KeySnapshot} {
		if err := s.storage.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaveJSON persists v as JSON under name
func (s *Store) SaveJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return s.Set(name, string(data))
}

// LoadJSON decodes the JSON stored under name into v.
// Returns false when nothing usable is stored.
func (s *Store) LoadJSON(name string, v any) bool {
	raw := s.Get(name)
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Debug().Err(err).Str("key", name).Msg("Discarding unreadable stored value")
		return false
	}
	return true
}

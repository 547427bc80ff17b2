package credentials

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService  = "llmadmin-cli"
	availabilityKey = "availability"
)

// KeyringStorage stores credentials in the OS keychain/credential manager,
// namespaced per server so several backends can be logged in at once.
type KeyringStorage struct {
	namespace string

	checkOnce sync.Once
	available bool
}

// NewKeyringStorage creates a keyring storage scoped to a server URL
func NewKeyringStorage(serverURL string) *KeyringStorage {
	return &KeyringStorage{namespace: serverURL}
}

// account returns a unique keyring account for a credential on this server
func (k *KeyringStorage) account(key string) string {
	return fmt.Sprintf("%s@%s", key, k.namespace)
}

func (k *KeyringStorage) Get(key string) (string, error) {
	value, err := keyring.Get(keyringService, k.account(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

func (k *KeyringStorage) Set(key, value string) error {
	if err := keyring.Set(keyringService, k.account(key), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (k *KeyringStorage) Delete(key string) error {
	if err := keyring.Delete(keyringService, k.account(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Available asks the keyring once. A missing entry still means the keyring
// answered; any other error means there is no keyring to talk to.
func (k *KeyringStorage) Available() bool {
	k.checkOnce.Do(func() {
		_, err := keyring.Get(keyringService, k.account(availabilityKey))
		k.available = err == nil || errors.Is(err, keyring.ErrNotFound)
	})
	return k.available
}

package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// DefaultConfigDir is the directory under the user config home
	DefaultConfigDir = "llmadmin"
	// CredentialsFileName holds credentials for every server
	CredentialsFileName = "credentials.json"
	// FilePermissions for the credentials file (read/write for owner only)
	FilePermissions = 0600
	// DirPermissions for the config directory
	DirPermissions = 0700
)

// FileStorage keeps credentials in a JSON file, one section per server.
// Used where no OS keyring is reachable (CI runners, containers).
type FileStorage struct {
	mu        sync.Mutex
	path      string
	namespace string
}

// NewFileStorage creates a file storage at the default path scoped to serverURL
func NewFileStorage(serverURL string) (*FileStorage, error) {
	path, err := DefaultFilePath()
	if err != nil {
		return nil, err
	}
	return NewFileStorageAt(path, serverURL), nil
}

// NewFileStorageAt creates a file storage at an explicit path
func NewFileStorageAt(path, serverURL string) *FileStorage {
	return &FileStorage{path: path, namespace: serverURL}
}

// DefaultFilePath returns $XDG_CONFIG_HOME/llmadmin/credentials.json
func DefaultFilePath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, DefaultConfigDir, CredentialsFileName), nil
}

// Path returns the credentials file location
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) load() (map[string]map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	all := map[string]map[string]string{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return all, nil
}

func (f *FileStorage) save(all map[string]map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), DirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(f.path, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func (f *FileStorage) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := all[f.namespace][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return err
	}
	if all[f.namespace] == nil {
		all[f.namespace] = map[string]string{}
	}
	all[f.namespace][key] = value
	return f.save(all)
}

func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return err
	}
	section, ok := all[f.namespace]
	if !ok {
		return nil
	}
	if _, ok := section[key]; !ok {
		return nil
	}
	delete(section, key)
	if len(section) == 0 {
		delete(all, f.namespace)
	}
	return f.save(all)
}

func (f *FileStorage) Available() bool { return true }

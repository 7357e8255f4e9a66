// Package file provides the TOML-backed configuration store.
package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore using
// TOML. Keys are flat dotted paths; record-level updates go through
// SetState so one logical record persists in a single write.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a TOML-backed config store.
// If configDir is empty, defaults to ~/.gmailsource/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".gmailsource")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	// TOML integers are parsed as int64
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}
	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()

	return s.Save()
}

// Delete removes a configuration key and persists the change.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()

	return s.Save()
}

// SetState applies a partial update under a record prefix and persists once.
// A nil value deletes the key, mirroring the host config repository's
// partial-state semantics.
func (s *ConfigStore) SetState(prefix string, values map[string]any) error {
	s.mu.Lock()
	for k, v := range values {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if v == nil {
			delete(s.data, key)
			continue
		}
		s.data[key] = v
	}
	s.mu.Unlock()

	return s.Save()
}

// Save persists the current configuration to storage.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	encoded, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, encoded, 0600)
}

// Load reads configuration from storage. A decode failure is an error, not
// an empty config: silently swallowing the decoded value masks corruption.
func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	data := make(map[string]any)
	if err := toml.Unmarshal(raw, &data); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

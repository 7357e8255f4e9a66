package driven

// ConfigStore provides access to the deployment configuration record.
// Implementations handle persistence (e.g. TOML files) and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// Set stores a configuration value and persists it immediately.
	Set(key string, value any) error

	// Delete removes a configuration key and persists the change.
	Delete(key string) error

	// SetState applies a partial update: each entry is set under the given
	// record prefix, then the store is persisted once.
	SetState(prefix string, values map[string]any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

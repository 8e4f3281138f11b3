package hal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/w1mrk/cwkeyer/keyer"
)

// YAMLConfigStore persists keyer.PersistedConfig to a YAML file, grounded
// on the teacher's config.go load-then-mutate lifecycle but using
// gopkg.in/yaml.v3 instead of the teacher's bespoke directive parser, since
// this config surface is a handful of typed fields rather than an
// AX.25/APRS channel table.
type YAMLConfigStore struct {
	path string
}

// NewYAMLConfigStore returns a store backed by the file at path.
func NewYAMLConfigStore(path string) *YAMLConfigStore {
	return &YAMLConfigStore{path: path}
}

// Load reads and parses the config file. A missing file is not an error:
// it returns the zero value so the caller can fall back to defaults.
func (s *YAMLConfigStore) Load() (keyer.PersistedConfig, error) {
	var cfg keyer.PersistedConfig
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("hal: read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("hal: parse config file: %w", err)
	}
	return cfg, nil
}

// Save serializes cfg and writes it atomically via a temp-file rename.
func (s *YAMLConfigStore) Save(cfg keyer.PersistedConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("hal: marshal config: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("hal: write config temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("hal: rename config file: %w", err)
	}
	return nil
}

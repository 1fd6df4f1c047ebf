package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

var errConfigInvalid = errors.New("invalid config")

// FileStore keeps Settings in a JSON file. Comments and trailing commas are
// accepted on load; Save rewrites the file as plain indented JSON.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

// NewFileStore returns a store for {root}/{systemDir}/config.json.
func NewFileStore(root, systemDir string) *FileStore {
	if systemDir == "" {
		systemDir = DefaultSystemDir
	}
	return &FileStore{Path: filepath.Join(root, systemDir, FileName)}
}

// Load reads the settings. A missing file yields Defaults().
func (s *FileStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read config %s: %w", s.Path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%w %s: %w", errConfigInvalid, s.Path, err)
	}
	return cfg, nil
}

// Save writes the settings atomically.
func (s *FileStore) Save(cfg Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := atomic.WriteFile(s.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write config %s: %w", s.Path, err)
	}
	return nil
}

func parse(data []byte) (Settings, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	cfg := Defaults()
	// Decoding into a non-empty slice merges into the old elements.
	seed := cfg.CustomFields
	cfg.CustomFields = nil
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Settings{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if cfg.CustomFields == nil {
		cfg.CustomFields = seed
	}
	if err := cfg.Check(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// MemoryStore keeps Settings in memory. Useful for tests and embedding.
type MemoryStore struct {
	mu       sync.Mutex
	settings Settings
	saves    int
	// FailSave, when set, is returned by Save without storing anything.
	FailSave error
}

// NewMemoryStore seeds a store with cfg.
func NewMemoryStore(cfg Settings) *MemoryStore {
	return &MemoryStore{settings: cfg.Clone()}
}

// Load returns a copy of the stored settings.
func (m *MemoryStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.Clone(), nil
}

// Save replaces the stored settings.
func (m *MemoryStore) Save(cfg Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.settings = cfg.Clone()
	m.saves++
	return nil
}

// Saves returns how many successful saves happened.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

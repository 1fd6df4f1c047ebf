package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Root          string     `json:"root"`
	SystemDir     string     `json:"system_dir"`
	Include       []string   `json:"include,omitempty"`
	Ignore        []string   `json:"ignore,omitempty"`
	ReadOnly      bool       `json:"read_only"`
	Versioning    bool       `json:"versioning"`
	IndexSize     int        `json:"index_size"`
	WatcherActive bool       `json:"watcher_active"`
	LastSweep     *time.Time `json:"last_sweep,omitempty"`
	Writes        uint64     `json:"writes"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Root:          s.Root,
		SystemDir:     s.config.SystemDir,
		Include:       s.config.Include,
		Ignore:        s.config.Ignore,
		ReadOnly:      s.config.ReadOnly,
		Versioning:    s.versioned,
		IndexSize:     s.index.Len(),
		WatcherActive: s.watcherActive,
		LastSweep:     s.lastSweep,
		Writes:        s.writes,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// indexEntry is what the sweep remembers about one document.
type indexEntry struct {
	LastModified time.Time `json:"lastModified"`
	Size         int64     `json:"size"`
}

// index is the persistent sweep state.
type index struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"` // Key is the document path, e.g. "notes/foo.md"
	dirty   bool
	loaded  bool
	mu      sync.RWMutex
}

// sweepIndex remembers the mtime of every document seen by the last sweep,
// so a restart only revisits documents changed while nothing was watching.
type sweepIndex struct {
	Path  string // Path to .fenced/index.json
	index *index
}

func newSweepIndex(root, systemDir string) *sweepIndex {
	return &sweepIndex{
		Path: filepath.Join(root, systemDir, "index.json"),
		index: &index{
			Version: 1,
			Entries: make(map[string]*indexEntry),
		},
	}
}

// Load reads the index from disk. A missing or corrupted file yields an empty index.
func (c *sweepIndex) Load() error {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	c.index.loaded = true
	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	if err := json.Unmarshal(data, c.index); err != nil || c.index.Entries == nil {
		// Self-heal: the next sweep simply revisits everything.
		c.index.Entries = make(map[string]*indexEntry)
		return nil
	}

	c.index.dirty = false
	return nil
}

// Save persists the index if it changed since the last Load or Save.
func (c *sweepIndex) Save() error {
	c.index.mu.RLock()
	if !c.index.dirty {
		c.index.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(c.index, "", "  ")
	c.index.mu.RUnlock()

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}

	c.index.mu.Lock()
	c.index.dirty = false
	c.index.mu.Unlock()
	return nil
}

// Fresh reports whether relPath is recorded with exactly this mtime and size.
func (c *sweepIndex) Fresh(relPath string, mtime time.Time, size int64) bool {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()

	entry, ok := c.index.Entries[relPath]
	return ok && entry.LastModified.Equal(mtime) && entry.Size == size
}

// Set records relPath.
func (c *sweepIndex) Set(relPath string, mtime time.Time, size int64) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	c.index.Entries[relPath] = &indexEntry{LastModified: mtime, Size: size}
	c.index.dirty = true
}

// Prune removes entries that are not in keep.
func (c *sweepIndex) Prune(keep map[string]bool) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	for path := range c.index.Entries {
		if !keep[path] {
			delete(c.index.Entries, path)
			c.index.dirty = true
		}
	}
}

// Loaded reports whether Load ran, i.e. whether Save would persist the full state.
func (c *sweepIndex) Loaded() bool {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	return c.index.loaded
}

// Len returns the number of entries.
func (c *sweepIndex) Len() int {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	return len(c.index.Entries)
}

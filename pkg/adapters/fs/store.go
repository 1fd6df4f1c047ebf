// Package fs adapts a directory of text documents to the document store
// contracts: read, atomic modify, change notifications, and a startup sweep
// that finds documents edited while nothing was watching.
package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/git"
)

// Config holds the configuration of the filesystem store.
type Config struct {
	Root      string
	SystemDir string   // e.g. ".fenced"; never walked or watched
	Include   []string // doublestar patterns; empty means every file
	Ignore    []string // doublestar patterns excluded even when included
	// Versioning commits every Modify when Root is a git work tree.
	Versioning bool
	ReadOnly   bool
	Logger     *slog.Logger
	// ErrorHandler receives errors of the background watcher.
	ErrorHandler func(error)
}

// Store implements core.DocumentStore and core.Watchable on the filesystem.
type Store struct {
	Root   string
	config Config
	git    *git.Client
	index  *sweepIndex

	mu            sync.RWMutex
	versioned     bool
	watcherActive bool
	lastSweep     *time.Time
	writes        uint64
}

// DefaultSystemDir holds the sweep index and is excluded from documents.
const DefaultSystemDir = ".fenced"

// NewStore creates a filesystem store. Call Initialize before use.
func NewStore(cfg Config) *Store {
	if cfg.SystemDir == "" {
		cfg.SystemDir = DefaultSystemDir
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		Root:   cfg.Root,
		config: cfg,
		git:    git.NewClient(cfg.Root, cfg.SystemDir+".lock", cfg.Logger),
		index:  newSweepIndex(cfg.Root, cfg.SystemDir),
	}
}

// Initialize creates the system directory and, when versioning is on,
// makes sure the root is a git work tree that ignores the system directory.
func (s *Store) Initialize(ctx context.Context) error {
	info, err := os.Stat(s.Root)
	if err != nil {
		return fmt.Errorf("document root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("document root is not a directory: %s", s.Root)
	}
	if !s.config.ReadOnly {
		if err := os.MkdirAll(filepath.Join(s.Root, s.config.SystemDir), 0755); err != nil {
			return fmt.Errorf("failed to create system directory: %w", err)
		}
	}

	if !s.config.Versioning {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("versioning requires git, which is not installed")
	}
	if !s.git.IsRepo() {
		if err := s.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
	}
	if _, err := s.ensureIgnore(); err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	s.mu.Lock()
	s.versioned = true
	s.mu.Unlock()
	return nil
}

func (s *Store) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Root, ".gitignore")
	entries := []string{s.config.SystemDir + "/", s.config.SystemDir + ".lock"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Read returns the text of the document at path (slash-separated, relative to Root).
func (s *Store) Read(ctx context.Context, path string) (string, error) {
	full, err := s.abs(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Modify replaces the document at path atomically, keeping its permissions.
// With versioning on, the change is committed using the reason carried by ctx.
func (s *Store) Modify(ctx context.Context, path, text string) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	full, err := s.abs(path)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(full, []byte(text), fileMode(full, 0644)); err != nil {
		return err
	}
	s.remember(path, full)

	s.mu.Lock()
	s.writes++
	versioned := s.versioned
	s.mu.Unlock()

	if versioned {
		return s.commit(ctx, path)
	}
	return nil
}

func (s *Store) commit(ctx context.Context, path string) error {
	unlock, err := s.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := s.git.Add(path); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}

	msg, ok := core.ChangeReason(ctx)
	if !ok {
		msg = git.FormatCommitMessage(git.CommitTypeChore, "", "update "+path, "")
	}
	if err := s.git.Commit(msg, path); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// remember records the post-write mtime so the next sweep does not count our
// own writes as offline edits.
func (s *Store) remember(rel, full string) {
	if !s.index.Loaded() {
		return
	}
	info, err := os.Stat(full)
	if err != nil {
		return
	}
	s.index.Set(rel, info.ModTime(), info.Size())
	if err := s.index.Save(); err != nil {
		s.config.Logger.Debug("index save failed", "error", err)
	}
}

// Documents lists every document the include/ignore patterns select, sorted.
func (s *Store) Documents(ctx context.Context) ([]string, error) {
	var docs []string
	err := s.walk(ctx, func(rel string, _ os.DirEntry) error {
		docs = append(docs, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(docs)
	return docs, nil
}

// Sweep returns the documents that are new or changed since the previous
// sweep and records the current state. The first sweep returns everything.
func (s *Store) Sweep(ctx context.Context) ([]string, error) {
	if err := s.index.Load(); err != nil {
		s.config.Logger.Warn("index unreadable, sweeping everything", "error", err)
	}

	seen := make(map[string]bool)
	var changed []string
	err := s.walk(ctx, func(rel string, d os.DirEntry) error {
		info, err := d.Info()
		if err != nil {
			return nil
		}
		seen[rel] = true
		if s.index.Fresh(rel, info.ModTime(), info.Size()) {
			return nil
		}
		changed = append(changed, rel)
		s.index.Set(rel, info.ModTime(), info.Size())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.index.Prune(seen)
	if !s.config.ReadOnly {
		if err := s.index.Save(); err != nil {
			s.config.Logger.Warn("index save failed", "error", err)
		}
	}

	now := time.Now()
	s.mu.Lock()
	s.lastSweep = &now
	s.mu.Unlock()

	sort.Strings(changed)
	return changed, nil
}

func (s *Store) walk(ctx context.Context, fn func(rel string, d os.DirEntry) error) error {
	return filepath.WalkDir(s.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != s.Root && s.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := s.resolveID(path)
		if err != nil {
			return nil
		}
		if !s.Matches(rel) {
			return nil
		}
		return fn(rel, d)
	})
}

func (s *Store) skipDir(name string) bool {
	return name == ".git" || name == s.config.SystemDir
}

// Matches reports whether the document path rel is selected by the
// include/ignore patterns.
func (s *Store) Matches(rel string) bool {
	first := strings.SplitN(rel, "/", 2)[0]
	if s.skipDir(first) || rel == s.config.SystemDir+".lock" {
		return false
	}
	for _, pattern := range s.config.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	if len(s.config.Include) == 0 {
		return true
	}
	for _, pattern := range s.config.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// resolveID turns an absolute filesystem path into a document path.
func (s *Store) resolveID(absPath string) (string, error) {
	rel, err := filepath.Rel(s.Root, absPath)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %s is outside %s", absPath, s.Root)
	}
	return rel, nil
}

// abs turns a document path into an absolute filesystem path inside Root.
func (s *Store) abs(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) {
		if _, err := s.resolveID(clean); err != nil {
			return "", err
		}
		return clean, nil
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("document path %q escapes the root", path)
	}
	return filepath.Join(s.Root, clean), nil
}

var (
	_ core.DocumentStore = (*Store)(nil)
	_ core.Watchable     = (*Store)(nil)
)

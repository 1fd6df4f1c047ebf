package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/fenced/pkg/core"
)

// Watch streams create and modify events for matching documents until ctx is
// cancelled. The channel is closed when the watcher stops.
//
// While git holds .git/index.lock the watcher pauses; once the lock is gone it
// sweeps and reports what git changed underneath it.
func (s *Store) Watch(ctx context.Context) (<-chan core.Event, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := s.recursiveAdd(fsw, s.Root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	_ = fsw.Add(filepath.Join(s.Root, ".git"))

	out := make(chan core.Event)
	s.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		defer s.setWatcherActive(false)
		defer fsw.Close()
		return s.watchLoop(ctx, fsw, out)
	}, lifecycle.WithErrorHandler(s.watchError))

	return out, nil
}

func (s *Store) watchLoop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- core.Event) error {
	var gitLocked bool
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if isGitLock(event.Name) {
				switch {
				case event.Has(fsnotify.Create):
					gitLocked = true
					s.config.Logger.Debug("git operation detected, pausing watcher")
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					gitLocked = false
					s.config.Logger.Debug("git operation finished, sweeping")
					s.sweepInto(ctx, out)
				}
				continue
			}
			if gitLocked {
				continue
			}
			s.handleEvent(ctx, fsw, event, out)

		case werr, ok := <-fsw.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			s.watchError(werr)
		}
	}
}

func (s *Store) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event, out chan<- core.Event) {
	var typ core.EventType
	switch {
	case event.Has(fsnotify.Create):
		typ = core.EventCreate
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !s.skipDir(info.Name()) {
				if err := s.recursiveAdd(fsw, event.Name); err != nil {
					s.watchError(err)
				}
			}
			return
		}
	case event.Has(fsnotify.Write):
		typ = core.EventModify
	default:
		return
	}

	rel, err := s.resolveID(event.Name)
	if err != nil {
		s.config.Logger.Debug("event outside root", "path", event.Name, "error", err)
		return
	}
	if !s.Matches(rel) {
		return
	}

	s.config.Logger.Debug("event received", "type", typ, "path", rel)
	send(ctx, out, core.Event{Type: typ, ID: rel, Timestamp: time.Now().Unix()})
}

// sweepInto reports documents changed by an external git operation. It does
// nothing until a sweep established a baseline, otherwise every document
// would count as changed.
func (s *Store) sweepInto(ctx context.Context, out chan<- core.Event) {
	if !s.index.Loaded() {
		return
	}
	changed, err := s.Sweep(ctx)
	if err != nil {
		s.watchError(fmt.Errorf("sweep after git operation: %w", err))
		return
	}
	for _, rel := range changed {
		send(ctx, out, core.Event{Type: core.EventModify, ID: rel, Timestamp: time.Now().Unix()})
	}
}

func (s *Store) recursiveAdd(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && s.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (s *Store) watchError(err error) {
	s.config.Logger.Error("watcher error", "error", err)
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	}
}

func send(ctx context.Context, out chan<- core.Event, e core.Event) {
	select {
	case out <- e:
	case <-ctx.Done():
	}
}

func isGitLock(name string) bool {
	return filepath.Base(name) == "index.lock" && filepath.Base(filepath.Dir(name)) == ".git"
}

package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/introspection"

	lcadapter "github.com/aretw0/fenced/pkg/adapters/lifecycle"
	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/git"
	"github.com/aretw0/fenced/pkg/pipeline"
	"github.com/aretw0/fenced/pkg/region"
)

// lister is implemented by stores that can enumerate their documents.
type lister interface {
	Documents(ctx context.Context) ([]string, error)
}

// sweeper is implemented by stores that remember what they saw last time.
type sweeper interface {
	Sweep(ctx context.Context) ([]string, error)
}

type component interface {
	introspection.Introspectable
	introspection.Component
}

// Watch runs the pipelines on every change until ctx is cancelled. Documents
// changed while nothing was watching are processed first.
func (a *App) Watch(ctx context.Context) error {
	w, ok := a.store.(core.Watchable)
	if !ok {
		return fmt.Errorf("document store does not support watching")
	}

	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	coord := pipeline.NewCoordinator(ctx, pipeline.CoordinatorConfig{
		Delay:    a.debounce,
		Runners:  a.runners(a.settings.AutoPopulate, a.settings.Validate),
		Logger:   a.logger,
		OnResult: a.onResult,
	})
	src := lcadapter.NewSource(events, lcadapter.WithTypes(core.EventCreate, core.EventModify))
	if err := src.Start(ctx); err != nil {
		_ = coord.Close()
		return fmt.Errorf("start event source: %w", err)
	}
	a.setWatching(coord, src)
	defer func() {
		_ = coord.Close()
		a.setWatching(nil, nil)
	}()

	if s, ok := a.store.(sweeper); ok {
		changed, err := s.Sweep(ctx)
		if err != nil {
			a.logger.Warn("startup sweep failed", "error", err)
		}
		a.logger.Info("startup sweep", "changed", len(changed))
		for _, path := range changed {
			coord.Notify(path)
		}
	}

	a.logger.Info("watching", "root", a.Root, "debounce", a.debounce)
	coord.Consume(ctx, src.Events())
	return nil
}

// Documents lists the documents of the root.
func (a *App) Documents(ctx context.Context) ([]string, error) {
	l, ok := a.store.(lister)
	if !ok {
		return nil, fmt.Errorf("document store cannot list documents")
	}
	return l.Documents(ctx)
}

// Check validates paths, or every document when paths is empty. Nothing is
// written. Per-document failures are joined into the returned error.
func (a *App) Check(ctx context.Context, paths ...string) ([]pipeline.Result, error) {
	return a.batch(ctx, paths, a.runners(false, true))
}

// Fix populates defaults into paths, or every document when paths is empty,
// then validates the result.
func (a *App) Fix(ctx context.Context, paths ...string) ([]pipeline.Result, error) {
	populate := a.frontmatter(true, true)
	runners := append([]pipeline.Runner{fixRunner{populate}}, a.runners(false, true)[1:]...)
	return a.batch(ctx, paths, runners)
}

func (a *App) batch(ctx context.Context, paths []string, runners []pipeline.Runner) ([]pipeline.Result, error) {
	if len(paths) == 0 {
		docs, err := a.Documents(ctx)
		if err != nil {
			return nil, err
		}
		paths = docs
	}

	var results []pipeline.Result
	var errs []error
	for _, path := range paths {
		for _, runner := range runners {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			res, err := runner.Run(ctx, path, nil)
			if err != nil {
				errs = append(errs, err)
			}
			results = append(results, res)
		}
	}
	return results, errors.Join(errs...)
}

// fixRunner validates right after a populate write, so one batch pass reports
// the state the document ends in.
type fixRunner struct {
	*pipeline.Pipeline
}

func (f fixRunner) Run(ctx context.Context, path string, stale func() bool) (pipeline.Result, error) {
	first, err := f.Pipeline.Run(ctx, path, stale)
	if err != nil || !first.Wrote {
		return first, err
	}
	second, err := f.Pipeline.Run(ctx, path, stale)
	if err != nil {
		return first, err
	}
	second.Wrote = true
	second.Filled = first.Filled
	return second, nil
}

// Reorder moves the item at from to position to inside the ```kind list
// region of the document at path.
func (a *App) Reorder(ctx context.Context, path, kind string, from, to int) error {
	text, err := a.store.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	out, err := region.Reorder(text, region.FencedList(kind), from, to)
	if err != nil {
		return fmt.Errorf("reorder %s: %w", path, err)
	}
	if out == text {
		return nil
	}
	if a.versioned {
		ctx = core.WithChangeReason(ctx, git.ReorderMessage(path, kind))
	}
	if err := a.store.Modify(ctx, path, out); err != nil {
		return &core.PersistenceError{Path: path, Err: err}
	}
	a.logger.Info("reordered", "doc", path, "region", kind, "from", from, "to", to)
	return nil
}

// Status returns the state of the store and, while watching, of the event
// source and the coordinator, keyed by component type.
func (a *App) Status() map[string]any {
	out := make(map[string]any)
	if c, ok := a.store.(component); ok {
		out[c.ComponentType()] = c.State()
	}
	a.mu.Lock()
	coord, src := a.coordinator, a.source
	a.mu.Unlock()
	if coord != nil {
		out[coord.ComponentType()] = coord.State()
	}
	if src != nil {
		out[src.ComponentType()] = src.State()
	}
	return out
}

func (a *App) setWatching(c *pipeline.Coordinator, s *lcadapter.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.coordinator = c
	a.source = s
}

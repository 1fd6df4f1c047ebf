// Package lifecycle exposes document change events to hosts built on
// github.com/aretw0/lifecycle. The watch loop of fenced consumes them through
// the same Source, so an embedding host and the pipeline see one stream.
package lifecycle

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/fenced/pkg/core"
)

// ErrStarted is returned when Start is called on a running or finished Source.
var ErrStarted = errors.New("source already started")

// Option configures a Source.
type Option func(*Source)

// WithTypes passes only events of the given types. No types means all.
func WithTypes(types ...core.EventType) Option {
	return func(s *Source) {
		if len(types) == 0 {
			return
		}
		s.filters = append(s.filters, func(e core.Event) bool {
			return slices.Contains(types, e.Type)
		})
	}
}

// WithFilter passes only events fn accepts. Filters combine with AND.
func WithFilter(fn func(core.Event) bool) Option {
	return func(s *Source) {
		if fn != nil {
			s.filters = append(s.filters, fn)
		}
	}
}

// Source re-emits store events, e.g. the channel returned by fs.Store.Watch,
// as lifecycle events. Events() closes once the input closes or the context
// given to Start ends.
type Source struct {
	events  <-chan core.Event
	filters []func(core.Event) bool
	out     chan lifecycle.Event

	mu        sync.Mutex
	started   bool
	running   bool
	forwarded int
	dropped   int
	last      string
}

// NewSource wraps events. It does not read anything before Start.
func NewSource(events <-chan core.Event, opts ...Option) *Source {
	s := &Source{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ lifecycle.Source = (*Source)(nil)

func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start launches the forwarding loop and returns immediately.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrStarted
	}
	s.started = true
	s.running = true
	s.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			close(s.out)
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if !s.accept(e) {
					s.count(false, e)
					continue
				}
				select {
				case s.out <- e:
					s.count(true, e)
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

func (s *Source) accept(e core.Event) bool {
	for _, fn := range s.filters {
		if !fn(e) {
			return false
		}
	}
	return true
}

func (s *Source) count(forwarded bool, e core.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !forwarded {
		s.dropped++
		return
	}
	s.forwarded++
	s.last = e.String()
}

// SourceState is the introspection snapshot of a Source.
type SourceState struct {
	Running   bool   `json:"running"`
	Forwarded int    `json:"forwarded"`
	Dropped   int    `json:"dropped"`
	LastEvent string `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Source) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SourceState{
		Running:   s.running,
		Forwarded: s.forwarded,
		Dropped:   s.dropped,
		LastEvent: s.last,
	}
}

// ComponentType implements introspection.Component.
func (s *Source) ComponentType() string {
	return "source"
}

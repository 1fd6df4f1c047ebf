package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/fenced/pkg/core"
)

// Runner processes one region kind of a document. *Pipeline implements it.
type Runner interface {
	Name() string
	Run(ctx context.Context, path string, stale func() bool) (Result, error)
}

// Key is the debounce identity of one region of one document.
func Key(path, regionName string) string {
	return path + "#" + regionName
}

// CoordinatorConfig wires a Coordinator.
type CoordinatorConfig struct {
	// Delay is the quiet period after the last change before a run starts.
	Delay   time.Duration
	Runners []Runner
	Logger  *slog.Logger
	// OnResult, if set, is called after every run settles.
	OnResult func(key string, res Result, err error)
}

// entry is the state of one key. A key without an entry is Idle; a key with
// a timer is Pending.
type entry struct {
	timer    *time.Timer
	gen      uint64
	inflight bool
	rerun    bool
}

// Coordinator debounces change notifications per document region and runs
// the pipelines. One key never runs twice at once; different keys run in
// parallel.
type Coordinator struct {
	cfg    CoordinatorConfig
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	keys    map[string]*entry
	closed  bool
	wg      sync.WaitGroup
	runs    uint64
	writes  uint64
	failed  uint64
	retries uint64
}

// NewCoordinator creates a Coordinator. Runs see the values of ctx but not
// its cancellation: a started run always settles, and Close waits for it.
func NewCoordinator(ctx context.Context, cfg CoordinatorConfig) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Coordinator{
		cfg:    cfg,
		logger: logger,
		ctx:    runCtx,
		cancel: cancel,
		keys:   make(map[string]*entry),
	}
}

// Notify records a change of the document at path. Each region of the
// document gets its timer (re)started.
func (c *Coordinator) Notify(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	for _, runner := range c.cfg.Runners {
		key := Key(path, runner.Name())
		e, ok := c.keys[key]
		if !ok {
			e = &entry{}
			c.keys[key] = e
		}
		e.gen++
		if e.timer != nil {
			e.timer.Stop()
		}
		gen := e.gen
		e.timer = time.AfterFunc(c.cfg.Delay, func() { c.fire(key, path, runner, gen) })
	}
}

// Consume feeds document events into Notify until events closes or ctx ends.
// Events that are not a core.Event are ignored.
func (c *Coordinator) Consume(ctx context.Context, events <-chan lifecycle.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			ev, isDoc := e.(core.Event)
			if !isDoc {
				c.logger.Debug("ignoring event", "event", e.String())
				continue
			}
			c.logger.Debug("change", "type", ev.Type, "doc", ev.ID)
			c.Notify(ev.ID)
		}
	}
}

func (c *Coordinator) fire(key, path string, runner Runner, gen uint64) {
	c.mu.Lock()
	e, ok := c.keys[key]
	if c.closed || !ok || e.gen != gen {
		c.mu.Unlock()
		return
	}
	e.timer = nil
	if e.inflight {
		// Retried once the in-flight run settles.
		e.rerun = true
		c.mu.Unlock()
		return
	}
	e.inflight = true
	c.wg.Add(1)
	c.mu.Unlock()

	c.start(key, path, runner, gen)
}

func (c *Coordinator) start(key, path string, runner Runner, gen uint64) {
	lifecycle.Go(c.ctx, func(ctx context.Context) error {
		defer c.wg.Done()

		var (
			res Result
			err error
		)
		defer func() { c.settle(key, path, runner, res, err) }()

		res, err = runner.Run(ctx, path, c.staleFunc(key, gen))
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		c.logger.Error("pipeline panic", "key", key, "error", err)
	}))
}

func (c *Coordinator) staleFunc(key string, gen uint64) func() bool {
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		e, ok := c.keys[key]
		return c.closed || !ok || e.gen != gen
	}
}

func (c *Coordinator) settle(key, path string, runner Runner, res Result, err error) {
	c.mu.Lock()
	c.runs++
	if res.Wrote {
		c.writes++
	}
	if err != nil {
		c.failed++
	}

	e, ok := c.keys[key]
	var next uint64
	if ok {
		e.inflight = false
		switch {
		case e.timer != nil:
			// A newer change is still in its quiet period; its timer starts the next run.
			e.rerun = false
		case e.rerun && !c.closed:
			e.rerun = false
			e.inflight = true
			next = e.gen
			c.retries++
			c.wg.Add(1)
		default:
			delete(c.keys, key)
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("pipeline run failed", "key", key, "error", err)
	}
	if c.cfg.OnResult != nil {
		c.cfg.OnResult(key, res, err)
	}
	if next != 0 {
		c.start(key, path, runner, next)
	}
}

// Close stops every pending timer, drops all key state and waits for the
// runs in flight, whose results are discarded.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, e := range c.keys {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	c.keys = make(map[string]*entry)
	c.mu.Unlock()

	c.wg.Wait()
	c.cancel()
	return nil
}

// CoordinatorState exposes the coordinator for observability.
type CoordinatorState struct {
	Delay    string   `json:"delay"`
	Regions  []string `json:"regions"`
	Pending  int      `json:"pending"`
	InFlight int      `json:"in_flight"`
	Runs     uint64   `json:"runs"`
	Writes   uint64   `json:"writes"`
	Failed   uint64   `json:"failed"`
	Retries  uint64   `json:"retries"`
	Closed   bool     `json:"closed"`
}

// State implements introspection.Introspectable.
func (c *Coordinator) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := CoordinatorState{
		Delay:   c.cfg.Delay.String(),
		Runs:    c.runs,
		Writes:  c.writes,
		Failed:  c.failed,
		Retries: c.retries,
		Closed:  c.closed,
	}
	for _, r := range c.cfg.Runners {
		s.Regions = append(s.Regions, r.Name())
	}
	for _, e := range c.keys {
		if e.timer != nil {
			s.Pending++
		}
		if e.inflight {
			s.InFlight++
		}
	}
	return s
}

// ComponentType implements introspection.Component.
func (c *Coordinator) ComponentType() string {
	return "coordinator"
}

// String summarizes the state for logs.
func (s CoordinatorState) String() string {
	return fmt.Sprintf("pending=%d in_flight=%d runs=%d writes=%d failed=%d", s.Pending, s.InFlight, s.Runs, s.Writes, s.Failed)
}

var _ introspection.Introspectable = (*Coordinator)(nil)
var _ introspection.Component = (*Coordinator)(nil)

package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/fenced/pkg/config"
	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/pipeline"
)

// options holds the internal configuration of an App.
type options struct {
	logger       *slog.Logger
	configStore  config.Store
	store        core.DocumentStore
	notifier     core.Notifier
	now          func() time.Time
	systemDir    string
	readOnly     bool
	versioning   *bool
	debounce     *time.Duration
	autoInit     bool
	errorHandler func(error)
	onResult     func(key string, res pipeline.Result, err error)
	listKinds    []string
}

// Option defines a functional option for configuring an App.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		systemDir: config.DefaultSystemDir,
		now:       time.Now,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfigStore replaces the settings file with another store (e.g. config.MemoryStore).
func WithConfigStore(s config.Store) Option {
	return func(o *options) {
		o.configStore = s
	}
}

// WithDocumentStore injects a custom document store (e.g. mock).
// If provided, the filesystem adapter is skipped, and so are the startup
// sweep and watching unless the store implements core.Watchable.
func WithDocumentStore(s core.DocumentStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithNotifier sets where validation errors and warnings are shown.
// Defaults to a notifier writing to the logger.
func WithNotifier(n core.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithClock sets the source of "today" for defaults and overdue checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSystemDir sets the hidden directory holding settings and the sweep index.
// Defaults to ".fenced".
func WithSystemDir(name string) Option {
	return func(o *options) {
		if name != "" {
			o.systemDir = name
		}
	}
}

// WithReadOnly disables every write: auto-populate results are reported but
// not persisted, and no system directory is created.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithVersioning overrides the "versioning" setting. When enabled every write
// is committed to git.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithDebounce overrides the "debounce_ms" setting.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = &d
	}
}

// WithAutoInit creates the root directory when it does not exist.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithWatcherErrorHandler registers a callback for errors of the background
// watcher (e.g. permission denied) which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithResultHandler registers a callback invoked after every debounced run settles.
func WithResultHandler(fn func(key string, res pipeline.Result, err error)) Option {
	return func(o *options) {
		o.onResult = fn
	}
}

// WithListRegions validates fenced list regions of the given kinds (e.g. "tasks")
// alongside the frontmatter. Malformed lists are reported as errors.
func WithListRegions(kinds ...string) Option {
	return func(o *options) {
		o.listKinds = append(o.listKinds, kinds...)
	}
}

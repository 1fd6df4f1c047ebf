package fenced

import (
	"log/slog"
	"time"

	"github.com/aretw0/fenced/internal/platform"
	"github.com/aretw0/fenced/pkg/config"
	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/pipeline"
)

// --- Types ---

// App is an opened document root.
type App = platform.App

// Result is the outcome of one pipeline run on one document region.
type Result = pipeline.Result

// Record is the ordered key/value content of a metadata region.
type Record = core.Record

// FieldDefinition describes one schema field.
type FieldDefinition = core.FieldDefinition

// Settings is the persisted configuration.
type Settings = config.Settings

// --- Configuration ---

// Option defines a functional option for configuring an App.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithConfigStore replaces the settings file with another store.
func WithConfigStore(s config.Store) Option {
	return platform.WithConfigStore(s)
}

// WithDocumentStore injects a custom document store.
func WithDocumentStore(s core.DocumentStore) Option {
	return platform.WithDocumentStore(s)
}

// WithNotifier sets where validation errors and warnings are shown.
func WithNotifier(n core.Notifier) Option {
	return platform.WithNotifier(n)
}

// WithClock sets the source of "today".
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithSystemDir sets the hidden directory name (e.g. ".fenced").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithReadOnly disables every write.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithVersioning enables or disables git commits of every write.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithDebounce sets the quiet period after a change before the pipeline runs.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithAutoInit creates the root directory when it does not exist.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithWatcherErrorHandler registers a callback for background watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithResultHandler registers a callback invoked after every debounced run.
func WithResultHandler(fn func(key string, res Result, err error)) Option {
	return platform.WithResultHandler(fn)
}

// WithListRegions checks fenced list regions of the given kinds.
func WithListRegions(kinds ...string) Option {
	return platform.WithListRegions(kinds...)
}

// --- Factory ---

// New opens the document root at root.
func New(root string, opts ...Option) (*App, error) {
	return platform.New(root, opts...)
}

// FindRoot looks upwards from startDir for a document root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir, "")
}

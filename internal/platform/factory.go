package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/fenced/pkg/adapters/fs"
	lcadapter "github.com/aretw0/fenced/pkg/adapters/lifecycle"
	"github.com/aretw0/fenced/pkg/config"
	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/defaults"
	"github.com/aretw0/fenced/pkg/notify"
	"github.com/aretw0/fenced/pkg/pipeline"
	"github.com/aretw0/fenced/pkg/schema"
	"github.com/aretw0/fenced/pkg/validate"
)

// App is a configured document root: settings, schema, store and the
// pipelines that run over it.
type App struct {
	Root string

	logger      *slog.Logger
	settings    config.Settings
	configStore config.Store
	registry    *schema.Registry
	store       core.DocumentStore
	notifier    core.Notifier
	now         func() time.Time
	versioned   bool
	debounce    time.Duration
	listKinds   []string
	onResult    func(key string, res pipeline.Result, err error)

	mu          sync.Mutex
	coordinator *pipeline.Coordinator
	source      *lcadapter.Source
}

// New opens the document root at root.
//
//	app, err := platform.New("./notes", platform.WithVersioning(false))
func New(root string, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if o.autoInit && !o.readOnly {
		if err := os.MkdirAll(abs, 0755); err != nil {
			return nil, fmt.Errorf("create root: %w", err)
		}
	}

	configStore := o.configStore
	if configStore == nil {
		configStore = config.NewFileStore(abs, o.systemDir)
	}
	settings, err := configStore.Load()
	if err != nil {
		return nil, err
	}
	registry, err := schema.NewRegistry(configStore)
	if err != nil {
		return nil, err
	}

	versioning := settings.Versioning
	if o.versioning != nil {
		versioning = *o.versioning
	}
	debounce := settings.Debounce()
	if o.debounce != nil {
		debounce = *o.debounce
	}

	store := o.store
	if store == nil {
		fsStore := fs.NewStore(fs.Config{
			Root:         abs,
			SystemDir:    o.systemDir,
			Include:      settings.Include,
			Ignore:       settings.Ignore,
			Versioning:   versioning,
			ReadOnly:     o.readOnly,
			Logger:       logger,
			ErrorHandler: o.errorHandler,
		})
		if err := fsStore.Initialize(context.Background()); err != nil {
			return nil, err
		}
		store = fsStore
	}

	notifier := o.notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	logger.Debug("document root opened", "root", abs, "versioning", versioning, "debounce", debounce)

	return &App{
		Root:        abs,
		logger:      logger,
		settings:    settings,
		configStore: configStore,
		registry:    registry,
		store:       store,
		notifier:    notifier,
		now:         o.now,
		versioned:   versioning,
		debounce:    debounce,
		listKinds:   o.listKinds,
		onResult:    o.onResult,
	}, nil
}

// Registry returns the live schema. Mutations are persisted immediately and
// seen by the next run.
func (a *App) Registry() *schema.Registry {
	return a.registry
}

// Settings returns the settings loaded when the App was opened.
func (a *App) Settings() config.Settings {
	return a.settings.Clone()
}

// Store returns the document store.
func (a *App) Store() core.DocumentStore {
	return a.store
}

// InitSettings writes the current settings when nothing is persisted yet,
// so they can be edited by hand. It reports whether a file was written.
func (a *App) InitSettings() (bool, error) {
	if fileStore, ok := a.configStore.(*config.FileStore); ok {
		if _, err := os.Stat(fileStore.Path); err == nil {
			return false, nil
		}
	}
	settings := a.Settings()
	settings.Versioning = a.versioned
	if err := a.configStore.Save(settings); err != nil {
		return false, err
	}
	return true, nil
}

// frontmatter builds the pipeline of the metadata region.
func (a *App) frontmatter(autoPopulate, validateOn bool) *pipeline.Pipeline {
	return pipeline.New(pipeline.Config{
		Store:        a.store,
		Schema:       a.registry,
		Assigner:     defaults.NewAssigner(a.now, a.settings.DefaultStatus, a.settings.DefaultPriority),
		Validator:    validate.NewValidator(a.now),
		Notifier:     a.notifier,
		Logger:       a.logger,
		AutoPopulate: autoPopulate,
		Validate:     validateOn,
		Versioned:    a.versioned,
	})
}

// runners returns one runner per region kind.
func (a *App) runners(autoPopulate, validateOn bool) []pipeline.Runner {
	runners := []pipeline.Runner{a.frontmatter(autoPopulate, validateOn)}
	if validateOn {
		for _, kind := range a.listKinds {
			runners = append(runners, pipeline.NewListCheck(a.store, kind, a.notifier, a.logger))
		}
	}
	return runners
}

// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/studybeats/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/studybeats/internal/adapter/audio/stream"
	"github.com/tejashwikalptaru/studybeats/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/studybeats/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/studybeats/internal/adapter/repository/preferences"
	"github.com/tejashwikalptaru/studybeats/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/studybeats/internal/adapter/ui/console"
	fyneui "github.com/tejashwikalptaru/studybeats/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/studybeats/internal/config"
	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/logger"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
	"github.com/tejashwikalptaru/studybeats/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies from the configuration
// - Managing the lifecycle (startup, hydration, shutdown)
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	cfg     *config.Config
	fyneApp fyne.App

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	engine   ports.PlaybackEngine
	notifier ports.Notifier
	store    ports.KeyValueStore
	closers  []func() error

	// Services
	persister *service.SessionPersister
	session   *service.SessionController
	catalog   *service.CatalogService

	shutdownOnce sync.Once
}

// Options holds everything NewApplication needs besides the configuration file.
type Options struct {
	// Config is the loaded configuration, config.Default() when nil
	Config *config.Config

	// Output receives console notifications, os.Stderr when nil
	Output io.Writer

	// LogOutput receives log records, os.Stderr when nil
	LogOutput io.Writer

	// FyneApp overrides the Fyne app used by the preferences backend and desktop notifier
	FyneApp fyne.App

	// Engine overrides the engine selected by the configuration; it is initialized but not shut down
	Engine ports.PlaybackEngine
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{cfg: cfg}

	// Step 1: Create logger
	loggerCfg := cfg.LoggerConfig()
	loggerCfg.Output = opts.LogOutput
	app.logger = logger.NewLogger(loggerCfg)
	app.logger.Debug("initializing application", slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger.With(slog.String("component", "eventbus")))

	// Step 3: Create the Fyne app when a component needs it
	app.fyneApp = opts.FyneApp
	if app.fyneApp == nil && (cfg.Storage.Backend == config.StoragePreferences || cfg.UI.Notifier == config.NotifierDesktop) {
		app.fyneApp = fyneapp.NewWithID(cfg.Storage.AppID)
	}

	// Step 4: Create a notifier
	if cfg.UI.Notifier == config.NotifierDesktop {
		app.notifier = fyneui.NewNotifier(app.fyneApp, app.logger)
	} else {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		app.notifier = console.NewNotifier(out)
	}

	// Step 5: Create a store
	if err := app.openStore(); err != nil {
		app.closeAll()
		return nil, err
	}

	// Step 6: Create an audio engine
	if err := app.startEngine(opts.Engine); err != nil {
		app.closeAll()
		return nil, err
	}

	// Step 7: Create services (with dependency injection)
	app.persister = service.NewSessionPersister(app.logger, app.store, service.PersisterConfig{
		Key: cfg.Storage.Key,
		Defaults: domain.PersistedSession{
			Playlist:     []domain.Track{},
			PlaybackMode: domain.ModeOrdered,
			Volume:       cfg.Player.DefaultVolume,
		},
	})

	app.session = service.NewSessionController(app.logger, app.engine, app.notifier, app.eventBus, app.persister,
		service.ControllerConfig{
			DefaultVolume:    cfg.Player.DefaultVolume,
			FallbackDuration: cfg.Player.FallbackDuration,
			RetryDelay:       cfg.Player.RetryDelay,
		})

	app.catalog = service.NewCatalogService(app.logger, app.eventBus)

	return app, nil
}

func (a *Application) openStore() error {
	switch a.cfg.Storage.Backend {
	case config.StorageSQLite:
		store, err := sqlite.Open(a.cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	case config.StoragePreferences:
		a.store = preferences.NewStore(a.fyneApp.Preferences())
	default:
		a.store = memory.NewStore()
	}
	a.logger.Debug("session store ready", slog.String("backend", a.cfg.Storage.Backend))
	return nil
}

func (a *Application) startEngine(override ports.PlaybackEngine) error {
	engine := override
	owned := engine == nil

	if engine == nil {
		switch a.cfg.Engine.Kind {
		case config.EngineMock:
			m := mock.NewEngine(a.logger)
			m.StartClock(a.cfg.Engine.ProgressInterval)
			engine = m
		default:
			engine = stream.NewEngine(a.logger, stream.Config{
				HTTPTimeout:      a.cfg.Engine.HTTPTimeout,
				ProgressInterval: a.cfg.Engine.ProgressInterval,
			})
		}
	}

	if err := engine.Initialize(); err != nil && !errors.Is(err, domain.ErrAlreadyInitialized) {
		if m, ok := engine.(*mock.Engine); ok && owned {
			m.StopClock()
		}
		return fmt.Errorf("failed to initialize audio engine: %w", err)
	}

	a.engine = engine
	if owned {
		a.closers = append(a.closers, engine.Shutdown)
	}
	return nil
}

// Hydrate restores the persisted session.
func (a *Application) Hydrate(ctx context.Context) {
	a.session.Hydrate(ctx)
}

// Session returns the session controller.
func (a *Application) Session() *service.SessionController { return a.session }

// Catalog returns the catalog service.
func (a *Application) Catalog() *service.CatalogService { return a.catalog }

// EventBus returns the event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// Store returns the session store.
func (a *Application) Store() ports.KeyValueStore { return a.store }

// Config returns the configuration the application was built from.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Shutdown gracefully shuts down the application. Safe to call more than once.
// Persisted state is flushed and kept.
func (a *Application) Shutdown() error {
	var err error
	a.shutdownOnce.Do(func() {
		a.logger.Debug("shutting down application")

		// Shutdown services (in reverse order of creation)
		if a.catalog != nil {
			_ = a.catalog.Shutdown()
		}
		if a.session != nil {
			a.session.Close()
		}
		if a.persister != nil {
			a.persister.Close()
		}

		err = a.closeAll()
		_ = a.eventBus.Close()

		a.logger.Debug("application shutdown complete")
	})
	return err
}

func (a *Application) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to release resource", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

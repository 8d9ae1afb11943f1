package app

import (
	"context"
	"fmt"
	"time"

	"github.com/storeadmin/blocklayer/internal/app/blocks"
	"github.com/storeadmin/blocklayer/internal/app/registry"
	"github.com/storeadmin/blocklayer/internal/app/services/layouts"
	pagesvc "github.com/storeadmin/blocklayer/internal/app/services/pages"
	sessionsvc "github.com/storeadmin/blocklayer/internal/app/services/sessions"
	"github.com/storeadmin/blocklayer/internal/app/storage"
	"github.com/storeadmin/blocklayer/internal/app/storage/memory"
	"github.com/storeadmin/blocklayer/internal/app/system"
	"github.com/storeadmin/blocklayer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Settings storage.SettingsStore
	Pages    storage.PageStore
	Stats    storage.StatsStore
}

// Options tunes optional application behaviour.
type Options struct {
	// RenderCache caches storefront page renders; nil disables caching.
	RenderCache pagesvc.RenderCache
	// DashboardExtensions and StorefrontExtensions are appended to the core
	// block sets at registry build time.
	DashboardExtensions  []registry.Entry
	StorefrontExtensions []registry.Entry
	// SessionReapInterval overrides how often expired edit sessions are
	// dropped.
	SessionReapInterval time.Duration
}

// Application ties the block registries and domain services together and
// manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Dashboard  *registry.Registry
	Storefront *registry.Registry
	Layouts    *layouts.Service
	Pages      *pagesvc.Service
	Sessions   *sessionsvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Settings == nil {
		stores.Settings = mem
	}
	if stores.Pages == nil {
		stores.Pages = mem
	}
	if stores.Stats == nil {
		stores.Stats = mem
	}

	dashboard := blocks.NewDashboardRegistry(log, opts.DashboardExtensions...)
	storefront := blocks.NewStorefrontRegistry(log, opts.StorefrontExtensions...)

	layoutService := layouts.New(stores.Settings, stores.Stats, log)
	pageService := pagesvc.New(stores.Pages, storefront, opts.RenderCache, log)
	sessionService := sessionsvc.New(layoutService, dashboard, log)

	manager := system.NewManager()
	reaper := sessionsvc.NewReaper(sessionService, opts.SessionReapInterval, log)
	if err := manager.Register(reaper); err != nil {
		return nil, fmt.Errorf("register %s: %w", reaper.Name(), err)
	}

	return &Application{
		manager:    manager,
		log:        log,
		Dashboard:  dashboard,
		Storefront: storefront,
		Layouts:    layoutService,
		Pages:      pageService,
		Sessions:   sessionService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}

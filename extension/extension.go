// Package extension provides a Forge extension entry point for tenancy.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/api"
	"github.com/xraph/tenancy/cache"
	"github.com/xraph/tenancy/lookup"
	"github.com/xraph/tenancy/plugin"
	"github.com/xraph/tenancy/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "tenancy"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Multi-tenant identity: tenants, lifecycle, memberships and tenant-scoped roles"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the tenancy Manager as a Forge extension.
type Extension struct {
	config      Config
	mgr         *tenancy.Manager
	apiHandler  *api.API
	logger      *slog.Logger
	cache       tenancy.Cache
	managerOpts []tenancy.Option
	plugins     []plugin.Plugin
}

// New creates a tenancy Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Manager returns the underlying tenancy Manager.
func (e *Extension) Manager() *tenancy.Manager { return e.mgr }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It builds the Manager, registers
// it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*tenancy.Manager, error) {
		return e.mgr, nil
	}); err != nil {
		return fmt.Errorf("tenancy: register manager in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := make([]tenancy.Option, 0, len(e.managerOpts)+len(e.plugins)+3)
	opts = append(opts, tenancy.WithLogger(logger), tenancy.WithConfig(e.config.managerConfig()))

	// Try to resolve store from DI container, fall back to option-provided store.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, tenancy.WithStore(s))
	}

	switch {
	case e.cache != nil:
		opts = append(opts, tenancy.WithCache(e.cache))
	case e.config.CacheTTL > 0:
		opts = append(opts, tenancy.WithCache(cache.NewMemory(cache.WithTTL(e.config.CacheTTL))))
	}

	// User-provided options may override the store.
	opts = append(opts, e.managerOpts...)

	for _, x := range e.plugins {
		opts = append(opts, tenancy.WithPlugin(x))
	}

	mgr, err := tenancy.NewManager(opts...)
	if err != nil {
		return fmt.Errorf("tenancy: create manager: %w", err)
	}
	e.mgr = mgr

	var apiOpts []api.Option
	if !e.config.DisableLookup {
		countries, err := lookup.DefaultCountries()
		if err != nil {
			return fmt.Errorf("tenancy: load countries: %w", err)
		}
		currencies, err := lookup.DefaultCurrencies()
		if err != nil {
			return fmt.Errorf("tenancy: load currencies: %w", err)
		}
		apiOpts = append(apiOpts, api.WithCountries(countries), api.WithCurrencies(currencies))
	}
	if e.config.RequireMembership {
		apiOpts = append(apiOpts, api.WithMembershipGates())
	}

	router := fapp.Router()
	if e.config.BasePath != "" {
		router = router.Group(e.config.BasePath)
	}
	e.apiHandler = api.New(mgr, router, apiOpts...)

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(router); err != nil {
			return fmt.Errorf("tenancy: register routes: %w", err)
		}
	}

	return nil
}

// Start runs migrations if enabled, seeds the system roles and starts the
// Manager.
func (e *Extension) Start(ctx context.Context) error {
	if e.mgr == nil {
		return errors.New("tenancy: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.mgr.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("tenancy: migration failed: %w", err)
		}
	}

	if e.config.SeedSystemRoles {
		if err := e.mgr.EnsureSystemRoles(ctx); err != nil {
			return fmt.Errorf("tenancy: seed system roles: %w", err)
		}
	}

	return e.mgr.Start(ctx)
}

// Stop gracefully shuts down the Manager.
func (e *Extension) Stop(ctx context.Context) error {
	if e.mgr == nil {
		return nil
	}
	return e.mgr.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.mgr == nil {
		return errors.New("tenancy: extension not initialized")
	}
	return e.mgr.Store().Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all tenancy API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}

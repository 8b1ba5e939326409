// Package api provides HTTP handlers for the tenancy Manager.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/lookup"
	"github.com/xraph/tenancy/middleware"
)

// API wires all tenancy HTTP handlers together.
type API struct {
	mgr        *tenancy.Manager
	router     forge.Router
	countries  *lookup.Countries
	currencies *lookup.Currencies
	gated      bool
	mounted    bool
}

// Option configures an API.
type Option func(*API)

// WithCountries serves the country table under /v1/lookup/countries.
func WithCountries(t *lookup.Countries) Option { return func(a *API) { a.countries = t } }

// WithCurrencies serves the currency table under /v1/lookup/currencies.
func WithCurrencies(t *lookup.Currencies) Option { return func(a *API) { a.currencies = t } }

// WithMembershipGates restricts member routes to members of the tenant
// (reads) and its owners (writes). The acting user comes from the request
// context, set by tenancy.WithUser or a Forge auth extension.
func WithMembershipGates() Option { return func(a *API) { a.gated = true } }

// New creates an API from a Manager and a Forge router.
func New(mgr *tenancy.Manager, router forge.Router, opts ...Option) *API {
	a := &API{mgr: mgr, router: router}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the fully assembled http.Handler with all routes. Routes
// already registered on the API's own router are not registered again.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if !a.mounted {
		if err := a.RegisterRoutes(a.router); err != nil {
			panic("tenancy: register routes: " + err.Error())
		}
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerTenantRoutes,
		a.registerMemberRoutes,
		a.registerUserRoutes,
		a.registerRoleRoutes,
		a.registerLookupRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	if router == a.router {
		a.mounted = true
	}
	return nil
}

// tenantGroup returns the options of a route group that resolves the active
// tenant and, when gates are enabled, applies gate.
func (a *API) tenantGroup(tag string, gate func(*tenancy.Manager) forge.Middleware) []forge.GroupOption {
	mw := []forge.Middleware{middleware.ResolveTenant()}
	if a.gated && gate != nil {
		mw = append(mw, gate(a.mgr))
	}
	return []forge.GroupOption{forge.WithGroupTags(tag), forge.WithGroupMiddleware(mw...)}
}

package extension

import (
	"log/slog"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/plugin"
	"github.com/xraph/tenancy/store"
)

// ExtOption configures the tenancy Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.managerOpts = append(e.managerOpts, tenancy.WithStore(s))
	}
}

// WithCache sets the membership cache, replacing the in-memory default.
func WithCache(c tenancy.Cache) ExtOption {
	return func(e *Extension) {
		e.cache = c
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithManagerOptions adds manager-level options.
func WithManagerOptions(opts ...tenancy.Option) ExtOption {
	return func(e *Extension) {
		e.managerOpts = append(e.managerOpts, opts...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}

// WithMembershipGates restricts member routes to members and owners of the
// tenant.
func WithMembershipGates() ExtOption {
	return func(e *Extension) {
		e.config.RequireMembership = true
	}
}

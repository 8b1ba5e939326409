package tenancy

import (
	"log/slog"
	"time"

	"github.com/xraph/tenancy/plugin"
	"github.com/xraph/tenancy/store"
)

// Option is a functional option for the Manager.
type Option func(*Manager)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(m *Manager) { m.store = s } }

// WithCache sets the membership cache.
func WithCache(c Cache) Option { return func(m *Manager) { m.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// WithConfig sets the manager configuration.
func WithConfig(c Config) Option { return func(m *Manager) { m.config = c } }

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithPlugin registers a plugin with the manager.
func WithPlugin(x plugin.Plugin) Option {
	return func(m *Manager) {
		if m.plugins == nil {
			m.plugins = plugin.NewRegistry(m.logger)
		}
		m.plugins.Register(x)
	}
}

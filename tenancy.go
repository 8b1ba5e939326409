// Package tenancy manages tenants, their members and the roles members hold
// inside them.
//
// Tenants move through a small lifecycle (new, pending, active, inactive,
// removing, removed) gated by the predicates in package tenant. Roles are
// either system roles or tenant roles encoded as "tenant#label" (package
// role). Users join tenants through memberships and receive tenant roles
// through grants (package membership). Every listing goes through the shared
// filter, sort and paginate pipeline in package listquery.
//
//	mgr, err := tenancy.NewManager(
//	    tenancy.WithStore(memory.New()),
//	)
//	t, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: "acme", Name: "Acme"})
//	_, err = mgr.AddUserToTenant(ctx, userID, "acme")
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/plugin"
	"github.com/xraph/tenancy/store"
)

// Manager is the entry point of tenancy. It validates input, enforces the
// tenant lifecycle and membership rules, keeps the membership cache in
// sync, and fires plugin hooks.
type Manager struct {
	store   store.Store
	cache   Cache
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config
	now     func() time.Time
}

// NewManager creates a new Manager with the given options.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		logger: slog.Default(),
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		return nil, ErrNoStore
	}
	if m.plugins == nil {
		m.plugins = plugin.NewRegistry(m.logger)
	}
	return m, nil
}

// Store returns the underlying composite store.
func (m *Manager) Store() store.Store { return m.store }

// Plugins returns the plugin registry.
func (m *Manager) Plugins() *plugin.Registry { return m.plugins }

// Config returns the manager configuration.
func (m *Manager) Config() Config { return m.config }

// Start verifies that the store is reachable.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.store.Ping(ctx); err != nil {
		return fmt.Errorf("tenancy: ping store: %w", err)
	}
	return nil
}

// Stop notifies plugins of shutdown.
func (m *Manager) Stop(ctx context.Context) error {
	m.plugins.EmitShutdown(ctx)
	return nil
}

// MemberOutcome is the per-user result of a bulk membership operation.
// Err is nil when the user was added.
type MemberOutcome struct {
	Email      string                 `json:"email"`
	UserID     id.UserID              `json:"user_id,omitempty"`
	Membership *membership.UserTenant `json:"membership,omitempty"`
	Err        error                  `json:"-"`
}

// OK reports whether the user was added.
func (o MemberOutcome) OK() bool { return o.Err == nil }

func (m *Manager) timestamp() time.Time { return m.now().UTC() }

func newStamp() string { return uuid.NewString() }

// translate maps store errors onto the package sentinels while keeping the
// original error in the chain.
func translate(err, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %w", notFound, err)
	case duplicate != nil && errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %w", duplicate, err)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
	}
	return err
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

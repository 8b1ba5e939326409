package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/tenant"
)

// CreateTenant registers a new tenant in state New. Only the descriptive
// fields of t are used; the manager assigns state, stamp and timestamps.
func (m *Manager) CreateTenant(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tenantID := tenant.NormalizeID(t.ID)
	if err := tenant.ValidateID(tenantID); err != nil {
		return nil, invalid(err)
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tenant name is required", ErrValidation)
	}

	now := m.timestamp()
	created := &tenant.Tenant{
		ID:               tenantID,
		State:            tenant.StateNew,
		Name:             name,
		Description:      t.Description,
		Remark:           t.Remark,
		Picture:          t.Picture,
		DatabaseProvider: t.DatabaseProvider,
		ConnectionString: t.ConnectionString,
		ConcurrencyStamp: newStamp(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	created.BuildSearchIndex()

	if err := m.store.CreateTenant(ctx, created); err != nil {
		return nil, translate(err, nil, ErrDuplicateTenant)
	}

	m.logger.Info("tenant created", slog.String("tenant", tenantID))
	m.plugins.EmitTenantCreated(ctx, created)
	return created, nil
}

// GetTenant returns a tenant by ID.
func (m *Manager) GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	t, err := m.store.GetTenant(ctx, tenant.NormalizeID(tenantID))
	if err != nil {
		return nil, translate(err, ErrTenantNotFound, nil)
	}
	return t, nil
}

// UpdateTenant persists the descriptive fields of t. t.ConcurrencyStamp must
// be the stamp the caller last read; a stale stamp yields
// ErrConcurrencyConflict and leaves the tenant unchanged. State is never
// changed here, use the lifecycle operations instead.
func (m *Manager) UpdateTenant(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	cur, err := m.GetTenant(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if !tenant.CanUpdate(cur.State) {
		return nil, fmt.Errorf("%w: update in state %s", ErrTransitionNotAllowed, cur.State)
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tenant name is required", ErrValidation)
	}

	updated := *cur
	updated.Name = name
	updated.Description = t.Description
	updated.Remark = t.Remark
	updated.Picture = t.Picture
	updated.DatabaseProvider = t.DatabaseProvider
	updated.ConnectionString = t.ConnectionString
	updated.ConcurrencyStamp = newStamp()
	updated.UpdatedAt = m.timestamp()
	updated.BuildSearchIndex()

	if err := m.store.UpdateTenant(ctx, &updated, t.ConcurrencyStamp); err != nil {
		return nil, translate(err, ErrTenantNotFound, nil)
	}

	m.plugins.EmitTenantUpdated(ctx, &updated)
	return &updated, nil
}

// Transition applies a lifecycle transition to a tenant. When the guard for
// the current state refuses, ErrTransitionNotAllowed is returned and the
// tenant is not modified.
func (m *Manager) Transition(ctx context.Context, tenantID string, tr tenant.Transition) (*tenant.Tenant, error) {
	cur, err := m.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	next, ok := tenant.Next(cur.State, tr)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %s", ErrTransitionNotAllowed, tr, cur.State)
	}

	from := cur.State
	updated := *cur
	updated.State = next
	updated.ConcurrencyStamp = newStamp()
	updated.UpdatedAt = m.timestamp()

	if err := m.store.UpdateTenant(ctx, &updated, cur.ConcurrencyStamp); err != nil {
		return nil, translate(err, ErrTenantNotFound, nil)
	}

	m.logger.Info("tenant state changed",
		slog.String("tenant", updated.ID),
		slog.String("from", from.String()),
		slog.String("to", next.String()),
	)
	m.plugins.EmitTenantStateChanged(ctx, &updated, from)
	return &updated, nil
}

// SubmitTenant moves a New or Inactive tenant to Pending.
func (m *Manager) SubmitTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	return m.Transition(ctx, tenantID, tenant.TransitionSubmit)
}

// EnableTenant moves a Pending or Inactive tenant to Active.
func (m *Manager) EnableTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	return m.Transition(ctx, tenantID, tenant.TransitionEnable)
}

// DisableTenant moves an Active tenant to Inactive.
func (m *Manager) DisableTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	return m.Transition(ctx, tenantID, tenant.TransitionDisable)
}

// BeginTenantRemoval moves a New or Inactive tenant to Removing.
func (m *Manager) BeginTenantRemoval(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	return m.Transition(ctx, tenantID, tenant.TransitionBeginRemoval)
}

// RemoveTenant moves a Removing tenant to Removed. The record is kept.
func (m *Manager) RemoveTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	return m.Transition(ctx, tenantID, tenant.TransitionRemove)
}

// CreateDefaultRoles materializes the default tenant roles (Owner, Manager,
// Contributer, Member, Guest) for an Active tenant. Roles that already exist
// are left alone, so the call can be repeated.
func (m *Manager) CreateDefaultRoles(ctx context.Context, tenantID string) ([]*role.Role, error) {
	t, err := m.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.CanCreateDefaults(t.State) {
		return nil, fmt.Errorf("%w: default roles in state %s", ErrTransitionNotAllowed, t.State)
	}

	defaults, err := role.DefaultTenantRoles(t.ID)
	if err != nil {
		return nil, invalid(err)
	}
	now := m.timestamp()
	out := make([]*role.Role, 0, len(defaults))
	for _, r := range defaults {
		r.CreatedAt = now
		err := m.store.CreateRole(ctx, r)
		switch {
		case err == nil:
			m.plugins.EmitRoleCreated(ctx, r)
			out = append(out, r)
		case errors.Is(err, store.ErrDuplicate):
			existing, gerr := m.store.GetRole(ctx, r.Name)
			if gerr != nil {
				return nil, translate(gerr, ErrRoleNotFound, nil)
			}
			out = append(out, existing)
		default:
			return nil, fmt.Errorf("create role %s: %w", r.Name, err)
		}
	}
	return out, nil
}

// ListTenants returns one page of tenants matching q. When states are given
// only tenants in those states are listed.
func (m *Manager) ListTenants(ctx context.Context, q listquery.Query, states ...tenant.State) (listquery.Result[*tenant.Tenant], error) {
	plan := listquery.Resolve(q, tenant.SortKeys)
	filter := &tenant.ListFilter{
		States: states,
		Search: plan.Search,
		SortBy: plan.Column,
	}

	total, err := m.store.CountTenants(ctx, filter)
	if err != nil {
		return listquery.Result[*tenant.Tenant]{}, fmt.Errorf("count tenants: %w", err)
	}

	filter.Limit = plan.Limit
	filter.Offset = plan.Offset
	items, err := m.store.ListTenants(ctx, filter)
	if err != nil {
		return listquery.Result[*tenant.Tenant]{}, fmt.Errorf("list tenants: %w", err)
	}

	return listquery.NewResult(q, listquery.NewPaginatedList(items, total, q.PageIndex())), nil
}

// ActiveTenants returns every Active tenant ordered by name.
func (m *Manager) ActiveTenants(ctx context.Context) ([]*tenant.Tenant, error) {
	items, err := m.store.ListTenants(ctx, &tenant.ListFilter{
		States: []tenant.State{tenant.StateActive},
		SortBy: tenant.SortKeys.Default().Column,
	})
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return items, nil
}

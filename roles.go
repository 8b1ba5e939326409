package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/tenant"
)

// CreateRole persists a role. The role is rebuilt from r.Name so that its
// tenant and label always agree with the name. A tenant role requires the
// tenant to exist.
func (m *Manager) CreateRole(ctx context.Context, r *role.Role) (*role.Role, error) {
	created, err := role.FromName(r.Name, r.Description)
	if err != nil {
		return nil, invalid(err)
	}
	if !created.IsSystem() {
		if _, err := m.GetTenant(ctx, created.TenantID); err != nil {
			return nil, err
		}
	}
	created.CreatedAt = m.timestamp()

	if err := m.store.CreateRole(ctx, created); err != nil {
		return nil, translate(err, nil, ErrDuplicateRole)
	}
	m.plugins.EmitRoleCreated(ctx, created)
	return created, nil
}

// GetRole returns a role by its composite name.
func (m *Manager) GetRole(ctx context.Context, name string) (*role.Role, error) {
	r, err := m.store.GetRole(ctx, name)
	if err != nil {
		return nil, translate(err, ErrRoleNotFound, nil)
	}
	return r, nil
}

// ListRoles returns the roles of a tenant, or the system roles when tenantID
// is empty.
func (m *Manager) ListRoles(ctx context.Context, tenantID string) ([]*role.Role, error) {
	filter := &role.ListFilter{SystemOnly: true}
	if tenantID != "" {
		filter = &role.ListFilter{TenantID: tenant.NormalizeID(tenantID)}
	}
	roles, err := m.store.ListRoles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// EnsureSystemRoles creates the built-in system roles that do not exist yet.
func (m *Manager) EnsureSystemRoles(ctx context.Context) error {
	for _, r := range role.SystemRoles() {
		r.CreatedAt = m.timestamp()
		err := m.store.CreateRole(ctx, r)
		if err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("create system role %s: %w", r.Name, err)
		}
		if err == nil {
			m.plugins.EmitRoleCreated(ctx, r)
		}
	}
	return nil
}

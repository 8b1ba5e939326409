// Package plugin defines the plugin system for tenancy.
// Plugins are notified of lifecycle events (tenant created, state changed,
// member added, role assigned, etc.) and can react with auditing, mail or
// provisioning of per-tenant resources.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Tenant lifecycle hooks
// ──────────────────────────────────────────────────

// TenantCreated is called after a tenant is created.
type TenantCreated interface {
	OnTenantCreated(ctx context.Context, t *tenant.Tenant) error
}

// TenantUpdated is called after a tenant's details are updated.
type TenantUpdated interface {
	OnTenantUpdated(ctx context.Context, t *tenant.Tenant) error
}

// TenantStateChanged is called after a tenant moves to another state.
type TenantStateChanged interface {
	OnTenantStateChanged(ctx context.Context, t *tenant.Tenant, from tenant.State) error
}

// ──────────────────────────────────────────────────
// Role and membership hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// MemberAdded is called after a user joins a tenant.
type MemberAdded interface {
	OnMemberAdded(ctx context.Context, m *membership.UserTenant) error
}

// MemberRemoved is called after a user leaves a tenant.
type MemberRemoved interface {
	OnMemberRemoved(ctx context.Context, userID id.UserID, tenantID string) error
}

// RoleAssigned is called after a role is granted to a user.
type RoleAssigned interface {
	OnRoleAssigned(ctx context.Context, ur *membership.UserRole) error
}

// RoleUnassigned is called after a role is revoked from a user.
type RoleUnassigned interface {
	OnRoleUnassigned(ctx context.Context, ur *membership.UserRole) error
}

// ──────────────────────────────────────────────────
// User hooks
// ──────────────────────────────────────────────────

// UserCreated is called after a user is created.
type UserCreated interface {
	OnUserCreated(ctx context.Context, u *user.User) error
}

// UserUpdated is called after a user update is committed.
type UserUpdated interface {
	OnUserUpdated(ctx context.Context, u *user.User) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}

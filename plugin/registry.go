package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

// entry pairs a hook with the plugin name for logging.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered plugins and dispatches lifecycle events to
// them. Hooks are cached per event at registration time.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	tenantCreated      []entry[TenantCreated]
	tenantUpdated      []entry[TenantUpdated]
	tenantStateChanged []entry[TenantStateChanged]
	roleCreated        []entry[RoleCreated]
	memberAdded        []entry[MemberAdded]
	memberRemoved      []entry[MemberRemoved]
	roleAssigned       []entry[RoleAssigned]
	roleUnassigned     []entry[RoleUnassigned]
	userCreated        []entry[UserCreated]
	userUpdated        []entry[UserUpdated]
	shutdown           []entry[Shutdown]
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(TenantCreated); ok {
		r.tenantCreated = append(r.tenantCreated, entry[TenantCreated]{name, h})
	}
	if h, ok := p.(TenantUpdated); ok {
		r.tenantUpdated = append(r.tenantUpdated, entry[TenantUpdated]{name, h})
	}
	if h, ok := p.(TenantStateChanged); ok {
		r.tenantStateChanged = append(r.tenantStateChanged, entry[TenantStateChanged]{name, h})
	}
	if h, ok := p.(RoleCreated); ok {
		r.roleCreated = append(r.roleCreated, entry[RoleCreated]{name, h})
	}
	if h, ok := p.(MemberAdded); ok {
		r.memberAdded = append(r.memberAdded, entry[MemberAdded]{name, h})
	}
	if h, ok := p.(MemberRemoved); ok {
		r.memberRemoved = append(r.memberRemoved, entry[MemberRemoved]{name, h})
	}
	if h, ok := p.(RoleAssigned); ok {
		r.roleAssigned = append(r.roleAssigned, entry[RoleAssigned]{name, h})
	}
	if h, ok := p.(RoleUnassigned); ok {
		r.roleUnassigned = append(r.roleUnassigned, entry[RoleUnassigned]{name, h})
	}
	if h, ok := p.(UserCreated); ok {
		r.userCreated = append(r.userCreated, entry[UserCreated]{name, h})
	}
	if h, ok := p.(UserUpdated); ok {
		r.userUpdated = append(r.userUpdated, entry[UserUpdated]{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, entry[Shutdown]{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Tenant event emitters
// ──────────────────────────────────────────────────

// EmitTenantCreated notifies all plugins that implement TenantCreated.
func (r *Registry) EmitTenantCreated(ctx context.Context, t *tenant.Tenant) {
	for _, e := range r.tenantCreated {
		if err := e.hook.OnTenantCreated(ctx, t); err != nil {
			r.logHookError("OnTenantCreated", e.name, err)
		}
	}
}

// EmitTenantUpdated notifies all plugins that implement TenantUpdated.
func (r *Registry) EmitTenantUpdated(ctx context.Context, t *tenant.Tenant) {
	for _, e := range r.tenantUpdated {
		if err := e.hook.OnTenantUpdated(ctx, t); err != nil {
			r.logHookError("OnTenantUpdated", e.name, err)
		}
	}
}

// EmitTenantStateChanged notifies all plugins that implement TenantStateChanged.
func (r *Registry) EmitTenantStateChanged(ctx context.Context, t *tenant.Tenant, from tenant.State) {
	for _, e := range r.tenantStateChanged {
		if err := e.hook.OnTenantStateChanged(ctx, t, from); err != nil {
			r.logHookError("OnTenantStateChanged", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Role and membership event emitters
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleCreated {
		if err := e.hook.OnRoleCreated(ctx, rl); err != nil {
			r.logHookError("OnRoleCreated", e.name, err)
		}
	}
}

// EmitMemberAdded notifies all plugins that implement MemberAdded.
func (r *Registry) EmitMemberAdded(ctx context.Context, m *membership.UserTenant) {
	for _, e := range r.memberAdded {
		if err := e.hook.OnMemberAdded(ctx, m); err != nil {
			r.logHookError("OnMemberAdded", e.name, err)
		}
	}
}

// EmitMemberRemoved notifies all plugins that implement MemberRemoved.
func (r *Registry) EmitMemberRemoved(ctx context.Context, userID id.UserID, tenantID string) {
	for _, e := range r.memberRemoved {
		if err := e.hook.OnMemberRemoved(ctx, userID, tenantID); err != nil {
			r.logHookError("OnMemberRemoved", e.name, err)
		}
	}
}

// EmitRoleAssigned notifies all plugins that implement RoleAssigned.
func (r *Registry) EmitRoleAssigned(ctx context.Context, ur *membership.UserRole) {
	for _, e := range r.roleAssigned {
		if err := e.hook.OnRoleAssigned(ctx, ur); err != nil {
			r.logHookError("OnRoleAssigned", e.name, err)
		}
	}
}

// EmitRoleUnassigned notifies all plugins that implement RoleUnassigned.
func (r *Registry) EmitRoleUnassigned(ctx context.Context, ur *membership.UserRole) {
	for _, e := range r.roleUnassigned {
		if err := e.hook.OnRoleUnassigned(ctx, ur); err != nil {
			r.logHookError("OnRoleUnassigned", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// User event emitters
// ──────────────────────────────────────────────────

// EmitUserCreated notifies all plugins that implement UserCreated.
func (r *Registry) EmitUserCreated(ctx context.Context, u *user.User) {
	for _, e := range r.userCreated {
		if err := e.hook.OnUserCreated(ctx, u); err != nil {
			r.logHookError("OnUserCreated", e.name, err)
		}
	}
}

// EmitUserUpdated notifies all plugins that implement UserUpdated.
func (r *Registry) EmitUserUpdated(ctx context.Context, u *user.User) {
	for _, e := range r.userUpdated {
		if err := e.hook.OnUserUpdated(ctx, u); err != nil {
			r.logHookError("OnUserUpdated", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated to the caller.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}

package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

// AddUserToTenant makes a user a member of a tenant. Adding an existing
// member returns the existing membership.
func (m *Manager) AddUserToTenant(ctx context.Context, userID id.UserID, tenantID string) (*membership.UserTenant, error) {
	t, err := m.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := m.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	existing, err := m.store.GetMembership(ctx, userID, t.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get membership: %w", err)
	}

	now := m.timestamp()
	mt := &membership.UserTenant{
		ID:               id.NewMembershipID(),
		UserID:           userID,
		TenantID:         t.ID,
		ConcurrencyStamp: newStamp(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := m.store.CreateMembership(ctx, mt); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a race with a concurrent add.
			return m.getMembership(ctx, userID, t.ID)
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}

	m.invalidate(ctx, userID)
	m.logger.Info("member added", slog.String("tenant", t.ID), slog.String("user", userID.String()))
	m.plugins.EmitMemberAdded(ctx, mt)
	return mt, nil
}

// RemoveUserFromTenant removes a user from a tenant together with every role
// the user holds in that tenant. Roles and memberships in other tenants are
// untouched. Removing the only Owner fails with ErrLastOwner unless
// last-owner protection is disabled.
func (m *Manager) RemoveUserFromTenant(ctx context.Context, userID id.UserID, tenantID string) error {
	t, err := m.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if _, err := m.getMembership(ctx, userID, t.ID); err != nil {
		return err
	}
	if err := m.guardLastOwner(ctx, userID, t.ID); err != nil {
		return err
	}

	if err := m.store.DeleteMembership(ctx, userID, t.ID); err != nil {
		return translate(err, ErrMembershipNotFound, nil)
	}

	m.invalidate(ctx, userID)
	m.logger.Info("member removed", slog.String("tenant", t.ID), slog.String("user", userID.String()))
	m.plugins.EmitMemberRemoved(ctx, userID, t.ID)
	return nil
}

// GetMembership returns the membership of a user in a tenant.
func (m *Manager) GetMembership(ctx context.Context, userID id.UserID, tenantID string) (*membership.UserTenant, error) {
	return m.getMembership(ctx, userID, tenant.NormalizeID(tenantID))
}

// UpdateMemberRemark sets the free-text remark of a membership. stamp must
// be the membership's current concurrency stamp.
func (m *Manager) UpdateMemberRemark(ctx context.Context, userID id.UserID, tenantID, remark, stamp string) (*membership.UserTenant, error) {
	cur, err := m.GetMembership(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}
	updated := *cur
	updated.Remark = strings.TrimSpace(remark)
	updated.ConcurrencyStamp = newStamp()
	updated.UpdatedAt = m.timestamp()

	if err := m.store.UpdateMembership(ctx, &updated, stamp); err != nil {
		return nil, translate(err, ErrMembershipNotFound, nil)
	}
	return &updated, nil
}

// TenantsForUser returns the names of the tenants a user belongs to,
// ordered by name. Removed tenants are skipped.
func (m *Manager) TenantsForUser(ctx context.Context, userID id.UserID) ([]string, error) {
	tenants, err := m.ApplicationTenantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tenants))
	for i, t := range tenants {
		names[i] = t.Name
	}
	return names, nil
}

// ApplicationTenantsForUser returns the tenants a user belongs to, ordered
// by name. Removed tenants are skipped.
func (m *Manager) ApplicationTenantsForUser(ctx context.Context, userID id.UserID) ([]*tenant.Tenant, error) {
	ids, err := m.memberTenantIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*tenant.Tenant, 0, len(ids))
	for _, tid := range ids {
		t, err := m.store.GetTenant(ctx, tid)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get tenant %s: %w", tid, err)
		}
		if t.State == tenant.StateRemoved {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, tenant.SortKeys.Default().Compare)
	return out, nil
}

// UsersInTenant returns every member of a tenant ordered by e-mail. An
// unknown tenant has no members.
func (m *Manager) UsersInTenant(ctx context.Context, tenantID string) ([]*user.User, error) {
	ids, err := m.memberUserIDs(ctx, tenant.NormalizeID(tenantID))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*user.User{}, nil
	}
	users, err := m.store.ListUsers(ctx, &user.ListFilter{IDs: ids, SortBy: user.SortKeys.Default().Column})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListMembers returns one page of a tenant's members matching q.
func (m *Manager) ListMembers(ctx context.Context, tenantID string, q listquery.Query) (listquery.Result[*user.User], error) {
	t, err := m.GetTenant(ctx, tenantID)
	if err != nil {
		return listquery.Result[*user.User]{}, err
	}
	ids, err := m.memberUserIDs(ctx, t.ID)
	if err != nil {
		return listquery.Result[*user.User]{}, err
	}
	return m.listUsers(ctx, q, ids)
}

// IsUserInTenant reports whether a user is a member of a tenant. It is
// false for unknown users and tenants.
func (m *Manager) IsUserInTenant(ctx context.Context, userID id.UserID, tenantID string) (bool, error) {
	ids, err := m.memberTenantIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, tenant.NormalizeID(tenantID)), nil
}

// RolesForUser returns every role a user holds, system and tenant roles
// alike, ordered by tenant and label.
func (m *Manager) RolesForUser(ctx context.Context, userID id.UserID) ([]*role.Role, error) {
	grants, err := m.store.ListUserRoles(ctx, &membership.RoleFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	return m.rolesOf(ctx, grants)
}

// RolesForUserInTenant returns the system roles of a user plus the roles the
// user holds in one tenant.
func (m *Manager) RolesForUserInTenant(ctx context.Context, userID id.UserID, tenantID string) ([]*role.Role, error) {
	roles, err := m.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tid := tenant.NormalizeID(tenantID)
	return slices.DeleteFunc(roles, func(r *role.Role) bool {
		return !r.IsSystem() && r.TenantID != tid
	}), nil
}

// AssignRole grants a role to a user. A tenant role can only be granted to
// members of its tenant. Granting a role the user already holds is a no-op.
func (m *Manager) AssignRole(ctx context.Context, userID id.UserID, roleName string) (*membership.UserRole, error) {
	ur, err := membership.NewUserRole(userID, roleName)
	if err != nil {
		return nil, invalid(err)
	}
	if _, err := m.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := m.GetRole(ctx, ur.RoleName); err != nil {
		return nil, err
	}
	if ur.TenantID != "" {
		if _, err := m.store.GetMembership(ctx, userID, ur.TenantID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s in %s", ErrNotMember, userID, ur.TenantID)
			}
			return nil, fmt.Errorf("get membership: %w", err)
		}
	}

	ur.CreatedAt = m.timestamp()
	if err := m.store.AddUserRole(ctx, ur); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ur, nil
		}
		return nil, fmt.Errorf("add user role: %w", err)
	}
	m.plugins.EmitRoleAssigned(ctx, ur)
	return ur, nil
}

// UnassignRole revokes a role from a user. Revoking the Owner role from the
// only owner of a tenant fails with ErrLastOwner.
func (m *Manager) UnassignRole(ctx context.Context, userID id.UserID, roleName string) error {
	ur, err := membership.NewUserRole(userID, roleName)
	if err != nil {
		return invalid(err)
	}
	if ur.TenantID != "" && ur.Label == role.LabelOwner {
		if err := m.guardLastOwner(ctx, userID, ur.TenantID); err != nil {
			return err
		}
	}
	if err := m.store.RemoveUserRole(ctx, userID, ur.RoleName); err != nil {
		return translate(err, ErrRoleNotFound, nil)
	}
	m.plugins.EmitRoleUnassigned(ctx, ur)
	return nil
}

// SetMemberRole makes label the role of a member in a tenant. Every other
// tenant role the member holds is revoked, except Owner.
func (m *Manager) SetMemberRole(ctx context.Context, userID id.UserID, tenantID, label string) (*membership.UserRole, error) {
	roleName, err := role.EncodeTenantRole(tenantID, label)
	if err != nil {
		return nil, invalid(err)
	}
	granted, err := m.AssignRole(ctx, userID, roleName)
	if err != nil {
		return nil, err
	}

	held, err := m.store.ListUserRoles(ctx, &membership.RoleFilter{UserID: userID, TenantID: granted.TenantID})
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	for _, ur := range held {
		if ur.RoleName == granted.RoleName || ur.Label == role.LabelOwner {
			continue
		}
		if err := m.store.RemoveUserRole(ctx, userID, ur.RoleName); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("remove user role: %w", err)
		}
		m.plugins.EmitRoleUnassigned(ctx, ur)
	}
	return granted, nil
}

// AddUsersToTenant adds existing users, looked up by e-mail, to a tenant and
// gives each the role label (the configured default when empty). Failures
// for single users are reported in the outcomes; the error return is only
// set when the whole batch cannot run.
func (m *Manager) AddUsersToTenant(ctx context.Context, tenantID string, emails []string, label string) ([]MemberOutcome, error) {
	t, err := m.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if label == "" {
		label = m.config.defaultRole()
	}
	roleName, err := role.EncodeTenantRole(t.ID, label)
	if err != nil {
		return nil, invalid(err)
	}
	if _, err := m.GetRole(ctx, roleName); err != nil {
		return nil, err
	}

	out := make([]MemberOutcome, 0, len(emails))
	for _, email := range emails {
		o := MemberOutcome{Email: email}
		u, err := m.GetUserByEmail(ctx, email)
		if err != nil {
			o.Err = err
			out = append(out, o)
			continue
		}
		o.Email = u.Email
		o.UserID = u.ID
		if o.Membership, o.Err = m.AddUserToTenant(ctx, u.ID, t.ID); o.Err == nil {
			_, o.Err = m.SetMemberRole(ctx, u.ID, t.ID, label)
		}
		if o.Err != nil {
			m.logger.Warn("bulk add failed",
				slog.String("tenant", t.ID),
				slog.String("email", u.Email),
				slog.String("error", o.Err.Error()),
			)
		}
		out = append(out, o)
	}
	return out, nil
}

// IsTenantOwner reports whether a user holds the Owner role of a tenant.
func (m *Manager) IsTenantOwner(ctx context.Context, userID id.UserID, tenantID string) (bool, error) {
	owner, err := role.EncodeTenantRole(tenantID, role.LabelOwner)
	if err != nil {
		return false, invalid(err)
	}
	grants, err := m.store.ListUserRoles(ctx, &membership.RoleFilter{UserID: userID, RoleName: owner})
	if err != nil {
		return false, fmt.Errorf("list user roles: %w", err)
	}
	return len(grants) > 0, nil
}

// HasOtherOwners reports whether a tenant has an Owner other than userID.
func (m *Manager) HasOtherOwners(ctx context.Context, userID id.UserID, tenantID string) (bool, error) {
	owner, err := role.EncodeTenantRole(tenantID, role.LabelOwner)
	if err != nil {
		return false, invalid(err)
	}
	grants, err := m.store.ListUserRoles(ctx, &membership.RoleFilter{RoleName: owner})
	if err != nil {
		return false, fmt.Errorf("list user roles: %w", err)
	}
	for _, g := range grants {
		if g.UserID.String() != userID.String() {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) guardLastOwner(ctx context.Context, userID id.UserID, tenantID string) error {
	if !m.config.protectLastOwner() {
		return nil
	}
	isOwner, err := m.IsTenantOwner(ctx, userID, tenantID)
	if err != nil || !isOwner {
		return err
	}
	others, err := m.HasOtherOwners(ctx, userID, tenantID)
	if err != nil {
		return err
	}
	if !others {
		return fmt.Errorf("%w: %s", ErrLastOwner, tenantID)
	}
	return nil
}

func (m *Manager) getMembership(ctx context.Context, userID id.UserID, tenantID string) (*membership.UserTenant, error) {
	mt, err := m.store.GetMembership(ctx, userID, tenantID)
	if err != nil {
		return nil, translate(err, ErrMembershipNotFound, nil)
	}
	return mt, nil
}

// memberTenantIDs returns the tenant IDs of a user, through the cache when
// one is configured.
func (m *Manager) memberTenantIDs(ctx context.Context, userID id.UserID) ([]string, error) {
	if m.cache != nil {
		if ids, ok := m.cache.GetMemberships(ctx, userID); ok {
			return ids, nil
		}
	}
	ms, err := m.store.ListMemberships(ctx, &membership.ListFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	ids := make([]string, len(ms))
	for i, mt := range ms {
		ids[i] = mt.TenantID
	}
	if m.cache != nil {
		m.cache.SetMemberships(ctx, userID, ids)
	}
	return ids, nil
}

func (m *Manager) memberUserIDs(ctx context.Context, tenantID string) ([]id.UserID, error) {
	ms, err := m.store.ListMemberships(ctx, &membership.ListFilter{TenantID: tenantID})
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	ids := make([]id.UserID, len(ms))
	for i, mt := range ms {
		ids[i] = mt.UserID
	}
	return ids, nil
}

func (m *Manager) invalidate(ctx context.Context, userID id.UserID) {
	if m.cache != nil {
		m.cache.InvalidateUser(ctx, userID)
	}
}

func (m *Manager) rolesOf(ctx context.Context, grants []*membership.UserRole) ([]*role.Role, error) {
	if len(grants) == 0 {
		return []*role.Role{}, nil
	}
	names := make([]string, len(grants))
	for i, g := range grants {
		names[i] = g.RoleName
	}
	roles, err := m.store.ListRoles(ctx, &role.ListFilter{Names: names})
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	slices.SortFunc(roles, role.Compare)
	return roles, nil
}

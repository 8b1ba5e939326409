package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/store"
)

const membershipColumns = `id, user_id, tenant_id, remark, concurrency_stamp, created_at, updated_at`

func scanMembership(row pgx.Row) (*membership.UserTenant, error) {
	var m membership.UserTenant
	if err := row.Scan(&m.ID, &m.UserID, &m.TenantID, &m.Remark, &m.ConcurrencyStamp, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) CreateMembership(ctx context.Context, m *membership.UserTenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenancy_user_tenants (`+membershipColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID.String(), m.UserID.String(), m.TenantID, m.Remark, m.ConcurrencyStamp, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("membership %s|%s: %w", m.UserID, m.TenantID, store.ErrDuplicate)
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, userID id.UserID, tenantID string) (*membership.UserTenant, error) {
	m, err := scanMembership(s.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM tenancy_user_tenants WHERE user_id = $1 AND tenant_id = $2`,
		userID.String(), tenantID))
	if isNoRows(err) {
		return nil, fmt.Errorf("membership %s|%s: %w", userID, tenantID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (s *Store) UpdateMembership(ctx context.Context, m *membership.UserTenant, expectedStamp string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenancy_user_tenants SET remark = $2, concurrency_stamp = $3, updated_at = $4
		 WHERE id = $1 AND concurrency_stamp = $5`,
		m.ID.String(), m.Remark, m.ConcurrencyStamp, m.UpdatedAt, expectedStamp)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missOrConflict(ctx, "tenancy_user_tenants", "id", m.ID.String(), "membership")
	}
	return nil
}

// DeleteMembership removes the membership and the user's roles in that
// tenant in one transaction.
func (s *Store) DeleteMembership(ctx context.Context, userID id.UserID, tenantID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx,
		`DELETE FROM tenancy_user_tenants WHERE user_id = $1 AND tenant_id = $2`, userID.String(), tenantID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership %s|%s: %w", userID, tenantID, store.ErrNotFound)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM tenancy_user_roles WHERE user_id = $1 AND tenant_id = $2`, userID.String(), tenantID); err != nil {
		return fmt.Errorf("delete user roles: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.UserTenant, error) {
	w := membershipWhere(filter)
	q := `SELECT ` + membershipColumns + ` FROM tenancy_user_tenants` + w.String() + ` ORDER BY created_at, id`
	if filter != nil {
		q += w.page(filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, q, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	out := make([]*membership.UserTenant, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	w := membershipWhere(filter)
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenancy_user_tenants`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return n, nil
}

func membershipWhere(filter *membership.ListFilter) *where {
	w := &where{}
	if filter == nil {
		return w
	}
	if !filter.UserID.IsNil() {
		w.add("user_id = ?", filter.UserID.String())
	}
	if filter.TenantID != "" {
		w.add("tenant_id = ?", filter.TenantID)
	}
	return w
}

func (s *Store) AddUserRole(ctx context.Context, ur *membership.UserRole) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenancy_user_roles (user_id, role_name, tenant_id, label, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ur.UserID.String(), ur.RoleName, ur.TenantID, ur.Label, ur.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("user role %s|%s: %w", ur.UserID, ur.RoleName, store.ErrDuplicate)
		}
		return fmt.Errorf("add user role: %w", err)
	}
	return nil
}

func (s *Store) RemoveUserRole(ctx context.Context, userID id.UserID, roleName string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tenancy_user_roles WHERE user_id = $1 AND role_name = $2`, userID.String(), roleName)
	if err != nil {
		return fmt.Errorf("remove user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user role %s|%s: %w", userID, roleName, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUserRoles(ctx context.Context, filter *membership.RoleFilter) ([]*membership.UserRole, error) {
	w := &where{}
	if filter != nil {
		if !filter.UserID.IsNil() {
			w.add("user_id = ?", filter.UserID.String())
		}
		if filter.TenantID != "" {
			w.add("tenant_id = ?", filter.TenantID)
		}
		if filter.RoleName != "" {
			w.add("role_name = ?", filter.RoleName)
		}
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id, role_name, tenant_id, label, created_at FROM tenancy_user_roles`+
			w.String()+` ORDER BY role_name, user_id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	defer rows.Close()

	out := make([]*membership.UserRole, 0)
	for rows.Next() {
		var ur membership.UserRole
		if err := rows.Scan(&ur.UserID, &ur.RoleName, &ur.TenantID, &ur.Label, &ur.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		out = append(out, &ur)
	}
	return out, rows.Err()
}

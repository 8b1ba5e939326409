// Package sqlite implements the tenancy composite store on SQLite through
// the grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite tenancy store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("tenancy/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tenancy/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation matches SQLite's constraint error text, which is the
// same across the cgo and pure-Go drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

// ──────────────────────────────────────────────────
// Tenant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	if _, err := s.sdb.NewInsert(tenantToModel(t)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tenant %s: %w", t.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: create tenant: %w", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	m := new(tenantModel)
	err := s.sdb.NewSelect(m).Where("id = ?", tenantID).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("tenant %s: %w", tenantID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("tenancy: get tenant: %w", err)
	}
	return tenantFromModel(m), nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant, expectedStamp string) error {
	res, err := s.sdb.NewUpdate(tenantToModel(t)).
		WherePK().
		Where("concurrency_stamp = ?", expectedStamp).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: update tenant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tenancy: update tenant rows: %w", err)
	}
	if n == 0 {
		if _, gerr := s.GetTenant(ctx, t.ID); gerr != nil {
			return gerr
		}
		return fmt.Errorf("tenant %s: %w", t.ID, store.ErrConflict)
	}
	return nil
}

func (s *Store) ListTenants(ctx context.Context, filter *tenant.ListFilter) ([]*tenant.Tenant, error) {
	var models []tenantModel
	column := tenant.SortKeys.Default().Column
	if filter != nil && tenant.SortKeys.HasColumn(filter.SortBy) {
		column = filter.SortBy
	}
	q := s.sdb.NewSelect(&models).OrderExpr(column + " ASC, id ASC")
	if filter != nil {
		if len(filter.States) > 0 {
			q = q.Where("state IN (?)", stateInts(filter.States))
		}
		if filter.Search != "" {
			q = q.Where(`search_index LIKE ? ESCAPE '\'`, likePattern(filter.Search))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tenancy: list tenants: %w", err)
	}
	result := make([]*tenant.Tenant, len(models))
	for i := range models {
		result[i] = tenantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountTenants(ctx context.Context, filter *tenant.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*tenantModel)(nil))
	if filter != nil {
		if len(filter.States) > 0 {
			q = q.Where("state IN (?)", stateInts(filter.States))
		}
		if filter.Search != "" {
			q = q.Where(`search_index LIKE ? ESCAPE '\'`, likePattern(filter.Search))
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenancy: count tenants: %w", err)
	}
	return count, nil
}

func stateInts(states []tenant.State) []int {
	out := make([]int, len(states))
	for i, st := range states {
		out[i] = int(st)
	}
	return out
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	if _, err := s.sdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("role %s: %w", r.Name, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, name string) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role %s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("tenancy: get role: %w", err)
	}
	return roleFromModel(m), nil
}

// DeleteRole removes a role and every grant of it.
func (s *Store) DeleteRole(ctx context.Context, name string) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("tenancy: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	res, err := tx.NewDelete((*roleModel)(nil)).Where("name = ?", name).Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: delete role: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("tenancy: delete role rows: %w", err)
	} else if n == 0 {
		return fmt.Errorf("role %s: %w", name, store.ErrNotFound)
	}
	if _, err := tx.NewDelete((*userRoleModel)(nil)).Where("role_name = ?", name).Exec(ctx); err != nil {
		return fmt.Errorf("tenancy: delete role grants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tenancy: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.sdb.NewSelect(&models).OrderExpr("tenant_id ASC, label ASC")
	if filter != nil {
		switch {
		case filter.TenantID != "":
			q = q.Where("tenant_id = ?", filter.TenantID)
		case filter.SystemOnly:
			q = q.Where("tenant_id = ''")
		}
		if len(filter.Names) > 0 {
			q = q.Where("name IN (?)", filter.Names)
		}
		if filter.Search != "" {
			q = q.Where(`LOWER(name || '~' || description) LIKE ? ESCAPE '\'`, likePattern(filter.Search))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tenancy: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// User operations
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if _, err := s.sdb.NewInsert(userToModel(u)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	return s.getUserBy(ctx, "id", userID.String())
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getUserBy(ctx, "email", email)
}

func (s *Store) getUserBy(ctx context.Context, column, value string) (*user.User, error) {
	m := new(userModel)
	err := s.sdb.NewSelect(m).Where(column+" = ?", value).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %s: %w", value, store.ErrNotFound)
		}
		return nil, fmt.Errorf("tenancy: get user: %w", err)
	}
	return userFromModel(m), nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User, expectedStamp string) error {
	res, err := s.sdb.NewUpdate(userToModel(u)).
		WherePK().
		Where("concurrency_stamp = ?", expectedStamp).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tenancy: update user rows: %w", err)
	}
	if n == 0 {
		if _, gerr := s.GetUser(ctx, u.ID); gerr != nil {
			return gerr
		}
		return fmt.Errorf("user %s: %w", u.ID, store.ErrConflict)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter *user.ListFilter) ([]*user.User, error) {
	if filter != nil && filter.IDs != nil && len(filter.IDs) == 0 {
		return []*user.User{}, nil
	}
	var models []userModel
	column := user.SortKeys.Default().Column
	if filter != nil && user.SortKeys.HasColumn(filter.SortBy) {
		column = filter.SortBy
	}
	q := s.sdb.NewSelect(&models).OrderExpr(column + " ASC, email ASC")
	if filter != nil {
		if len(filter.IDs) > 0 {
			q = q.Where("id IN (?)", userIDStrings(filter.IDs))
		}
		if filter.Search != "" {
			q = q.Where(`search_index LIKE ? ESCAPE '\'`, likePattern(filter.Search))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tenancy: list users: %w", err)
	}
	result := make([]*user.User, len(models))
	for i := range models {
		result[i] = userFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountUsers(ctx context.Context, filter *user.ListFilter) (int64, error) {
	if filter != nil && filter.IDs != nil && len(filter.IDs) == 0 {
		return 0, nil
	}
	q := s.sdb.NewSelect((*userModel)(nil))
	if filter != nil {
		if len(filter.IDs) > 0 {
			q = q.Where("id IN (?)", userIDStrings(filter.IDs))
		}
		if filter.Search != "" {
			q = q.Where(`search_index LIKE ? ESCAPE '\'`, likePattern(filter.Search))
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenancy: count users: %w", err)
	}
	return count, nil
}

func userIDStrings(ids []id.UserID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.UserTenant) error {
	if _, err := s.sdb.NewInsert(userTenantToModel(m)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("membership %s|%s: %w", m.UserID, m.TenantID, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, userID id.UserID, tenantID string) (*membership.UserTenant, error) {
	m := new(userTenantModel)
	err := s.sdb.NewSelect(m).
		Where("user_id = ?", userID.String()).
		Where("tenant_id = ?", tenantID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("membership %s|%s: %w", userID, tenantID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("tenancy: get membership: %w", err)
	}
	return userTenantFromModel(m), nil
}

func (s *Store) UpdateMembership(ctx context.Context, m *membership.UserTenant, expectedStamp string) error {
	res, err := s.sdb.NewUpdate(userTenantToModel(m)).
		WherePK().
		Where("concurrency_stamp = ?", expectedStamp).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: update membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tenancy: update membership rows: %w", err)
	}
	if n == 0 {
		if _, gerr := s.GetMembership(ctx, m.UserID, m.TenantID); gerr != nil {
			return gerr
		}
		return fmt.Errorf("membership %s: %w", m.ID, store.ErrConflict)
	}
	return nil
}

// DeleteMembership removes the membership and the user's roles in that
// tenant in one transaction.
func (s *Store) DeleteMembership(ctx context.Context, userID id.UserID, tenantID string) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("tenancy: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	res, err := tx.NewDelete((*userTenantModel)(nil)).
		Where("user_id = ?", userID.String()).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: delete membership: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("tenancy: delete membership rows: %w", err)
	} else if n == 0 {
		return fmt.Errorf("membership %s|%s: %w", userID, tenantID, store.ErrNotFound)
	}

	_, err = tx.NewDelete((*userRoleModel)(nil)).
		Where("user_id = ?", userID.String()).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: delete user roles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tenancy: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.UserTenant, error) {
	var models []userTenantModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	if filter != nil {
		if !filter.UserID.IsNil() {
			q = q.Where("user_id = ?", filter.UserID.String())
		}
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tenancy: list memberships: %w", err)
	}
	result := make([]*membership.UserTenant, len(models))
	for i := range models {
		result[i] = userTenantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*userTenantModel)(nil))
	if filter != nil {
		if !filter.UserID.IsNil() {
			q = q.Where("user_id = ?", filter.UserID.String())
		}
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenancy: count memberships: %w", err)
	}
	return count, nil
}

func (s *Store) AddUserRole(ctx context.Context, ur *membership.UserRole) error {
	if _, err := s.sdb.NewInsert(userRoleToModel(ur)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user role %s|%s: %w", ur.UserID, ur.RoleName, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: add user role: %w", err)
	}
	return nil
}

func (s *Store) RemoveUserRole(ctx context.Context, userID id.UserID, roleName string) error {
	res, err := s.sdb.NewDelete((*userRoleModel)(nil)).
		Where("user_id = ?", userID.String()).
		Where("role_name = ?", roleName).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: remove user role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tenancy: remove user role rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user role %s|%s: %w", userID, roleName, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUserRoles(ctx context.Context, filter *membership.RoleFilter) ([]*membership.UserRole, error) {
	var models []userRoleModel
	q := s.sdb.NewSelect(&models).OrderExpr("role_name ASC, user_id ASC")
	if filter != nil {
		if !filter.UserID.IsNil() {
			q = q.Where("user_id = ?", filter.UserID.String())
		}
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.RoleName != "" {
			q = q.Where("role_name = ?", filter.RoleName)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tenancy: list user roles: %w", err)
	}
	result := make([]*membership.UserRole, len(models))
	for i := range models {
		result[i] = userRoleFromModel(&models[i])
	}
	return result, nil
}

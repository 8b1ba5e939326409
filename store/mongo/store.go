// Package mongo implements the tenancy composite store on MongoDB through
// the grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

// Collection name constants.
const (
	colTenants     = "tenancy_tenants"
	colRoles       = "tenancy_roles"
	colUsers       = "tenancy_users"
	colUserTenants = "tenancy_user_tenants"
	colUserRoles   = "tenancy_user_roles"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite tenancy store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all tenancy collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("tenancy/mongo: migrate %s indexes: %w", col, err)
		}
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

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all tenancy collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colTenants: {
			{Keys: bson.D{{Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		colRoles: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "label", Value: 1}}},
		},
		colUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colUserTenants: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "tenant_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		},
		colUserRoles: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "role_name", Value: 1}}},
		},
	}
}

// containsFilter matches a lowercase substring of field.
func containsFilter(search string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(strings.ToLower(search))}
}

// guardedMiss tells a missing document from a stale stamp after a guarded
// update matched nothing.
func (s *Store) guardedMiss(ctx context.Context, model any, key, entity string) error {
	n, err := s.mdb.NewFind(model).Filter(bson.M{"_id": key}).Count(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: check %s: %w", entity, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, key, store.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", entity, key, store.ErrConflict)
}

// ──────────────────────────────────────────────────
// Tenant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	if _, err := s.mdb.NewInsert(tenantToModel(t)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("tenant %s: %w", t.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: create tenant: %w", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	var m tenantModel
	err := s.mdb.NewFind(&m).Filter(bson.M{"_id": tenantID}).Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("tenant %s: %w", tenantID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("tenancy: get tenant: %w", err)
	}
	return tenantFromModel(&m), nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant, expectedStamp string) error {
	m := tenantToModel(t)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID, "concurrency_stamp": expectedStamp}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: update tenant: %w", err)
	}
	if res.MatchedCount() == 0 {
		return s.guardedMiss(ctx, (*tenantModel)(nil), m.ID, "tenant")
	}
	return nil
}

func (s *Store) ListTenants(ctx context.Context, filter *tenant.ListFilter) ([]*tenant.Tenant, error) {
	var models []tenantModel
	column := tenant.SortKeys.Default().Column
	if filter != nil && tenant.SortKeys.HasColumn(filter.SortBy) {
		column = filter.SortBy
	}
	if column == "id" {
		column = "_id"
	}
	q := s.mdb.NewFind(&models).
		Filter(tenantFilter(filter)).
		Sort(bson.D{{Key: column, Value: 1}, {Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*tenantModel)(nil)).
		Filter(tenantFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenancy: count tenants: %w", err)
	}
	return count, nil
}

func tenantFilter(filter *tenant.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if len(filter.States) > 0 {
		states := make([]int, len(filter.States))
		for i, st := range filter.States {
			states[i] = int(st)
		}
		f["state"] = bson.M{"$in": states}
	}
	if filter.Search != "" {
		f["search_index"] = containsFilter(filter.Search)
	}
	return f
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	if _, err := s.mdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("role %s: %w", r.Name, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, name string) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).Filter(bson.M{"_id": name}).Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("tenancy: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

// DeleteRole removes a role, then every grant of it.
func (s *Store) DeleteRole(ctx context.Context, name string) error {
	res, err := s.mdb.NewDelete((*roleModel)(nil)).
		Filter(bson.M{"_id": name}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: delete role: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("role %s: %w", name, store.ErrNotFound)
	}
	_, err = s.mdb.NewDelete((*userRoleModel)(nil)).
		Many().
		Filter(bson.M{"role_name": name}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: delete role grants: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	f := bson.M{}
	if filter != nil {
		switch {
		case filter.TenantID != "":
			f["tenant_id"] = filter.TenantID
		case filter.SystemOnly:
			f["tenant_id"] = ""
		}
		if len(filter.Names) > 0 {
			f["_id"] = bson.M{"$in": filter.Names}
		}
		if filter.Search != "" {
			f["search_index"] = containsFilter(filter.Search)
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "tenant_id", Value: 1}, {Key: "label", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	if _, err := s.mdb.NewInsert(userToModel(u)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	return s.getUserBy(ctx, bson.M{"_id": userID.String()}, userID.String())
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getUserBy(ctx, bson.M{"email": email}, email)
}

func (s *Store) getUserBy(ctx context.Context, f bson.M, key string) (*user.User, error) {
	var m userModel
	if err := s.mdb.NewFind(&m).Filter(f).Scan(ctx); err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("user %s: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("tenancy: get user: %w", err)
	}
	return userFromModel(&m), nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User, expectedStamp string) error {
	m := userToModel(u)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID, "concurrency_stamp": expectedStamp}).
		Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: update user: %w", err)
	}
	if res.MatchedCount() == 0 {
		return s.guardedMiss(ctx, (*userModel)(nil), m.ID, "user")
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter *user.ListFilter) ([]*user.User, error) {
	var models []userModel
	column := user.SortKeys.Default().Column
	if filter != nil && user.SortKeys.HasColumn(filter.SortBy) {
		column = filter.SortBy
	}
	q := s.mdb.NewFind(&models).
		Filter(userFilter(filter)).
		Sort(bson.D{{Key: column, Value: 1}, {Key: "email", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*userModel)(nil)).
		Filter(userFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenancy: count users: %w", err)
	}
	return count, nil
}

func userFilter(filter *user.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.IDs != nil {
		ids := make([]string, len(filter.IDs))
		for i, v := range filter.IDs {
			ids[i] = v.String()
		}
		f["_id"] = bson.M{"$in": ids}
	}
	if filter.Search != "" {
		f["search_index"] = containsFilter(filter.Search)
	}
	return f
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.UserTenant) error {
	if _, err := s.mdb.NewInsert(userTenantToModel(m)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("membership %s|%s: %w", m.UserID, m.TenantID, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, userID id.UserID, tenantID string) (*membership.UserTenant, error) {
	var m userTenantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"user_id": userID.String(), "tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("membership %s|%s: %w", userID, tenantID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("tenancy: get membership: %w", err)
	}
	return userTenantFromModel(&m), nil
}

func (s *Store) UpdateMembership(ctx context.Context, m *membership.UserTenant, expectedStamp string) error {
	model := userTenantToModel(m)
	res, err := s.mdb.NewUpdate(model).
		Filter(bson.M{"_id": model.ID, "concurrency_stamp": expectedStamp}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: update membership: %w", err)
	}
	if res.MatchedCount() == 0 {
		return s.guardedMiss(ctx, (*userTenantModel)(nil), model.ID, "membership")
	}
	return nil
}

// DeleteMembership removes the membership, then the user's roles in that
// tenant.
func (s *Store) DeleteMembership(ctx context.Context, userID id.UserID, tenantID string) error {
	uid := userID.String()
	res, err := s.mdb.NewDelete((*userTenantModel)(nil)).
		Filter(bson.M{"user_id": uid, "tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: delete membership: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("membership %s|%s: %w", uid, tenantID, store.ErrNotFound)
	}
	_, err = s.mdb.NewDelete((*userRoleModel)(nil)).
		Many().
		Filter(bson.M{"user_id": uid, "tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: delete user roles: %w", err)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.UserTenant, error) {
	var models []userTenantModel
	q := s.mdb.NewFind(&models).
		Filter(membershipFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*userTenantModel)(nil)).
		Filter(membershipFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenancy: count memberships: %w", err)
	}
	return count, nil
}

func membershipFilter(filter *membership.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if !filter.UserID.IsNil() {
		f["user_id"] = filter.UserID.String()
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	return f
}

func (s *Store) AddUserRole(ctx context.Context, ur *membership.UserRole) error {
	if _, err := s.mdb.NewInsert(userRoleToModel(ur)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("user role %s|%s: %w", ur.UserID, ur.RoleName, store.ErrDuplicate)
		}
		return fmt.Errorf("tenancy: add user role: %w", err)
	}
	return nil
}

func (s *Store) RemoveUserRole(ctx context.Context, userID id.UserID, roleName string) error {
	res, err := s.mdb.NewDelete((*userRoleModel)(nil)).
		Filter(bson.M{"_id": userRoleKey(userID.String(), roleName)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenancy: remove user role: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("user role %s|%s: %w", userID, roleName, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUserRoles(ctx context.Context, filter *membership.RoleFilter) ([]*membership.UserRole, error) {
	var models []userRoleModel
	f := bson.M{}
	if filter != nil {
		if !filter.UserID.IsNil() {
			f["user_id"] = filter.UserID.String()
		}
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.RoleName != "" {
			f["role_name"] = filter.RoleName
		}
	}
	if err := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "role_name", Value: 1}, {Key: "user_id", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("tenancy: list user roles: %w", err)
	}
	result := make([]*membership.UserRole, len(models))
	for i := range models {
		result[i] = userRoleFromModel(&models[i])
	}
	return result, nil
}

// Package memory provides an in-memory implementation of the tenancy
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

// Compile-time interface checks.
var (
	_ store.Store      = (*Store)(nil)
	_ tenant.Store     = (*Store)(nil)
	_ role.Store       = (*Store)(nil)
	_ user.Store       = (*Store)(nil)
	_ membership.Store = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all tenancy entities.
type Store struct {
	mu sync.RWMutex

	tenants     map[string]*tenant.Tenant
	roles       map[string]*role.Role
	users       map[string]*user.User
	memberships map[string]*membership.UserTenant // userID|tenantID -> row
	userRoles   map[string]*membership.UserRole   // userID|roleName -> row
	now         func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		tenants:     make(map[string]*tenant.Tenant),
		roles:       make(map[string]*role.Role),
		users:       make(map[string]*user.User),
		memberships: make(map[string]*membership.UserTenant),
		userRoles:   make(map[string]*membership.UserRole),
		now:         time.Now,
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Tenant Store
// ──────────────────────────────────────────────────

func (s *Store) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; ok {
		return fmt.Errorf("tenant %s: %w", t.ID, store.ErrDuplicate)
	}
	s.tenants[t.ID] = copyTenant(t)
	return nil
}

func (s *Store) GetTenant(_ context.Context, tenantID string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, store.ErrNotFound)
	}
	return copyTenant(t), nil
}

func (s *Store) UpdateTenant(_ context.Context, t *tenant.Tenant, expectedStamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tenants[t.ID]
	if !ok {
		return fmt.Errorf("tenant %s: %w", t.ID, store.ErrNotFound)
	}
	if cur.ConcurrencyStamp != expectedStamp {
		return fmt.Errorf("tenant %s: %w", t.ID, store.ErrConflict)
	}
	s.tenants[t.ID] = copyTenant(t)
	return nil
}

func (s *Store) ListTenants(_ context.Context, filter *tenant.ListFilter) ([]*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := s.matchTenants(filter)
	key := tenant.SortKeys.Default()
	if filter != nil {
		key = tenant.SortKeys.ByColumn(filter.SortBy)
	}
	slices.SortStableFunc(result, key.Compare)
	return applyPagination(result, limitOffset(filter)), nil
}

func (s *Store) CountTenants(_ context.Context, filter *tenant.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matchTenants(filter))), nil
}

func (s *Store) matchTenants(filter *tenant.ListFilter) []*tenant.Tenant {
	result := make([]*tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		if filter != nil {
			if !filter.HasState(t.State) {
				continue
			}
			if !listquery.Matches(t.SearchIndex, strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyTenant(t))
	}
	return result
}

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.Name]; ok {
		return fmt.Errorf("role %s: %w", r.Name, store.ErrDuplicate)
	}
	s.roles[r.Name] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, name string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", name, store.ErrNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) DeleteRole(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[name]; !ok {
		return fmt.Errorf("role %s: %w", name, store.ErrNotFound)
	}
	delete(s.roles, name)
	for k, ur := range s.userRoles {
		if ur.RoleName == name {
			delete(s.userRoles, k)
		}
	}
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter != nil {
			if filter.TenantID != "" && r.TenantID != filter.TenantID {
				continue
			}
			if filter.TenantID == "" && filter.SystemOnly && !r.IsSystem() {
				continue
			}
			if len(filter.Names) > 0 && !slices.Contains(filter.Names, r.Name) {
				continue
			}
			if !listquery.Matches(r.SearchIndex(), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyRole(r))
	}
	slices.SortFunc(result, role.Compare)
	var lo limitOffsetOpts
	if filter != nil {
		lo = limitOffsetOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return applyPagination(result, lo), nil
}

// ──────────────────────────────────────────────────
// User Store
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID.String()]; ok {
		return fmt.Errorf("user %s: %w", u.ID, store.ErrDuplicate)
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user email %q: %w", u.Email, store.ErrDuplicate)
		}
	}
	s.users[u.ID.String()] = copyUser(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID.String()]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user email %q: %w", email, store.ErrNotFound)
}

func (s *Store) UpdateUser(_ context.Context, u *user.User, expectedStamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID.String()]
	if !ok {
		return fmt.Errorf("user %s: %w", u.ID, store.ErrNotFound)
	}
	if cur.ConcurrencyStamp != expectedStamp {
		return fmt.Errorf("user %s: %w", u.ID, store.ErrConflict)
	}
	for _, other := range s.users {
		if other.ID.String() != u.ID.String() && other.Email == u.Email {
			return fmt.Errorf("user email %q: %w", u.Email, store.ErrDuplicate)
		}
	}
	s.users[u.ID.String()] = copyUser(u)
	return nil
}

func (s *Store) ListUsers(_ context.Context, filter *user.ListFilter) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := s.matchUsers(filter)
	key := user.SortKeys.Default()
	if filter != nil {
		key = user.SortKeys.ByColumn(filter.SortBy)
	}
	slices.SortStableFunc(result, key.Compare)
	var lo limitOffsetOpts
	if filter != nil {
		lo = limitOffsetOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return applyPagination(result, lo), nil
}

func (s *Store) CountUsers(_ context.Context, filter *user.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matchUsers(filter))), nil
}

func (s *Store) matchUsers(filter *user.ListFilter) []*user.User {
	result := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		if filter != nil {
			if filter.IDs != nil && !containsID(filter.IDs, u.ID) {
				continue
			}
			if !listquery.Matches(u.SearchIndex, strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyUser(u))
	}
	return result
}

// ──────────────────────────────────────────────────
// Membership Store
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(_ context.Context, m *membership.UserTenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey(m.UserID.String(), m.TenantID)
	if _, ok := s.memberships[k]; ok {
		return fmt.Errorf("membership %s: %w", k, store.ErrDuplicate)
	}
	s.memberships[k] = copyMembership(m)
	return nil
}

func (s *Store) GetMembership(_ context.Context, userID id.UserID, tenantID string) (*membership.UserTenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k := pairKey(userID.String(), tenantID)
	m, ok := s.memberships[k]
	if !ok {
		return nil, fmt.Errorf("membership %s: %w", k, store.ErrNotFound)
	}
	return copyMembership(m), nil
}

func (s *Store) UpdateMembership(_ context.Context, m *membership.UserTenant, expectedStamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey(m.UserID.String(), m.TenantID)
	cur, ok := s.memberships[k]
	if !ok {
		return fmt.Errorf("membership %s: %w", k, store.ErrNotFound)
	}
	if cur.ConcurrencyStamp != expectedStamp {
		return fmt.Errorf("membership %s: %w", k, store.ErrConflict)
	}
	s.memberships[k] = copyMembership(m)
	return nil
}

func (s *Store) DeleteMembership(_ context.Context, userID id.UserID, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey(userID.String(), tenantID)
	if _, ok := s.memberships[k]; !ok {
		return fmt.Errorf("membership %s: %w", k, store.ErrNotFound)
	}
	delete(s.memberships, k)
	for rk, ur := range s.userRoles {
		if ur.UserID.String() == userID.String() && ur.TenantID == tenantID {
			delete(s.userRoles, rk)
		}
	}
	return nil
}

func (s *Store) ListMemberships(_ context.Context, filter *membership.ListFilter) ([]*membership.UserTenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := s.matchMemberships(filter)
	slices.SortStableFunc(result, func(a, b *membership.UserTenant) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	var lo limitOffsetOpts
	if filter != nil {
		lo = limitOffsetOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return applyPagination(result, lo), nil
}

func (s *Store) CountMemberships(_ context.Context, filter *membership.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matchMemberships(filter))), nil
}

func (s *Store) matchMemberships(filter *membership.ListFilter) []*membership.UserTenant {
	result := make([]*membership.UserTenant, 0, len(s.memberships))
	for _, m := range s.memberships {
		if filter != nil {
			if !filter.UserID.IsNil() && m.UserID.String() != filter.UserID.String() {
				continue
			}
			if filter.TenantID != "" && m.TenantID != filter.TenantID {
				continue
			}
		}
		result = append(result, copyMembership(m))
	}
	return result
}

func (s *Store) AddUserRole(_ context.Context, ur *membership.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey(ur.UserID.String(), ur.RoleName)
	if _, ok := s.userRoles[k]; ok {
		return fmt.Errorf("user role %s: %w", k, store.ErrDuplicate)
	}
	c := *ur
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.userRoles[k] = &c
	return nil
}

func (s *Store) RemoveUserRole(_ context.Context, userID id.UserID, roleName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey(userID.String(), roleName)
	if _, ok := s.userRoles[k]; !ok {
		return fmt.Errorf("user role %s: %w", k, store.ErrNotFound)
	}
	delete(s.userRoles, k)
	return nil
}

func (s *Store) ListUserRoles(_ context.Context, filter *membership.RoleFilter) ([]*membership.UserRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*membership.UserRole, 0)
	for _, ur := range s.userRoles {
		if filter != nil {
			if !filter.UserID.IsNil() && ur.UserID.String() != filter.UserID.String() {
				continue
			}
			if filter.TenantID != "" && ur.TenantID != filter.TenantID {
				continue
			}
			if filter.RoleName != "" && ur.RoleName != filter.RoleName {
				continue
			}
		}
		c := *ur
		result = append(result, &c)
	}
	slices.SortFunc(result, func(a, b *membership.UserRole) int {
		if c := strings.Compare(a.RoleName, b.RoleName); c != 0 {
			return c
		}
		return strings.Compare(a.UserID.String(), b.UserID.String())
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func pairKey(a, b string) string { return a + "|" + b }

func containsID(ids []id.UserID, v id.UserID) bool {
	for _, x := range ids {
		if x.String() == v.String() {
			return true
		}
	}
	return false
}

func copyTenant(t *tenant.Tenant) *tenant.Tenant {
	c := *t
	if t.Picture != nil {
		c.Picture = slices.Clone(t.Picture)
	}
	return &c
}

func copyRole(r *role.Role) *role.Role {
	c := *r
	return &c
}

func copyUser(u *user.User) *user.User {
	c := *u
	if u.ProfilePicture != nil {
		c.ProfilePicture = slices.Clone(u.ProfilePicture)
	}
	return &c
}

func copyMembership(m *membership.UserTenant) *membership.UserTenant {
	c := *m
	return &c
}

type limitOffsetOpts struct {
	limit  int
	offset int
}

func limitOffset(f *tenant.ListFilter) limitOffsetOpts {
	if f == nil {
		return limitOffsetOpts{}
	}
	return limitOffsetOpts{limit: f.Limit, offset: f.Offset}
}

func applyPagination[T any](items []T, opts limitOffsetOpts) []T {
	if opts.offset < 0 {
		return []T{}
	}
	if opts.offset > 0 {
		if opts.offset >= len(items) {
			return []T{}
		}
		items = items[opts.offset:]
	}
	if opts.limit > 0 && opts.limit < len(items) {
		items = items[:opts.limit]
	}
	return items
}

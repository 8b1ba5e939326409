// Package storetest holds a behavioral test suite that every store backend
// runs against itself.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

// Factory returns an empty, migrated store. The suite closes nothing; the
// factory registers its own cleanup.
type Factory func(t *testing.T) store.Store

// Run runs the whole suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("Tenants", func(t *testing.T) { testTenants(t, newStore(t)) })
	t.Run("TenantListing", func(t *testing.T) { testTenantListing(t, newStore(t)) })
	t.Run("Roles", func(t *testing.T) { testRoles(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Memberships", func(t *testing.T) { testMemberships(t, newStore(t)) })
	t.Run("DeleteMembershipCascade", func(t *testing.T) { testCascade(t, newStore(t)) })
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTenant(tid, name string, st tenant.State) *tenant.Tenant {
	t := &tenant.Tenant{
		ID:               tid,
		State:            st,
		Name:             name,
		ConcurrencyStamp: "s-" + tid,
		CreatedAt:        epoch,
		UpdatedAt:        epoch,
	}
	t.BuildSearchIndex()
	return t
}

func newUser(email string) *user.User {
	u := &user.User{
		ID:               id.NewUserID(),
		Email:            email,
		UserName:         email,
		ConcurrencyStamp: "s-" + email,
		CreatedAt:        epoch,
		UpdatedAt:        epoch,
	}
	u.BuildSearchIndex()
	return u
}

func mustRole(t *testing.T, s store.Store, name string) *role.Role {
	t.Helper()
	r, err := role.FromName(name, "")
	require.NoError(t, err)
	r.CreatedAt = epoch
	require.NoError(t, s.CreateRole(context.Background(), r))
	return r
}

func testTenants(t *testing.T, s store.Store) {
	ctx := context.Background()
	acme := newTenant("acme", "Acme", tenant.StateNew)
	acme.Picture = []byte{1, 2, 3}
	require.NoError(t, s.CreateTenant(ctx, acme))

	err := s.CreateTenant(ctx, newTenant("acme", "Other", tenant.StateNew))
	assert.True(t, errors.Is(err, store.ErrDuplicate), "got %v", err)

	got, err := s.GetTenant(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, tenant.StateNew, got.State)
	assert.Equal(t, []byte{1, 2, 3}, got.Picture)

	_, err = s.GetTenant(ctx, "nope")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	got.State = tenant.StateActive
	got.ConcurrencyStamp = "s2"
	require.NoError(t, s.UpdateTenant(ctx, got, "s-acme"))

	got.Name = "Stale"
	err = s.UpdateTenant(ctx, got, "s-acme")
	assert.True(t, errors.Is(err, store.ErrConflict), "got %v", err)

	again, err := s.GetTenant(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.StateActive, again.State)
	assert.Equal(t, "Acme", again.Name)
	assert.Equal(t, "s2", again.ConcurrencyStamp)

	err = s.UpdateTenant(ctx, newTenant("ghost", "Ghost", tenant.StateNew), "x")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func testTenantListing(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := range 12 {
		st := tenant.StateNew
		if i%3 == 0 {
			st = tenant.StateActive
		}
		require.NoError(t, s.CreateTenant(ctx, newTenant(fmt.Sprintf("t%02d", i), fmt.Sprintf("Tenant %02d", 11-i), st)))
	}

	all, err := s.ListTenants(ctx, &tenant.ListFilter{SortBy: "name"})
	require.NoError(t, err)
	require.Len(t, all, 12)
	assert.Equal(t, "t11", all[0].ID, "sorted by name")

	byID, err := s.ListTenants(ctx, &tenant.ListFilter{SortBy: "id", Limit: 5, Offset: 5})
	require.NoError(t, err)
	require.Len(t, byID, 5)
	assert.Equal(t, "t05", byID[0].ID)

	active, err := s.ListTenants(ctx, &tenant.ListFilter{States: []tenant.State{tenant.StateActive}, SortBy: "id"})
	require.NoError(t, err)
	require.Len(t, active, 4)
	assert.Equal(t, "t00", active[0].ID)

	n, err := s.CountTenants(ctx, &tenant.ListFilter{Search: "tenant 1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.CountTenants(ctx, &tenant.ListFilter{Search: "t0", States: []tenant.State{tenant.StateActive}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func testRoles(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustRole(t, s, "Administrator")
	mustRole(t, s, "acme#Owner")
	mustRole(t, s, "acme#Member")
	mustRole(t, s, "beta#Owner")

	r, err := role.FromName("acme#Owner", "")
	require.NoError(t, err)
	err = s.CreateRole(ctx, r)
	assert.True(t, errors.Is(err, store.ErrDuplicate), "got %v", err)

	got, err := s.GetRole(ctx, "acme#Owner")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.TenantID)
	assert.Equal(t, "Owner", got.Label)

	acme, err := s.ListRoles(ctx, &role.ListFilter{TenantID: "acme"})
	require.NoError(t, err)
	require.Len(t, acme, 2)
	assert.Equal(t, "acme#Member", acme[0].Name)

	sys, err := s.ListRoles(ctx, &role.ListFilter{SystemOnly: true})
	require.NoError(t, err)
	require.Len(t, sys, 1)
	assert.Equal(t, "Administrator", sys[0].Name)

	named, err := s.ListRoles(ctx, &role.ListFilter{Names: []string{"beta#Owner", "Administrator"}})
	require.NoError(t, err)
	require.Len(t, named, 2)

	require.NoError(t, s.DeleteRole(ctx, "beta#Owner"))
	_, err = s.GetRole(ctx, "beta#Owner")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	err = s.DeleteRole(ctx, "beta#Owner")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := newUser("alice@example.com")
	bob := newUser("bob@example.com")
	bob.Surname = "Aardvark"
	bob.BuildSearchIndex()
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	err := s.CreateUser(ctx, newUser("alice@example.com"))
	assert.True(t, errors.Is(err, store.ErrDuplicate), "got %v", err)

	got, err := s.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, bob.ID.String(), got.ID.String())

	_, err = s.GetUser(ctx, id.NewUserID())
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	alice.GivenName = "Alice"
	alice.ConcurrencyStamp = "s2"
	require.NoError(t, s.UpdateUser(ctx, alice, "s-alice@example.com"))
	err = s.UpdateUser(ctx, alice, "s-alice@example.com")
	assert.True(t, errors.Is(err, store.ErrConflict), "got %v", err)

	bySurname, err := s.ListUsers(ctx, &user.ListFilter{SortBy: "surname"})
	require.NoError(t, err)
	require.Len(t, bySurname, 2)
	assert.Equal(t, "alice@example.com", bySurname[0].Email, "empty surname sorts first")

	only, err := s.ListUsers(ctx, &user.ListFilter{IDs: []id.UserID{bob.ID}})
	require.NoError(t, err)
	require.Len(t, only, 1)

	none, err := s.ListUsers(ctx, &user.ListFilter{IDs: []id.UserID{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := s.CountUsers(ctx, &user.ListFilter{Search: "aard"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testMemberships(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateTenant(ctx, newTenant("acme", "Acme", tenant.StateActive)))
	u := newUser("carol@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	m := &membership.UserTenant{
		ID:               id.NewMembershipID(),
		UserID:           u.ID,
		TenantID:         "acme",
		ConcurrencyStamp: "m1",
		CreatedAt:        epoch,
		UpdatedAt:        epoch,
	}
	require.NoError(t, s.CreateMembership(ctx, m))

	dup := *m
	dup.ID = id.NewMembershipID()
	err := s.CreateMembership(ctx, &dup)
	assert.True(t, errors.Is(err, store.ErrDuplicate), "got %v", err)

	got, err := s.GetMembership(ctx, u.ID, "acme")
	require.NoError(t, err)
	assert.Equal(t, m.ID.String(), got.ID.String())

	got.Remark = "vip"
	got.ConcurrencyStamp = "m2"
	require.NoError(t, s.UpdateMembership(ctx, got, "m1"))
	err = s.UpdateMembership(ctx, got, "m1")
	assert.True(t, errors.Is(err, store.ErrConflict), "got %v", err)

	list, err := s.ListMemberships(ctx, &membership.ListFilter{TenantID: "acme"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "vip", list[0].Remark)

	n, err := s.CountMemberships(ctx, &membership.ListFilter{UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mustRole(t, s, "acme#Member")
	ur, err := membership.NewUserRole(u.ID, "acme#Member")
	require.NoError(t, err)
	ur.CreatedAt = epoch
	require.NoError(t, s.AddUserRole(ctx, ur))
	err = s.AddUserRole(ctx, ur)
	assert.True(t, errors.Is(err, store.ErrDuplicate), "got %v", err)

	grants, err := s.ListUserRoles(ctx, &membership.RoleFilter{TenantID: "acme"})
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "Member", grants[0].Label)
	assert.True(t, grants[0].Consistent())

	require.NoError(t, s.RemoveUserRole(ctx, u.ID, "acme#Member"))
	err = s.RemoveUserRole(ctx, u.ID, "acme#Member")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func testCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser("dave@example.com")
	require.NoError(t, s.CreateUser(ctx, u))
	mustRole(t, s, "Administrator")

	for _, tid := range []string{"acme", "beta"} {
		require.NoError(t, s.CreateTenant(ctx, newTenant(tid, tid, tenant.StateActive)))
		mustRole(t, s, tid+"#Owner")
		require.NoError(t, s.CreateMembership(ctx, &membership.UserTenant{
			ID:               id.NewMembershipID(),
			UserID:           u.ID,
			TenantID:         tid,
			ConcurrencyStamp: "m-" + tid,
			CreatedAt:        epoch,
			UpdatedAt:        epoch,
		}))
		ur, err := membership.NewUserRole(u.ID, tid+"#Owner")
		require.NoError(t, err)
		ur.CreatedAt = epoch
		require.NoError(t, s.AddUserRole(ctx, ur))
	}
	sys, err := membership.NewUserRole(u.ID, "Administrator")
	require.NoError(t, err)
	sys.CreatedAt = epoch
	require.NoError(t, s.AddUserRole(ctx, sys))

	require.NoError(t, s.DeleteMembership(ctx, u.ID, "acme"))
	err = s.DeleteMembership(ctx, u.ID, "acme")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	grants, err := s.ListUserRoles(ctx, &membership.RoleFilter{UserID: u.ID})
	require.NoError(t, err)
	names := make([]string, len(grants))
	for i, g := range grants {
		names[i] = g.RoleName
	}
	assert.ElementsMatch(t, []string{"Administrator", "beta#Owner"}, names)

	left, err := s.ListMemberships(ctx, &membership.ListFilter{UserID: u.ID})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "beta", left[0].TenantID)
}

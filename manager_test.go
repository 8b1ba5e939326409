package tenancy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store/memory"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

func newTestManager(t *testing.T, opts ...Option) (*Manager, *memory.Store) {
	t.Helper()
	s := memory.New()
	mgr, err := NewManager(append([]Option{WithStore(s)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return mgr, s
}

// activeTenant creates a tenant, brings it to Active and materializes its
// default roles.
func activeTenant(t *testing.T, mgr *Manager, tenantID string) *tenant.Tenant {
	t.Helper()
	ctx := context.Background()
	if _, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: tenantID, Name: tenantID + " inc"}); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.SubmitTenant(ctx, tenantID); err != nil {
		t.Fatal(err)
	}
	tn, err := mgr.EnableTenant(ctx, tenantID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.CreateDefaultRoles(ctx, tenantID); err != nil {
		t.Fatal(err)
	}
	return tn
}

func newUser(t *testing.T, mgr *Manager, email string) *user.User {
	t.Helper()
	u, err := mgr.CreateUser(context.Background(), &user.User{Email: email})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestNewManager_RequiresStore(t *testing.T) {
	_, err := NewManager()
	if !errors.Is(err, ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestCreateTenant(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	tn, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: " ACME ", Name: "Acme", State: tenant.StateActive})
	if err != nil {
		t.Fatal(err)
	}
	if tn.ID != "acme" {
		t.Errorf("expected normalized id acme, got %q", tn.ID)
	}
	if tn.State != tenant.StateNew {
		t.Errorf("new tenants start in state new, got %s", tn.State)
	}
	if tn.ConcurrencyStamp == "" {
		t.Error("expected a concurrency stamp")
	}

	if _, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: "acme", Name: "Again"}); !errors.Is(err, ErrDuplicateTenant) {
		t.Fatalf("expected ErrDuplicateTenant, got %v", err)
	}
	if _, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: "a", Name: "Short"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: "nameless"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing name, got %v", err)
	}

	roles, err := mgr.ListRoles(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 0 {
		t.Fatalf("creating a tenant must not create roles, got %d", len(roles))
	}
}

func TestDisableAcme(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	activeTenant(t, mgr, "acme")

	tn, err := mgr.DisableTenant(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if tn.State != tenant.StateInactive {
		t.Fatalf("expected inactive, got %s", tn.State)
	}

	// Disabling again is refused and leaves the tenant untouched.
	if _, err := mgr.DisableTenant(ctx, "acme"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}
	again, err := mgr.GetTenant(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if again.State != tenant.StateInactive || again.ConcurrencyStamp != tn.ConcurrencyStamp {
		t.Fatalf("refused transition modified the tenant: %+v", again)
	}

	if _, err := mgr.EnableTenant(ctx, "acme"); err != nil {
		t.Fatalf("inactive tenants can be re-enabled: %v", err)
	}
}

func TestLifecycleToRemoved(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	if _, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: "gone", Name: "Gone"}); err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.RemoveTenant(ctx, "gone"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("remove before begin-removal: expected ErrTransitionNotAllowed, got %v", err)
	}
	if _, err := mgr.BeginTenantRemoval(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.UpdateTenant(ctx, &tenant.Tenant{ID: "gone", Name: "Renamed"}); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("update while removing: expected ErrTransitionNotAllowed, got %v", err)
	}
	tn, err := mgr.RemoveTenant(ctx, "gone")
	if err != nil {
		t.Fatal(err)
	}
	if tn.State != tenant.StateRemoved {
		t.Fatalf("expected removed, got %s", tn.State)
	}
	for _, tr := range []tenant.Transition{tenant.TransitionSubmit, tenant.TransitionEnable, tenant.TransitionBeginRemoval} {
		if _, err := mgr.Transition(ctx, "gone", tr); !errors.Is(err, ErrTransitionNotAllowed) {
			t.Errorf("%s from removed: expected ErrTransitionNotAllowed, got %v", tr, err)
		}
	}
}

func TestCreateDefaultRoles_RequiresActive(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	if _, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: "acme", Name: "Acme"}); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.CreateDefaultRoles(ctx, "acme"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}

	activeTenant(t, mgr, "beta")
	roles, err := mgr.CreateDefaultRoles(ctx, "beta")
	if err != nil {
		t.Fatalf("repeating default role creation: %v", err)
	}
	if len(roles) != 5 {
		t.Fatalf("expected 5 roles, got %d", len(roles))
	}
}

func TestUpdateTenant_StaleStamp(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	tn, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: "acme", Name: "Acme"})
	if err != nil {
		t.Fatal(err)
	}

	first := *tn
	first.Name = "Acme Corp"
	updated, err := mgr.UpdateTenant(ctx, &first)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ConcurrencyStamp == tn.ConcurrencyStamp {
		t.Fatal("update must rotate the concurrency stamp")
	}

	stale := *tn
	stale.Name = "Stale"
	if _, err := mgr.UpdateTenant(ctx, &stale); !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}
	got, _ := mgr.GetTenant(ctx, "acme")
	if got.Name != "Acme Corp" {
		t.Fatalf("stale update leaked: %q", got.Name)
	}
}

func TestAddAssignRemove(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	activeTenant(t, mgr, "acme")
	alice := newUser(t, mgr, "alice@example.com")

	if _, err := mgr.AddUserToTenant(ctx, alice.ID, "acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.AssignRole(ctx, alice.ID, "acme#Member"); err != nil {
		t.Fatal(err)
	}

	in, err := mgr.IsUserInTenant(ctx, alice.ID, "acme")
	if err != nil || !in {
		t.Fatalf("expected alice in acme, got %v, %v", in, err)
	}
	roles, err := mgr.RolesForUserInTenant(ctx, alice.ID, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 1 || roles[0].Name != "acme#Member" {
		t.Fatalf("unexpected roles %+v", roles)
	}

	if err := mgr.RemoveUserFromTenant(ctx, alice.ID, "acme"); err != nil {
		t.Fatal(err)
	}
	in, _ = mgr.IsUserInTenant(ctx, alice.ID, "acme")
	if in {
		t.Fatal("alice should no longer be in acme")
	}
	roles, _ = mgr.RolesForUser(ctx, alice.ID)
	if len(roles) != 0 {
		t.Fatalf("roles must be removed with the membership, got %+v", roles)
	}
}

func TestRemoveCascadeKeepsOtherTenants(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	activeTenant(t, mgr, "acme")
	activeTenant(t, mgr, "beta")
	bob := newUser(t, mgr, "bob@example.com")
	if err := mgr.EnsureSystemRoles(ctx); err != nil {
		t.Fatal(err)
	}

	for _, tid := range []string{"acme", "beta"} {
		if _, err := mgr.AddUserToTenant(ctx, bob.ID, tid); err != nil {
			t.Fatal(err)
		}
		if _, err := mgr.AssignRole(ctx, bob.ID, tid+"#Guest"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := mgr.AssignRole(ctx, bob.ID, role.LabelAdministrator); err != nil {
		t.Fatal(err)
	}

	if err := mgr.RemoveUserFromTenant(ctx, bob.ID, "acme"); err != nil {
		t.Fatal(err)
	}

	tenants, err := mgr.TenantsForUser(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tenants) != 1 || tenants[0] != "beta inc" {
		t.Fatalf("expected [beta inc], got %v", tenants)
	}
	roles, err := mgr.RolesForUser(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}
	if fmt.Sprint(names) != "[Administrator beta#Guest]" {
		t.Fatalf("unexpected roles after cascade: %v", names)
	}
}

func TestIsUserInTenant_Unknown(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	activeTenant(t, mgr, "acme")
	u := newUser(t, mgr, "carol@example.com")

	in, err := mgr.IsUserInTenant(ctx, u.ID, "nowhere")
	if err != nil || in {
		t.Fatalf("unknown tenant: got %v, %v", in, err)
	}
	in, err = mgr.IsUserInTenant(ctx, id.NewUserID(), "acme")
	if err != nil || in {
		t.Fatalf("unknown user: got %v, %v", in, err)
	}
	users, err := mgr.UsersInTenant(ctx, "nowhere")
	if err != nil || len(users) != 0 {
		t.Fatalf("unknown tenant has no users: got %v, %v", users, err)
	}
}

func TestAssignRole_RequiresMembership(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	activeTenant(t, mgr, "acme")
	u := newUser(t, mgr, "dave@example.com")

	if _, err := mgr.AssignRole(ctx, u.ID, "acme#Owner"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if _, err := mgr.AddUserToTenant(ctx, u.ID, "acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.AssignRole(ctx, u.ID, "acme#Janitor"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	if _, err := mgr.AssignRole(ctx, u.ID, "acme#Own#er"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for a label containing the separator, got %v", err)
	}
	if _, err := mgr.AssignRole(ctx, u.ID, "acme#Owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.AssignRole(ctx, u.ID, "acme#Owner"); err != nil {
		t.Fatalf("assigning a held role is a no-op: %v", err)
	}
}

func TestLastOwnerProtection(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	activeTenant(t, mgr, "acme")
	owner := newUser(t, mgr, "owner@example.com")
	other := newUser(t, mgr, "other@example.com")

	for _, u := range []*user.User{owner, other} {
		if _, err := mgr.AddUserToTenant(ctx, u.ID, "acme"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := mgr.AssignRole(ctx, owner.ID, "acme#Owner"); err != nil {
		t.Fatal(err)
	}

	if err := mgr.RemoveUserFromTenant(ctx, owner.ID, "acme"); !errors.Is(err, ErrLastOwner) {
		t.Fatalf("expected ErrLastOwner, got %v", err)
	}
	if err := mgr.UnassignRole(ctx, owner.ID, "acme#Owner"); !errors.Is(err, ErrLastOwner) {
		t.Fatalf("expected ErrLastOwner, got %v", err)
	}

	if _, err := mgr.AssignRole(ctx, other.ID, "acme#Owner"); err != nil {
		t.Fatal(err)
	}
	ok, err := mgr.HasOtherOwners(ctx, owner.ID, "acme")
	if err != nil || !ok {
		t.Fatalf("expected another owner, got %v, %v", ok, err)
	}
	if err := mgr.RemoveUserFromTenant(ctx, owner.ID, "acme"); err != nil {
		t.Fatalf("removing one of two owners: %v", err)
	}
}

func TestLastOwnerProtectionDisabled(t *testing.T) {
	ctx := context.Background()
	off := false
	cfg := DefaultConfig()
	cfg.ProtectLastOwner = &off
	mgr, _ := newTestManager(t, WithConfig(cfg))
	activeTenant(t, mgr, "acme")
	u := newUser(t, mgr, "solo@example.com")

	if _, err := mgr.AddUserToTenant(ctx, u.ID, "acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.AssignRole(ctx, u.ID, "acme#Owner"); err != nil {
		t.Fatal(err)
	}
	if err := mgr.RemoveUserFromTenant(ctx, u.ID, "acme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddUsersToTenant(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	activeTenant(t, mgr, "acme")
	erin := newUser(t, mgr, "erin@example.com")

	if _, err := mgr.AddUserToTenant(ctx, erin.ID, "acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.AssignRole(ctx, erin.ID, "acme#Guest"); err != nil {
		t.Fatal(err)
	}

	out, err := mgr.AddUsersToTenant(ctx, "acme", []string{"ERIN@example.com", "nobody@example.com", "not-an-address"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(out))
	}
	if !out[0].OK() || out[0].Email != "erin@example.com" {
		t.Errorf("erin: %+v", out[0])
	}
	if !errors.Is(out[1].Err, ErrUserNotFound) {
		t.Errorf("nobody: expected ErrUserNotFound, got %v", out[1].Err)
	}
	if !errors.Is(out[2].Err, ErrValidation) {
		t.Errorf("bad address: expected ErrValidation, got %v", out[2].Err)
	}

	roles, err := mgr.RolesForUserInTenant(ctx, erin.ID, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 1 || roles[0].Label != role.LabelMember {
		t.Fatalf("expected only Member, got %+v", roles)
	}

	if _, err := mgr.AddUsersToTenant(ctx, "acme", nil, "Janitor"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestListTenantsPagination(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	for i := range 120 {
		tid := fmt.Sprintf("t%03d", i)
		if _, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: tid, Name: "Tenant " + tid}); err != nil {
			t.Fatal(err)
		}
	}

	wantSizes := []int{50, 50, 20, 0}
	for i, want := range wantSizes {
		page := i + 1
		res, err := mgr.ListTenants(ctx, listquery.Query{Page: &page})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Results.Items) != want {
			t.Fatalf("page %d: expected %d items, got %d", page, want, len(res.Results.Items))
		}
		if res.Results.TotalCount != 120 || res.Results.TotalPages != 3 {
			t.Fatalf("page %d: total %d pages %d", page, res.Results.TotalCount, res.Results.TotalPages)
		}
	}

	for _, page := range []int{4, math.MaxInt/listquery.PageSize + 2, math.MaxInt} {
		res, err := mgr.ListTenants(ctx, listquery.Query{Page: &page})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(res.Results.Items) != 0 || res.Results.PageIndex != page {
			t.Fatalf("page %d: expected no items at that index, got %d at %d", page, len(res.Results.Items), res.Results.PageIndex)
		}
		if res.Results.HasNextPage {
			t.Fatalf("page %d: past the end must not report a next page", page)
		}
	}

	res, err := mgr.ListTenants(ctx, listquery.Query{SearchText: "T11", SortOrder: "id"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Results.TotalCount != 10 || res.Results.Items[0].ID != "t110" {
		t.Fatalf("unexpected search result: %d items, first %s", res.Results.TotalCount, res.Results.Items[0].ID)
	}
	if res.CurrentFilter != "T11" {
		t.Fatalf("filter not echoed: %q", res.CurrentFilter)
	}

	if _, err := mgr.SubmitTenant(ctx, "t005"); err != nil {
		t.Fatal(err)
	}
	res, err = mgr.ListTenants(ctx, listquery.Query{}, tenant.StatePending)
	if err != nil {
		t.Fatal(err)
	}
	if res.Results.TotalCount != 1 {
		t.Fatalf("expected 1 pending tenant, got %d", res.Results.TotalCount)
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	u := newUser(t, mgr, "frank@example.com")

	change := *u
	change.GivenName = "Frank"
	updated, err := mgr.UpdateUser(ctx, &change)
	if err != nil {
		t.Fatal(err)
	}
	if updated.DisplayName() != "Frank" {
		t.Fatalf("unexpected display name %q", updated.DisplayName())
	}

	stale := *u
	stale.Surname = "Stale"
	if _, err := mgr.UpdateUser(ctx, &stale); !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}
	got, _ := mgr.GetUser(ctx, u.ID)
	if got.Surname != "" {
		t.Fatal("failed update must leave the user unchanged")
	}

	if _, err := mgr.CreateUser(ctx, &user.User{Email: "Frank@Example.com"}); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

type mapCache struct {
	mu          sync.Mutex
	data        map[string][]string
	invalidated int
}

func (c *mapCache) GetMemberships(_ context.Context, userID id.UserID) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[userID.String()]
	return v, ok
}

func (c *mapCache) SetMemberships(_ context.Context, userID id.UserID, ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[userID.String()] = ids
}

func (c *mapCache) InvalidateUser(_ context.Context, userID id.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, userID.String())
	c.invalidated++
}

func TestMembershipCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	c := &mapCache{data: map[string][]string{}}
	mgr, _ := newTestManager(t, WithCache(c))
	activeTenant(t, mgr, "acme")
	u := newUser(t, mgr, "gina@example.com")

	if in, _ := mgr.IsUserInTenant(ctx, u.ID, "acme"); in {
		t.Fatal("not a member yet")
	}
	if _, ok := c.GetMemberships(ctx, u.ID); !ok {
		t.Fatal("expected lookup to populate the cache")
	}

	if _, err := mgr.AddUserToTenant(ctx, u.ID, "acme"); err != nil {
		t.Fatal(err)
	}
	if in, _ := mgr.IsUserInTenant(ctx, u.ID, "acme"); !in {
		t.Fatal("stale cache after add")
	}
	if err := mgr.RemoveUserFromTenant(ctx, u.ID, "acme"); err != nil {
		t.Fatal(err)
	}
	if in, _ := mgr.IsUserInTenant(ctx, u.ID, "acme"); in {
		t.Fatal("stale cache after remove")
	}
	if c.invalidated != 2 {
		t.Fatalf("expected 2 invalidations, got %d", c.invalidated)
	}
}

func TestApplicationTenantsSkipRemoved(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	activeTenant(t, mgr, "acme")
	if _, err := mgr.CreateTenant(ctx, &tenant.Tenant{ID: "old", Name: "Old"}); err != nil {
		t.Fatal(err)
	}
	u := newUser(t, mgr, "hank@example.com")
	for _, tid := range []string{"acme", "old"} {
		if _, err := mgr.AddUserToTenant(ctx, u.ID, tid); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := mgr.BeginTenantRemoval(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.RemoveTenant(ctx, "old"); err != nil {
		t.Fatal(err)
	}

	names, err := mgr.TenantsForUser(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "acme inc" {
		t.Fatalf("expected tenant names [acme inc], got %v", names)
	}
}

func TestTenantsForUserReturnsNames(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	for _, tn := range []*tenant.Tenant{{ID: "zeta", Name: "Alpha Works"}, {ID: "acme", Name: "Zephyr Labs"}} {
		if _, err := mgr.CreateTenant(ctx, tn); err != nil {
			t.Fatal(err)
		}
	}
	u := newUser(t, mgr, "ivy@example.com")
	for _, tid := range []string{"acme", "zeta"} {
		if _, err := mgr.AddUserToTenant(ctx, u.ID, tid); err != nil {
			t.Fatal(err)
		}
	}

	names, err := mgr.TenantsForUser(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(names) != "[Alpha Works Zephyr Labs]" {
		t.Fatalf("expected names ordered by name, got %v", names)
	}
}

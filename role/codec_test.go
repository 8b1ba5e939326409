package role_test

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/tenant"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomTenantID(r *rand.Rand) string {
	n := 2 + r.IntN(23)
	var b strings.Builder
	for range n {
		b.WriteByte(alphabet[r.IntN(len(alphabet))])
	}
	return b.String()
}

func TestTenantRoleRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		tid := randomTenantID(r)
		name, err := role.EncodeTenantRole(tid, "Member")
		if err != nil {
			t.Fatalf("EncodeTenantRole(%q): %v", tid, err)
		}
		if got := role.DecodeTenant(name); got != tid {
			t.Fatalf("DecodeTenant(%q) = %q, want %q", name, got, tid)
		}
		if got := role.DecodeLabel(name); got != "Member" {
			t.Fatalf("DecodeLabel(%q) = %q, want Member", name, got)
		}
		if !role.IsTenantRole(name) || role.IsSystemRole(name) {
			t.Fatalf("%q should be a tenant role", name)
		}
	}
}

func TestEncodeNormalizes(t *testing.T) {
	name, err := role.EncodeTenantRole("  ACME ", "  Project Lead ")
	if err != nil {
		t.Fatalf("EncodeTenantRole: %v", err)
	}
	if name != "acme#Project Lead" {
		t.Fatalf("unexpected name %q", name)
	}
	if role.DecodeLabel(name) != "Project Lead" {
		t.Errorf("label mismatch: %q", role.DecodeLabel(name))
	}
	if role.DecodeTenant(name) != "acme" {
		t.Errorf("tenant mismatch: %q", role.DecodeTenant(name))
	}
}

func TestSystemRoles(t *testing.T) {
	for _, l := range []string{"Administrator", "User", "Auditor"} {
		name, err := role.EncodeSystemRole(l)
		if err != nil {
			t.Fatalf("EncodeSystemRole(%q): %v", l, err)
		}
		if name != l {
			t.Errorf("EncodeSystemRole(%q) = %q", l, name)
		}
		if role.DecodeTenant(name) != "" {
			t.Errorf("DecodeTenant(%q) = %q, want empty", name, role.DecodeTenant(name))
		}
		if role.DecodeLabel(name) != l {
			t.Errorf("DecodeLabel(%q) = %q", name, role.DecodeLabel(name))
		}
		if !role.IsSystemRole(name) {
			t.Errorf("%q should be a system role", name)
		}
	}
}

func TestDecodeUsesFirstSeparator(t *testing.T) {
	if got := role.DecodeTenant(" Acme #Owner#x"); got != "acme" {
		t.Errorf("DecodeTenant = %q", got)
	}
	if got := role.DecodeLabel("acme# Owner#x"); got != "Owner#x" {
		t.Errorf("DecodeLabel = %q", got)
	}
	if got := role.DecodeLabel("  Guest "); got != "Guest" {
		t.Errorf("DecodeLabel = %q", got)
	}
}

func TestRejectsSeparatorInLabel(t *testing.T) {
	if _, err := role.EncodeTenantRole("acme", "Own#er"); !errors.Is(err, role.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
	if _, err := role.EncodeSystemRole("sys#admin"); !errors.Is(err, role.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
	if _, err := role.EncodeSystemRole("   "); !errors.Is(err, role.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel for blank label, got %v", err)
	}
}

func TestRejectsInvalidTenant(t *testing.T) {
	for _, tid := range []string{"", "a", "ac-me", strings.Repeat("x", 25)} {
		if _, err := role.EncodeTenantRole(tid, "Owner"); !errors.Is(err, tenant.ErrInvalidID) {
			t.Errorf("EncodeTenantRole(%q): expected ErrInvalidID, got %v", tid, err)
		}
	}
}

func TestFromName(t *testing.T) {
	r, err := role.FromName("acme#Owner", "owns it")
	if err != nil {
		t.Fatalf("FromName: %v", err)
	}
	if r.TenantID != "acme" || r.Label != "Owner" || r.IsSystem() {
		t.Fatalf("unexpected role %+v", r)
	}

	r, err = role.FromName("Administrator", "")
	if err != nil {
		t.Fatalf("FromName: %v", err)
	}
	if r.TenantID != "" || r.Label != "Administrator" || !r.IsSystem() {
		t.Fatalf("unexpected role %+v", r)
	}
}

func TestDefaults(t *testing.T) {
	roles, err := role.DefaultTenantRoles("acme")
	if err != nil {
		t.Fatalf("DefaultTenantRoles: %v", err)
	}
	if len(roles) != 5 {
		t.Fatalf("expected 5 default roles, got %d", len(roles))
	}
	for _, r := range roles {
		if r.Label == role.LabelNone {
			t.Fatal("None must not be materialized")
		}
		if r.TenantID != "acme" || r.Name != "acme#"+r.Label {
			t.Errorf("inconsistent role %+v", r)
		}
	}

	sys := role.SystemRoles()
	if len(sys) != 2 || sys[0].Name != "Administrator" || sys[1].Name != "User" {
		t.Fatalf("unexpected system roles %+v", sys)
	}
}

func TestSystemRoleTrimmed(t *testing.T) {
	name, err := role.EncodeSystemRole(" Admin ")
	if err != nil {
		t.Fatalf("EncodeSystemRole: %v", err)
	}
	if name != "Admin" {
		t.Fatalf("EncodeSystemRole = %q, want Admin", name)
	}

	r, err := role.NewSystem("  Auditor\t", "")
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if r.Name != "Auditor" || r.Label != "Auditor" {
		t.Fatalf("unexpected role %+v", r)
	}
}

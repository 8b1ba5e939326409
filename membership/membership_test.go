package membership_test

import (
	"errors"
	"testing"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
)

func TestNewUserRoleDerivesFields(t *testing.T) {
	uid := id.NewUserID()

	ur, err := membership.NewUserRole(uid, "ACME#Member")
	if err != nil {
		t.Fatalf("NewUserRole: %v", err)
	}
	if ur.RoleName != "acme#Member" || ur.TenantID != "acme" || ur.Label != "Member" {
		t.Fatalf("unexpected grant %+v", ur)
	}
	if !ur.Consistent() {
		t.Fatal("derived grant should be consistent")
	}

	ur, err = membership.NewUserRole(uid, "Administrator")
	if err != nil {
		t.Fatalf("NewUserRole: %v", err)
	}
	if ur.TenantID != "" || ur.Label != "Administrator" {
		t.Fatalf("unexpected system grant %+v", ur)
	}
}

func TestNewUserRoleRejectsBadNames(t *testing.T) {
	if _, err := membership.NewUserRole(id.NewUserID(), "acme#"); !errors.Is(err, role.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
}

func TestConsistent(t *testing.T) {
	ur := &membership.UserRole{RoleName: "acme#Owner", TenantID: "other", Label: "Owner"}
	if ur.Consistent() {
		t.Fatal("tampered tenant should be inconsistent")
	}
}

package user_test

import (
	"errors"
	"testing"

	"github.com/xraph/tenancy/user"
)

func TestNormalizeEmail(t *testing.T) {
	got, err := user.NormalizeEmail("  Jane.Doe@Example.COM ")
	if err != nil {
		t.Fatalf("NormalizeEmail: %v", err)
	}
	if got != "jane.doe@example.com" {
		t.Fatalf("unexpected address %q", got)
	}

	for _, bad := range []string{"", "jane", "Jane <jane@example.com>", "@example.com"} {
		if _, err := user.NormalizeEmail(bad); !errors.Is(err, user.ErrInvalidEmail) {
			t.Errorf("NormalizeEmail(%q): expected ErrInvalidEmail, got %v", bad, err)
		}
	}
}

func TestDisplayName(t *testing.T) {
	u := &user.User{UserName: "jdoe"}
	if u.DisplayName() != "jdoe" {
		t.Fatalf("expected user name fallback, got %q", u.DisplayName())
	}
	u.GivenName, u.Surname = "Jane", "Doe"
	if u.DisplayName() != "Jane Doe" {
		t.Fatalf("unexpected display name %q", u.DisplayName())
	}
}

func TestBuildSearchIndex(t *testing.T) {
	u := &user.User{Email: "jane@example.com", UserName: "JDoe", GivenName: "Jane"}
	u.BuildSearchIndex()
	if u.SearchIndex != "jane@example.com~jdoe~jane" {
		t.Fatalf("unexpected index %q", u.SearchIndex)
	}
}

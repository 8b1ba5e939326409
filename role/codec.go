package role

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/tenancy/tenant"
)

// Separator splits the tenant from the label in a tenant role name.
const Separator = "#"

// ErrInvalidLabel is returned when a role label is empty or contains the
// separator.
var ErrInvalidLabel = errors.New("role: label must be non-empty and must not contain '#'")

// ValidateLabel checks a role label.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" || strings.Contains(label, Separator) {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return nil
}

// EncodeSystemRole returns the name of a system role, which is its trimmed
// label.
func EncodeSystemRole(label string) (string, error) {
	if err := ValidateLabel(label); err != nil {
		return "", err
	}
	return strings.TrimSpace(label), nil
}

// EncodeTenantRole returns lower(trim(tenantID)) + "#" + trim(label).
func EncodeTenantRole(tenantID, label string) (string, error) {
	if err := ValidateLabel(label); err != nil {
		return "", err
	}
	t := tenant.NormalizeID(tenantID)
	if err := tenant.ValidateID(t); err != nil {
		return "", err
	}
	return t + Separator + strings.TrimSpace(label), nil
}

// MustEncodeTenantRole is like EncodeTenantRole but panics on error. Use for
// constant inputs.
func MustEncodeTenantRole(tenantID, label string) string {
	name, err := EncodeTenantRole(tenantID, label)
	if err != nil {
		panic(err)
	}
	return name
}

// DecodeLabel returns the label part of a role name.
func DecodeLabel(name string) string {
	if _, label, ok := strings.Cut(name, Separator); ok {
		return strings.TrimSpace(label)
	}
	return strings.TrimSpace(name)
}

// DecodeTenant returns the tenant part of a role name, or "" for a system
// role.
func DecodeTenant(name string) string {
	if t, _, ok := strings.Cut(name, Separator); ok {
		return tenant.NormalizeID(t)
	}
	return ""
}

// IsSystemRole reports whether name denotes a system role.
func IsSystemRole(name string) bool { return DecodeTenant(name) == "" }

// IsTenantRole reports whether name denotes a tenant role.
func IsTenantRole(name string) bool { return !IsSystemRole(name) }

package extension

import (
	"time"

	"github.com/xraph/tenancy"
)

// Config holds the tenancy extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.tenancy" or "tenancy" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableLookup skips the country and currency routes.
	DisableLookup bool `json:"disable_lookup" mapstructure:"disable_lookup" yaml:"disable_lookup"`

	// BasePath is the URL prefix for tenancy routes (default: none, routes
	// live under /v1).
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// SeedSystemRoles creates the Administrator and User roles on start.
	SeedSystemRoles bool `json:"seed_system_roles" mapstructure:"seed_system_roles" yaml:"seed_system_roles"`

	// CacheTTL is the lifetime of cached memberships. Zero disables the
	// in-memory membership cache unless one is supplied with WithCache.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// ProtectLastOwner refuses to remove the only Owner of a tenant.
	ProtectLastOwner bool `json:"protect_last_owner" mapstructure:"protect_last_owner" yaml:"protect_last_owner"`

	// DefaultMemberRole is the role label given to users added in bulk.
	DefaultMemberRole string `json:"default_member_role" mapstructure:"default_member_role" yaml:"default_member_role"`

	// RequireMembership gates member routes: reads need a member of the
	// tenant, writes need an owner.
	RequireMembership bool `json:"require_membership" mapstructure:"require_membership" yaml:"require_membership"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SeedSystemRoles:   true,
		CacheTTL:          5 * time.Minute,
		ProtectLastOwner:  true,
		DefaultMemberRole: "Member",
	}
}

// managerConfig converts the extension settings into Manager settings.
func (c Config) managerConfig() tenancy.Config {
	protect := c.ProtectLastOwner
	mc := tenancy.DefaultConfig()
	mc.ProtectLastOwner = &protect
	if c.CacheTTL > 0 {
		mc.CacheTTL = c.CacheTTL
	}
	if c.DefaultMemberRole != "" {
		mc.AssignDefaultRole = c.DefaultMemberRole
	}
	return mc
}

package tenancy

import "time"

// Config holds configuration for the tenancy Manager.
type Config struct {
	// CacheTTL is the time-to-live for cached memberships. Used when a
	// cache is built from this configuration.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// ProtectLastOwner refuses to remove the only Owner of a tenant.
	// Defaults to true.
	ProtectLastOwner *bool `json:"protect_last_owner,omitempty"`

	// AssignDefaultRole is the label granted to users added in bulk when
	// the caller does not name one. Defaults to "Member".
	AssignDefaultRole string `json:"assign_default_role,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		CacheTTL:          5 * time.Minute,
		ProtectLastOwner:  &t,
		AssignDefaultRole: "Member",
	}
}

func (c Config) protectLastOwner() bool { return c.ProtectLastOwner == nil || *c.ProtectLastOwner }

func (c Config) defaultRole() string {
	if c.AssignDefaultRole == "" {
		return "Member"
	}
	return c.AssignDefaultRole
}

package role

// Labels of the default tenant roles.
const (
	LabelNone        = "None"
	LabelOwner       = "Owner"
	LabelManager     = "Manager"
	LabelContributer = "Contributer"
	LabelMember      = "Member"
	LabelGuest       = "Guest"
)

// Labels of the system roles.
const (
	LabelAdministrator = "Administrator"
	LabelUser          = "User"
)

// DefaultTenantLabels returns the labels materialized for every tenant, in
// descending order of privilege. LabelNone marks "no access" and is never
// persisted, so it is not included.
func DefaultTenantLabels() []string {
	return []string{LabelOwner, LabelManager, LabelContributer, LabelMember, LabelGuest}
}

// SystemLabels returns the labels of the system roles.
func SystemLabels() []string {
	return []string{LabelAdministrator, LabelUser}
}

// DefaultTenantRoles materializes the default roles of a tenant.
func DefaultTenantRoles(tenantID string) ([]*Role, error) {
	labels := DefaultTenantLabels()
	out := make([]*Role, 0, len(labels))
	for _, l := range labels {
		r, err := NewTenant(tenantID, l, "")
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// SystemRoles materializes the system roles.
func SystemRoles() []*Role {
	labels := SystemLabels()
	out := make([]*Role, 0, len(labels))
	for _, l := range labels {
		out = append(out, &Role{Name: l, Label: l})
	}
	return out
}

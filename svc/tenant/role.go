package tenant

import "strings"

// Role is a membership role. External strings enter through ParseRole, which
// is the only place case folding happens.
type Role string

const (
	RoleUnknown     Role = ""
	RoleMember      Role = "member"
	RoleOwner       Role = "owner"
	RoleAgencyAdmin Role = "agency_admin"
	RoleAgencyOwner Role = "agency_owner"
	RoleSuperAdmin  Role = "super_admin"
)

var knownRoles = map[string]Role{
	"member":       RoleMember,
	"owner":        RoleOwner,
	"agency_admin": RoleAgencyAdmin,
	"agency_owner": RoleAgencyOwner,
	"super_admin":  RoleSuperAdmin,
	"superadmin":   RoleSuperAdmin,
}

// ParseRole normalizes a role string. Unknown values yield RoleUnknown.
func ParseRole(s string) Role {
	return knownRoles[strings.ToLower(strings.TrimSpace(s))]
}

// CanAdministerTenant reports whether the role may manage a tenant's billing.
func (r Role) CanAdministerTenant() bool {
	switch r {
	case RoleOwner, RoleAgencyOwner, RoleAgencyAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// CanProvisionClients reports whether the role may create client tenants.
func (r Role) CanProvisionClients() bool {
	return r == RoleAgencyOwner
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// UnmarshalText normalizes roles decoded from JSON or env values.
func (r *Role) UnmarshalText(b []byte) error {
	*r = ParseRole(string(b))
	return nil
}

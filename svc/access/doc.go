// Package access authorizes actors against tenants.
//
// Two rules exist. AuthorizeTenant is the broad rule for billing
// administration: owner, creator, or a member with an administrative role.
// AuthorizeProvisioning is the narrow rule for creating client tenants and
// accepts agency_owner members only, with no fallback to ownership fields.
package access

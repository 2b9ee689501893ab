// Package tenant holds the tenant, membership and project models together
// with their storage ports and the in-memory and MongoDB adapters.
//
// Roles coming from outside the process are normalized once with ParseRole.
// Services compare Role values, never raw strings.
package tenant

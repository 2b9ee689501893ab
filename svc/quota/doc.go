// Package quota enforces the number of client tenants an agency may own.
//
// Guard.CheckSubTenantLimit is a read-only decision. Guard.Admit wraps the
// check and the creation in a per-agency lock taken from a Locker, so two
// concurrent provisioning calls cannot both claim the last slot. Use
// NewMemoryLocker for a single process and NewRedisLocker when several
// replicas serve the same agencies.
package quota

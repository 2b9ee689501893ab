// Package provisioning creates client tenants for agencies.
//
// ProvisionClient walks a fixed sequence of states
// (authorizing, quota_checked, tenant_created, project_seeded,
// invites_created, billing_flagged, recorded, done) on a statemachine.Machine.
// Every step reports a StepResult. A step that aborts before the tenant
// exists fails the call and leaves nothing behind. Once the tenant exists,
// failing steps are logged and the workflow carries on, so the caller always
// gets the new tenant id back.
//
// Invitations are the only parallel step: they are issued with async.Map and
// the workflow waits for all of them before moving on.
//
// GetOnboardingStatus summarizes a client's setup progress for the agency
// dashboard.
package provisioning

// Package agency mounts the agency API: client provisioning, onboarding
// status, add-on pricing and billing, the sub-tenant quota and the activity
// feed.
//
// The caller's identity arrives in the X-Actor-ID header, already
// authenticated by the gateway in front of this service. Authorization is
// done by the services themselves; the quota and activity routes apply the
// broad tenant rule before reading.
package agency

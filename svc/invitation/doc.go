// Package invitation issues pending membership invitations for new client
// tenants.
//
// Tokens are HMAC-signed with pkg/token and carry the invitation id, tenant,
// e-mail, issue time and a random nonce, so each one is unguessable and
// unique. Stores keep only the SHA-256 of the token. Acceptance happens
// elsewhere; this package only creates and reports on invitations.
package invitation

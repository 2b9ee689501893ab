// Package token produces compact signed tokens that embed a JSON payload.
//
// Format: base64url(payload).base64url(HMAC-SHA256(payload)). The payload is
// readable by anyone holding the token, so it must not carry secrets; the
// signature only proves the token was minted by a holder of the key.
//
// Invitation links are the main consumer. Their payload mixes the tenant id,
// the issue time and a random Nonce, which makes every token unique and
// unguessable. Persist Hash(token) rather than the token itself.
//
//	tok, err := token.GenerateToken(invitePayload{TenantID: id, Nonce: n}, secret)
//	p, err := token.ParseToken[invitePayload](tok, secret)
package token

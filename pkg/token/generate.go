package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// GenerateToken JSON-encodes payload and appends an HMAC-SHA256 signature.
// The result is base64url(payload) + "." + base64url(signature).
func GenerateToken[T any](payload T, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Join(ErrEncodePayload, err)
	}

	payloadEnc := base64.RawURLEncoding.EncodeToString(data)
	sigEnc := base64.RawURLEncoding.EncodeToString(sign(data, secret))

	return payloadEnc + "." + sigEnc, nil
}

// Nonce returns n random bytes encoded as hex.
func Nonce(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrRandomSource, err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash returns the hex SHA-256 of a token. Store this instead of the token itself.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func sign(data []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return h.Sum(nil)
}

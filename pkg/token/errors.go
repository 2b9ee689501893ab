package token

import "errors"

var (
	ErrInvalidToken     = errors.New("token.invalid_format")
	ErrSignatureInvalid = errors.New("token.signature_mismatch")
	ErrEmptySecret      = errors.New("token.empty_secret")
	ErrEncodePayload    = errors.New("token.encode_payload")
	ErrRandomSource     = errors.New("token.random_source")
)

package email

import "errors"

var (
	ErrInvalidConfig     = errors.New("email: invalid config")
	ErrInvalidMessage    = errors.New("email: invalid message")
	ErrFailedToSendEmail = errors.New("email: failed to send")
)

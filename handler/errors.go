package handler

import "errors"

var (
	ErrNilResponse = errors.New("handler returned nil response")
	// ErrBind marks request binding failures; they are reported as 400.
	ErrBind = errors.New("handler.bind_failed")
)

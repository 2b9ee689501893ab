package statemachine

import (
	"errors"
	"fmt"
)

var ErrDuplicateTransition = errors.New("statemachine: duplicate transition")

// NoTransitionError means no transition is defined for the state/event pair.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition available from state %q for event %q", e.State, e.Event)
}

func IsNoTransition(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

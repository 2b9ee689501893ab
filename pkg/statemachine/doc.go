// Package statemachine implements a small deterministic finite state machine
// over any comparable state and event types.
//
// Transitions are registered with functional options; each state/event pair
// leads to exactly one state.
//
//	type state string
//	type event string
//
//	m := statemachine.MustNew[state, event]("draft",
//		statemachine.WithTransition[state, event]("draft", "review", "submit"),
//		statemachine.WithTransition[state, event]("review", "published", "approve"),
//	)
//	err := m.Fire("submit")
//
// Fire returns *NoTransitionError when nothing is defined for the current
// state and event, and leaves the state unchanged.
package statemachine

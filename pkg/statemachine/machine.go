package statemachine

import (
	"fmt"
	"sync"
)

type transitionKey[S, E comparable] struct {
	from  S
	event E
}

// Machine is a concurrency-safe deterministic finite state machine over
// comparable state and event types.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	current     S
	transitions map[transitionKey[S, E]]S
}

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// New creates a machine starting in initial.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		current:     initial,
		transitions: make(map[transitionKey[S, E]]S),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on invalid options.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

// WithTransition registers from --event--> to. Registering the same
// from/event pair twice fails with ErrDuplicateTransition.
func WithTransition[S, E comparable](from, to S, event E) Option[S, E] {
	return func(m *Machine[S, E]) error {
		key := transitionKey[S, E]{from: from, event: event}
		if _, ok := m.transitions[key]; ok {
			return fmt.Errorf("%w: %v on %v", ErrDuplicateTransition, from, event)
		}
		m.transitions[key] = to
		return nil
	}
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire applies event to the current state.
func (m *Machine[S, E]) Fire(event E) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	to, ok := m.transitions[transitionKey[S, E]{from: m.current, event: event}]
	if !ok {
		return &NoTransitionError{State: fmt.Sprint(m.current), Event: fmt.Sprint(event)}
	}
	m.current = to
	return nil
}

// Package auth models the session state machine the engine reacts to.
// The login flow itself (OAuth exchange, deep links) lives outside this
// process; callers feed transitions into a Source.
package auth

import "sync"

// State is the authentication lifecycle state.
type State int

const (
	StateInitial State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Source publishes auth state transitions to registered listeners.
type Source struct {
	mu        sync.RWMutex
	state     State
	listeners []func(State)
}

// NewSource creates a source in the Initial state.
func NewSource() *Source {
	return &Source{state: StateInitial}
}

// State returns the current auth state.
func (s *Source) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OnChange registers a callback invoked on every transition. Callbacks run
// synchronously inside Set; listeners that need to do work must hand it off
// to their own goroutine rather than block or re-enter the source.
func (s *Source) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Set transitions to the given state and notifies listeners. Setting the
// current state again is a no-op.
func (s *Source) Set(state State) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	listeners := make([]func(State), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// IsAuthenticated reports whether the current state is Authenticated.
func (s *Source) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

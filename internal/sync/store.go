package sync

import (
	"sync"

	"github.com/google/uuid"
)

// Store holds exactly one State value and publishes replacements to
// subscribers. All writes funnel through Mutate, which re-reads the current
// value immediately before computing its replacement; that single rule is
// the engine's concurrency control. A disposed store silently drops writes,
// which is how results arriving after teardown are discarded.
type Store struct {
	mu       sync.Mutex
	pubMu    sync.Mutex
	state    State
	subs     map[string]func(State)
	disposed bool
}

// NewStore creates a store holding the Initial state.
func NewStore() *Store {
	return &Store{
		state: InitialState(),
		subs:  make(map[string]func(State)),
	}
}

// Get returns the current snapshot.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called with every published snapshot and
// returns a token for Unsubscribe. fn runs on the publishing goroutine and
// must not mutate the snapshot it receives.
func (s *Store) Subscribe(fn func(State)) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.subs[id] = fn
	return id
}

// Unsubscribe removes a previously registered subscriber.
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Mutate applies fn to the latest state and publishes the result. It returns
// false without publishing when the store has been disposed. Snapshots are
// totally ordered by publish time: the lock handoff below guarantees
// subscribers observe publications in the order the replacements were made.
func (s *Store) Mutate(fn func(current State) State) bool {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false
	}
	next := fn(s.state)
	s.state = next

	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}

	// Acquire the publish lock before releasing the state lock so a later
	// writer cannot notify ahead of us.
	s.pubMu.Lock()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	s.pubMu.Unlock()
	return true
}

// Set replaces the state unconditionally.
func (s *Store) Set(state State) bool {
	return s.Mutate(func(State) State { return state })
}

// Dispose marks the store closed. Subsequent writes are dropped; reads keep
// returning the final value.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.subs = make(map[string]func(State))
}

// Disposed reports whether Dispose has been called.
func (s *Store) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Package state implements the single widely-shared mutable object: a
// named collection of boolean-ish states that Toggle branches on and
// that a Map/Hook action may flip at runtime.
package state

import "sync"

// State holds named runtime toggles. It is only ever touched from the
// dispatch loop goroutine, but the mutex keeps it safe if a future
// caller relaxes that invariant, and costs
// nothing on the uncontended path.
type State struct {
	mu   sync.Mutex
	vals map[string]int
}

// New returns an empty State.
func New() *State {
	return &State{vals: make(map[string]int)}
}

// Get returns the current value of a named state (0 if unset).
func (s *State) Get(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals[name]
}

// Set assigns a named state to an explicit value.
func (s *State) Set(name string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[name] = value
}

// Cycle advances a named state to the next value modulo count,
// implementing a Toggle's "advance to the next branch" action.
func (s *State) Cycle(name string, count int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := (s.vals[name] + 1) % count
	s.vals[name] = next
	return next
}

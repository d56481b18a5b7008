// Package session owns the single store instance. The store performs no
// internal locking; every consumer (HTTP handlers, scheduled jobs) reaches
// it through the session, which serializes access at this boundary so the
// store always sees one logical caller at a time.
package session

import (
	"sync"

	"github.com/mstamatakis/drachma/internal/store"
)

// Session is the single logical owner of the store.
type Session struct {
	mu sync.Mutex
	st *store.Store
}

// New wraps a store in a session.
func New(st *store.Store) *Session {
	return &Session{st: st}
}

// Do runs fn with exclusive access to the store.
func (s *Session) Do(fn func(st *store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// View runs fn with exclusive access, for callers that return no error.
func (s *Session) View(fn func(st *store.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

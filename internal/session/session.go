// Package session holds the authenticated principal for one client and
// propagates principal changes to dependents.
//
// The store is the single writer of the principal. Every transition
// (none→P, P→none, P→Q) notifies all subscribed listeners synchronously,
// in registration order, before the mutating call returns, so no dependent
// ever acts on a stale principal.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mkarlsen/tidelist/internal/todo"
)

// Authenticator is the identity collaborator the store delegates to.
// identity.Service is the production implementation.
type Authenticator interface {
	CreateAccount(ctx context.Context, email, password string) (todo.Principal, error)
	VerifyCredentials(ctx context.Context, email, password string) (todo.Principal, error)
	Resume(ctx context.Context, principalID string) (todo.Principal, error)
	EndSession(ctx context.Context) error
}

// Listener observes principal transitions. The argument is the new
// principal, nil when the session ended.
type Listener func(*todo.Principal)

// Store is the session store for one client.
type Store struct {
	auth   Authenticator
	logger *slog.Logger

	mu        sync.Mutex
	principal *todo.Principal
	listeners []registration
	nextID    int64
}

type registration struct {
	id int64
	fn Listener
}

// New creates a session store with no active principal.
func New(auth Authenticator, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{auth: auth, logger: logger}
}

// Current returns the active principal, or nil when unauthenticated.
// The returned value is a copy; mutating it does not affect the store.
func (s *Store) Current() *todo.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil {
		return nil
	}
	p := *s.principal
	return &p
}

// Subscribe registers a listener for principal transitions and returns an
// unsubscribe function. The listener is NOT called with the current value
// at registration time; only transitions notify.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, registration{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, reg := range s.listeners {
			if reg.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Signup delegates credential creation to the identity collaborator and,
// on success, establishes the new principal and notifies dependents.
// On failure the session state is unchanged and the collaborator's error
// is returned verbatim.
func (s *Store) Signup(ctx context.Context, email, password string) error {
	p, err := s.auth.CreateAccount(ctx, email, password)
	if err != nil {
		return err
	}
	s.setPrincipal(&p)
	return nil
}

// Login delegates credential verification and, on success, establishes the
// principal and notifies dependents. On failure the session state is
// unchanged and the collaborator's error is returned verbatim.
func (s *Store) Login(ctx context.Context, email, password string) error {
	p, err := s.auth.VerifyCredentials(ctx, email, password)
	if err != nil {
		return err
	}
	s.setPrincipal(&p)
	return nil
}

// Resume re-establishes a persisted session by principal id, the way a
// returning browser session resumes without credentials.
func (s *Store) Resume(ctx context.Context, principalID string) error {
	p, err := s.auth.Resume(ctx, principalID)
	if err != nil {
		return err
	}
	s.setPrincipal(&p)
	return nil
}

// Logout delegates session termination, clears the principal and notifies
// dependents. A collaborator-side failure is logged, never propagated: the
// local session always ends.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.auth.EndSession(ctx); err != nil {
		s.logger.Error("identity end-session failed", "error", err)
	}
	s.setPrincipal(nil)
	return nil
}

// setPrincipal applies a transition and notifies listeners synchronously,
// in registration order. The lock is not held during callbacks so
// listeners may read Current() or subscribe/unsubscribe.
func (s *Store) setPrincipal(p *todo.Principal) {
	s.mu.Lock()
	s.principal = p
	notify := make([]registration, len(s.listeners))
	copy(notify, s.listeners)
	s.mu.Unlock()

	for _, reg := range notify {
		reg.fn(p)
	}
}

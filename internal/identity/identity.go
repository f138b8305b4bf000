// Package identity implements the credential service behind the session
// store: account creation, credential verification, and session resume.
//
// Passwords are hashed with bcrypt. The package never returns hashes to
// callers; the only success value is a todo.Principal.
package identity

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkarlsen/tidelist/internal/store"
	"github.com/mkarlsen/tidelist/internal/todo"
)

// MinPasswordLength is the weakest password accepted at signup.
const MinPasswordLength = 6

// Service verifies and creates credentials against the store's account
// table.
type Service struct {
	store *store.Store
	cost  int
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides the bcrypt cost. Tests use bcrypt.MinCost to
// keep hashing fast.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// New creates an identity service over st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount registers a new principal for the given credentials.
//
// Fails with ReasonInvalidEmail, ReasonWeakPassword or ReasonEmailInUse;
// collaborator failures surface as ReasonNetwork.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (todo.Principal, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return todo.Principal{}, &AuthError{Reason: ReasonInvalidEmail}
	}
	if len(password) < MinPasswordLength {
		return todo.Principal{}, &AuthError{Reason: ReasonWeakPassword}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return todo.Principal{}, &AuthError{Reason: ReasonNetwork, Err: err}
	}

	acct, err := s.store.CreateAccount(ctx, email, string(hash))
	if errors.Is(err, store.ErrEmailTaken) {
		return todo.Principal{}, &AuthError{Reason: ReasonEmailInUse}
	}
	if err != nil {
		return todo.Principal{}, &AuthError{Reason: ReasonNetwork, Err: err}
	}

	return todo.Principal{ID: acct.ID, Email: acct.Email}, nil
}

// VerifyCredentials checks an email/password pair and returns the matching
// principal.
//
// An unknown email reports ReasonUserNotFound; a wrong password reports
// ReasonInvalidCredentials. Callers that do not want to leak which of the
// two happened can treat both as invalid credentials.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (todo.Principal, error) {
	acct, err := s.store.AccountByEmail(ctx, normalizeEmail(email))
	if store.IsNotFound(err) {
		return todo.Principal{}, &AuthError{Reason: ReasonUserNotFound}
	}
	if err != nil {
		return todo.Principal{}, &AuthError{Reason: ReasonNetwork, Err: err}
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return todo.Principal{}, &AuthError{Reason: ReasonInvalidCredentials}
	}

	return todo.Principal{ID: acct.ID, Email: acct.Email}, nil
}

// Resume re-establishes the principal for a previously issued id, the way
// a persisted browser session resumes without re-entering credentials.
func (s *Service) Resume(ctx context.Context, principalID string) (todo.Principal, error) {
	acct, err := s.store.AccountByID(ctx, principalID)
	if store.IsNotFound(err) {
		return todo.Principal{}, &AuthError{Reason: ReasonUserNotFound}
	}
	if err != nil {
		return todo.Principal{}, &AuthError{Reason: ReasonNetwork, Err: err}
	}
	return todo.Principal{ID: acct.ID, Email: acct.Email}, nil
}

// EndSession terminates the collaborator side of a session. Credentials
// here are cookie-scoped and invalidated at the transport, so there is no
// server-side state to revoke; the method exists so session teardown has a
// delegation point (and a place for token revocation if one is added).
func (s *Service) EndSession(ctx context.Context) error {
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail is a shape check, not RFC validation: the store's UNIQUE
// constraint and the mail round-trip are the real arbiters.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\n")
}

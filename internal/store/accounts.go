package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Account is a stored credential record. The identity service owns the
// semantics (hashing, validation); the store only persists rows.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ErrEmailTaken is returned by CreateAccount when the email is already
// registered.
var ErrEmailTaken = errors.New("email already registered")

// CreateAccount inserts a new account and returns it.
// The store assigns the id (UUIDv7). Email uniqueness is enforced by the
// database; a duplicate reports ErrEmailTaken.
func (s *Store) CreateAccount(ctx context.Context, email, passwordHash string) (Account, error) {
	acct := Account{
		ID:           s.ids.NewID(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, acct.ID, acct.Email, acct.PasswordHash, acct.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, ioError("create account", err)
	}
	return acct, nil
}

// AccountByEmail looks an account up by email. Returns a not-found storage
// error for unknown emails.
func (s *Store) AccountByEmail(ctx context.Context, email string) (Account, error) {
	return s.accountBy(ctx, "email", email)
}

// AccountByID looks an account up by id. Returns a not-found storage error
// for unknown ids.
func (s *Store) AccountByID(ctx context.Context, id string) (Account, error) {
	return s.accountBy(ctx, "id", id)
}

func (s *Store) accountBy(ctx context.Context, column, value string) (Account, error) {
	var acct Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM accounts WHERE `+column+` = ?
	`, value).Scan(&acct.ID, &acct.Email, &acct.PasswordHash, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, notFound("account lookup")
	}
	if err != nil {
		return Account{}, ioError("account lookup", err)
	}
	return acct, nil
}

// isUniqueViolation detects SQLite UNIQUE constraint failures without
// binding to driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

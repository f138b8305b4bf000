package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Current schema (accounts, items, owner/seq index)
const currentSchemaVersion = 1

// IDGenerator produces item and account ids. The default generator
// returns UUIDv7 strings, which sort by creation time.
type IDGenerator interface {
	NewID() string
}

// uuidGenerator is the production IDGenerator.
type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides id generation. Tests inject deterministic
// generators so recorded traces are byte-stable.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// WithNow overrides the wall-clock source used for created_at stamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store provides durable storage for tidelist accounts and items and fans
// change notifications out to live subscriptions.
type Store struct {
	db    *sql.DB
	clock *Clock
	ids   IDGenerator
	now   func() time.Time

	mu      sync.Mutex
	subs    map[string]map[int64]*Subscription // ownerID -> subID -> sub
	nextSub int64
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically, and resumes the
// creation clock from the highest created_seq already on disk.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections to
	// avoid SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	clock, err := resumeClock(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to resume clock: %w", err)
	}

	s := &Store{
		db:    db,
		clock: clock,
		ids:   uuidGenerator{},
		now:   time.Now,
		subs:  make(map[string]map[int64]*Subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close cancels all live subscriptions and closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	var all []*Subscription
	for _, byID := range s.subs {
		for _, sub := range byID {
			all = append(all, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range all {
		sub.Cancel()
	}

	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Clock returns the store's creation clock. Exposed for tests that assert
// on sequence assignment.
func (s *Store) Clock() *Clock {
	return s.clock
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		stmt := fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// resumeClock initializes the creation clock from the highest created_seq
// already present, so restarts never reuse or regress a sequence number.
func resumeClock(db *sql.DB) (*Clock, error) {
	var max sql.NullInt64
	if err := db.QueryRow("SELECT MAX(created_seq) FROM items").Scan(&max); err != nil {
		return nil, err
	}
	if max.Valid {
		return NewClockAt(max.Int64), nil
	}
	return NewClock(), nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// countItems is a convenience used by tests.
func (s *Store) countItems(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items WHERE owner_id = ?", ownerID).Scan(&n)
	return n, err
}

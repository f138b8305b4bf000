package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mkarlsen/tidelist/internal/session"
	"github.com/mkarlsen/tidelist/internal/store"
	"github.com/mkarlsen/tidelist/internal/todo"
)

// State identifies where the synchronizer is in its subscription
// lifecycle.
type State int

const (
	// Unsubscribed means no live query is active (no principal, or torn
	// down).
	Unsubscribed State = iota
	// Subscribing means the live query has been issued but no
	// notification has arrived yet.
	Subscribing
	// Live means notifications are flowing and the snapshot mirrors
	// committed storage state.
	Live
	// Error means the collaborator reported a subscription failure. The
	// snapshot is left at its last-known value.
	Error
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unsubscribed:
		return "unsubscribed"
	case Subscribing:
		return "subscribing"
	case Live:
		return "live"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Subscription is the cancellable handle of a live query.
type Subscription interface {
	Cancel()
}

// Storage is the storage collaborator the synchronizer delegates to.
// *store.Store satisfies it via Wrap.
type Storage interface {
	Subscribe(ownerID string, onChange func([]todo.Item), onError func(error)) Subscription
	InsertItem(ctx context.Context, ownerID, text string) (string, error)
	ToggleItem(ctx context.Context, ownerID, id string) error
	DeleteItem(ctx context.Context, ownerID, id string) error
}

// storeStorage adapts *store.Store to Storage (the concrete Subscribe
// returns *store.Subscription, which narrows to the interface here).
type storeStorage struct {
	st *store.Store
}

func (w storeStorage) Subscribe(ownerID string, onChange func([]todo.Item), onError func(error)) Subscription {
	return w.st.Subscribe(ownerID, onChange, onError)
}

func (w storeStorage) InsertItem(ctx context.Context, ownerID, text string) (string, error) {
	return w.st.InsertItem(ctx, ownerID, text)
}

func (w storeStorage) ToggleItem(ctx context.Context, ownerID, id string) error {
	return w.st.ToggleItem(ctx, ownerID, id)
}

func (w storeStorage) DeleteItem(ctx context.Context, ownerID, id string) error {
	return w.st.DeleteItem(ctx, ownerID, id)
}

// Wrap adapts a *store.Store to the Storage interface.
func Wrap(st *store.Store) Storage {
	return storeStorage{st: st}
}

// Synchronizer owns the local snapshot for one client. It observes the
// session store and (re)subscribes whenever the principal changes.
type Synchronizer struct {
	storage Storage
	logger  *slog.Logger

	mu          sync.Mutex
	state       State
	principal   *todo.Principal
	snapshot    []todo.Item
	sub         Subscription
	gen         int64 // generation of the active subscription
	lastErr     error
	onChange    func()
	unsubscribe func() // session listener teardown
}

// New creates a synchronizer bound to sess and starts tracking its
// principal immediately: if a principal is already active, the live query
// is issued before New returns.
func New(sess *session.Store, storage Storage, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synchronizer{
		storage: storage,
		logger:  logger,
		state:   Unsubscribed,
	}
	s.unsubscribe = sess.Subscribe(s.principalChanged)
	if p := sess.Current(); p != nil {
		s.principalChanged(p)
	}
	return s
}

// Close tears the synchronizer down: the live query is cancelled and the
// session listener removed. Notifications already in flight are discarded
// by the generation guard.
func (s *Synchronizer) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.principalChanged(nil)
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last subscription error, set when State() == Error.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns a copy of the local snapshot, ordered newest-first.
func (s *Synchronizer) Snapshot() []todo.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]todo.Item, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// OnChange registers a hook invoked after every applied notification and
// state transition. Views use it to re-render. Only one hook is held; nil
// clears it.
func (s *Synchronizer) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// principalChanged is the session listener. It runs synchronously inside
// the session store's transition, so by the time login/logout returns the
// subscription lifecycle has already followed.
func (s *Synchronizer) principalChanged(p *todo.Principal) {
	s.mu.Lock()

	// Any transition invalidates the current subscription first.
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
	s.gen++
	s.snapshot = nil
	s.lastErr = nil

	if p == nil {
		s.state = Unsubscribed
		s.principal = nil
		hook := s.onChange
		s.mu.Unlock()
		if hook != nil {
			hook()
		}
		return
	}

	cp := *p
	s.principal = &cp
	s.state = Subscribing
	gen := s.gen
	s.mu.Unlock()

	sub := s.storage.Subscribe(cp.ID,
		func(items []todo.Item) { s.applyNotification(gen, items) },
		func(err error) { s.subscriptionFailed(gen, err) },
	)

	s.mu.Lock()
	if gen != s.gen {
		// The principal changed again while we were subscribing.
		s.mu.Unlock()
		sub.Cancel()
		return
	}
	s.sub = sub
	hook := s.onChange
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// applyNotification replaces the snapshot wholesale with the
// notification's full result set. Stale generations are discarded: a
// notification that raced a logout or re-login never lands.
func (s *Synchronizer) applyNotification(gen int64, items []todo.Item) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}

	snap := make([]todo.Item, 0, len(items))
	for _, it := range items {
		// Ownership invariant: an item owned by another principal is
		// never displayed, whatever the collaborator sent.
		if s.principal == nil || it.OwnerID != s.principal.ID {
			continue
		}
		snap = append(snap, it)
	}
	s.snapshot = snap
	s.state = Live
	s.lastErr = nil
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// subscriptionFailed records a collaborator-reported subscription failure.
// The snapshot is left at its last-known value; the error is surfaced via
// Err() and logged, and the application keeps running.
func (s *Synchronizer) subscriptionFailed(gen int64, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = Error
	s.lastErr = err
	hook := s.onChange
	s.mu.Unlock()

	s.logger.Error("live query failed", "error", err)
	if hook != nil {
		hook()
	}
}

// AddItem writes a new, uncompleted item owned by the current principal.
//
// Empty or whitespace-only text is rejected as a no-op with
// todo.ErrEmptyText; nothing is written. The snapshot is not touched
// here - the authoritative item arrives with the next notification.
func (s *Synchronizer) AddItem(ctx context.Context, text string) error {
	text, err := todo.CleanText(text)
	if err != nil {
		return err
	}

	owner, err := s.currentOwner()
	if err != nil {
		return err
	}

	if _, err := s.storage.InsertItem(ctx, owner, text); err != nil {
		s.logger.Error("add item failed", "error", err)
		return err
	}
	return nil
}

// ToggleItem flips the completed flag of the item. The flip is delegated
// to the store's atomic toggle; concurrent toggles from multiple clients
// are last-write-wins there.
func (s *Synchronizer) ToggleItem(ctx context.Context, id string) error {
	owner, err := s.currentOwner()
	if err != nil {
		return err
	}

	if err := s.storage.ToggleItem(ctx, owner, id); err != nil {
		s.logger.Error("toggle item failed", "item", id, "error", err)
		return err
	}
	return nil
}

// DeleteItem removes the item. Idempotent: deleting an id that is already
// gone is a no-op.
func (s *Synchronizer) DeleteItem(ctx context.Context, id string) error {
	owner, err := s.currentOwner()
	if err != nil {
		return err
	}

	if err := s.storage.DeleteItem(ctx, owner, id); err != nil {
		s.logger.Error("delete item failed", "item", id, "error", err)
		return err
	}
	return nil
}

func (s *Synchronizer) currentOwner() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil {
		return "", todo.ErrNoSession
	}
	return s.principal.ID, nil
}

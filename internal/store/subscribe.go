package store

import (
	"context"
	"sync"

	"github.com/mkarlsen/tidelist/internal/todo"
)

// delivery is one queued notification: either a full result set or a
// subscription-level error.
type delivery struct {
	items []todo.Item
	err   error
}

// Subscription is a standing live query over one owner's items.
//
// Notifications are delivered on a dedicated goroutine, one at a time, in
// the order the store emitted them. Each notification carries the FULL
// result set of the owner's query; subscribers replace state wholesale
// rather than patching.
type Subscription struct {
	ownerID  string
	id       int64
	store    *Store
	onChange func([]todo.Item)
	onError  func(error)

	mu     sync.Mutex
	queue  []delivery
	closed bool
	signal chan struct{} // signals queue availability (buffered, size 1)
	done   chan struct{} // closed when the drain goroutine exits
}

// Subscribe registers a live query for ownerID's items, ordered
// newest-first. The current result set is delivered immediately as the
// first notification; every committed mutation to the owner's items
// triggers a further notification.
//
// onChange receives the full result set. onError receives subscription
// failures (the query could not run); the subscription stays registered so
// a later successful emission can resume it. Both callbacks run on the
// subscription's drain goroutine and must not block indefinitely.
func (s *Store) Subscribe(ownerID string, onChange func([]todo.Item), onError func(error)) *Subscription {
	sub := &Subscription{
		ownerID:  ownerID,
		store:    s,
		onChange: onChange,
		onError:  onError,
		queue:    make([]delivery, 0, 4),
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.nextSub++
	sub.id = s.nextSub
	byID, ok := s.subs[ownerID]
	if !ok {
		byID = make(map[int64]*Subscription)
		s.subs[ownerID] = byID
	}
	byID[sub.id] = sub
	s.mu.Unlock()

	go sub.drain()

	// Initial snapshot, delivered through the same queue as later
	// notifications so the subscriber observes a single ordered stream.
	items, err := s.ItemsByOwner(context.Background(), ownerID)
	if err != nil {
		sub.enqueue(delivery{err: err})
	} else {
		sub.enqueue(delivery{items: items})
	}

	return sub
}

// Cancel tears the subscription down. Queued notifications are dropped and
// no callback runs after the drain goroutine observes the cancel. Safe to
// call more than once.
func (sub *Subscription) Cancel() {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.closed = true
	sub.queue = nil // drop anything not yet delivered
	close(sub.signal)
	sub.mu.Unlock()

	st := sub.store
	st.mu.Lock()
	if byID, ok := st.subs[sub.ownerID]; ok {
		delete(byID, sub.id)
		if len(byID) == 0 {
			delete(st.subs, sub.ownerID)
		}
	}
	st.mu.Unlock()
}

// Done returns a channel closed once the drain goroutine has exited.
// Used by tests to wait for teardown.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

// enqueue appends a delivery. Returns false if the subscription is
// cancelled; a notification arriving after cancellation is dropped, never
// delivered.
func (sub *Subscription) enqueue(d delivery) bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.closed {
		return false
	}

	sub.queue = append(sub.queue, d)

	// Non-blocking signal - buffer of 1 coalesces multiple signals.
	select {
	case sub.signal <- struct{}{}:
	default:
	}

	return true
}

// drain delivers queued notifications in FIFO order until cancelled.
func (sub *Subscription) drain() {
	defer close(sub.done)
	for {
		sub.mu.Lock()
		if sub.closed {
			sub.mu.Unlock()
			return
		}
		if len(sub.queue) == 0 {
			sub.mu.Unlock()
			<-sub.signal
			continue
		}
		d := sub.queue[0]
		// Nil the slot so delivered result sets can be collected.
		sub.queue[0] = delivery{}
		if len(sub.queue) == 1 {
			sub.queue = sub.queue[:0]
		} else {
			sub.queue = sub.queue[1:]
		}
		sub.mu.Unlock()

		if d.err != nil {
			if sub.onError != nil {
				sub.onError(d.err)
			}
			continue
		}
		if sub.onChange != nil {
			sub.onChange(d.items)
		}
	}
}

// notifyOwner re-runs the owner's query and fans the result set out to all
// of the owner's subscriptions. Called after every committed mutation.
//
// A query failure is fanned out through onError; the last successful
// result set stays whatever the subscriber currently holds.
func (s *Store) notifyOwner(ctx context.Context, ownerID string) {
	s.mu.Lock()
	targets := make([]*Subscription, 0, len(s.subs[ownerID]))
	for _, sub := range s.subs[ownerID] {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	items, err := s.ItemsByOwner(ctx, ownerID)
	for _, sub := range targets {
		if err != nil {
			sub.enqueue(delivery{err: err})
			continue
		}
		// Each subscription gets its own copy; subscribers own what they
		// receive.
		cp := make([]todo.Item, len(items))
		copy(cp, items)
		sub.enqueue(delivery{items: cp})
	}
}

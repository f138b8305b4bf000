// Package store provides SQLite-backed storage for tidelist accounts and
// items, plus live queries over a principal's item set.
//
// The store plays the role a hosted document database plays for a typical
// realtime to-do client: it owns the data, assigns ids and creation order
// server-side, and pushes change notifications to standing subscriptions.
//
// # Ordering
//
// Item ordering uses created_seq, a monotonic logical clock assigned on
// insert (see Clock). Wall-clock timestamps are stored for display only and
// are never used for ordering.
//
// # Live queries
//
// Subscribe registers a standing query scoped to one owner. After every
// committed mutation the store re-runs the owner's query and delivers the
// FULL result set to each of that owner's subscriptions. Deliveries are
// queued per subscription and drained by a single goroutine, so a
// subscriber observes notifications in emission order. Cancel drops any
// queued deliveries; nothing is delivered after the subscription's drain
// goroutine observes the cancel.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: tolerate lock contention
//   - foreign_keys=ON
package store

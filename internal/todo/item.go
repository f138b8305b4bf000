package todo

import "time"

// Principal is the authenticated identity associated with a session.
//
// A Principal exists only while a session is active: it is produced by the
// identity service on successful signup/login and discarded on logout.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Item is a single to-do entry.
//
// The ID and CreatedSeq are assigned by the store on insert. CreatedSeq is
// the authoritative ordering key: a monotonic server-side sequence that is
// immune to wall-clock skew between writers. CreatedAt is wall time, kept
// for display only.
//
// INVARIANT: OwnerID always equals the Principal.ID of the session that
// created the item. The synchronizer never displays or mutates an item
// owned by a different principal.
type Item struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Completed  bool      `json:"completed"`
	OwnerID    string    `json:"owner_id"`
	CreatedSeq int64     `json:"created_seq"`
	CreatedAt  time.Time `json:"created_at"`
}

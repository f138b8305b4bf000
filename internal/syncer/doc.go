// Package syncer keeps a client's local item snapshot synchronized with
// the store through a live query scoped to the session's principal.
//
// # State machine
//
// A Synchronizer is always in exactly one of four states:
//
//	Unsubscribed --(principal set)--> Subscribing
//	Subscribing  --(notification)---> Live
//	Live         --(notification)---> Live        (snapshot replaced wholesale)
//	any          --(principal nil)--> Unsubscribed (subscription cancelled)
//	any          --(query failure)--> Error        (snapshot retained)
//
// The local snapshot is a faithful mirror of committed storage state:
// mutations delegate a single write and never patch the snapshot locally;
// the authoritative update arrives with the next change notification. The
// cost is a small latency window between action and visible update.
//
// # Race guard
//
// Every (re)subscription is stamped with a generation number. A
// notification carrying a stale generation - one emitted for a
// subscription that has since been cancelled or replaced - is discarded,
// never applied. This makes "no notification mutates the snapshot after
// teardown" an explicit, testable property rather than a timing accident.
package syncer

// Package testutil provides deterministic collaborators for tests.
//
// The production store assigns UUIDv7 ids and wall-clock timestamps, which
// makes recorded traces differ on every run. Tests that compare against
// golden files swap in the generators here so the same scenario produces
// byte-identical output every time.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator returns "prefix-0001", "prefix-0002", ... in order.
//
// Implements store.IDGenerator. Thread-safe. Reset allows the same
// generator to be reused across scenario runs with identical output.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "id".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// NewID returns the next id in sequence.
func (g *SequentialIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Count returns how many ids have been handed out.
func (g *SequentialIDGenerator) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset rewinds the sequence so the next NewID returns "prefix-0001" again.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

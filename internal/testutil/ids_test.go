package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDGenerator_Order(t *testing.T) {
	g := NewSequentialIDGenerator("item")

	assert.Equal(t, "item-0001", g.NewID())
	assert.Equal(t, "item-0002", g.NewID())
	assert.Equal(t, "item-0003", g.NewID())
	assert.Equal(t, 3, g.Count())
}

func TestSequentialIDGenerator_DefaultPrefix(t *testing.T) {
	g := NewSequentialIDGenerator("")
	assert.Equal(t, "id-0001", g.NewID())
}

func TestSequentialIDGenerator_Reset(t *testing.T) {
	g := NewSequentialIDGenerator("item")
	g.NewID()
	g.NewID()

	g.Reset()
	assert.Equal(t, 0, g.Count())
	assert.Equal(t, "item-0001", g.NewID())
}

func TestSequentialIDGenerator_ThreadSafe(t *testing.T) {
	g := NewSequentialIDGenerator("item")
	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	seen := make(chan string, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				seen <- g.NewID()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[string]bool)
	for id := range seen {
		require.False(t, unique[id], "duplicate id %s", id)
		unique[id] = true
	}
	assert.Len(t, unique, goroutines*perGoroutine)
}

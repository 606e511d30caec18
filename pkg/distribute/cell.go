package distribute

import (
	"sync"
)

// Cell is a single-slot latest-value container with edge-triggered change
// notification. One writer stores values; any number of readers load the
// current value together with a channel that closes on the next store.
// Readers that loop load-notify-load cannot miss an update, though they
// may observe the same value twice.
type Cell[V any] struct {
	mu      sync.Mutex
	value   V
	version uint64
	closed  bool
	notify  chan struct{}
}

// Snapshot is one observation of a cell
type Snapshot[V any] struct {
	Value   V
	Version uint64
	// Closed marks a deleted key; no further stores will happen
	Closed bool
	// changed closes when the cell is stored to or closed after this
	// snapshot was taken
	changed <-chan struct{}
}

// Changed returns a channel that closes on the next store or close
func (s Snapshot[V]) Changed() <-chan struct{} { return s.changed }

// NewCell returns a cell holding an initial value at version 1
func NewCell[V any](v V) *Cell[V] {
	return &Cell[V]{value: v, version: 1, notify: make(chan struct{})}
}

// Store replaces the value and wakes all readers; stores on a closed cell
// are dropped
func (c *Cell[V]) Store(v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.value = v
	c.version++
	close(c.notify)
	c.notify = make(chan struct{})
}

// Close marks the cell deleted and wakes all readers
func (c *Cell[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.notify)
	c.notify = make(chan struct{})
}

// Load returns the current value, its version and the change channel,
// all observed atomically
func (c *Cell[V]) Load() Snapshot[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[V]{Value: c.value, Version: c.version, Closed: c.closed, changed: c.notify}
}

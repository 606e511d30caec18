package distribute

import (
	"context"
	"errors"
	"sync"
)

// ErrWatchClosed is returned by Watch.Next when the watched key was
// deleted from the tree
var ErrWatchClosed = errors.New("watched key was removed")

// Tree is a two-level fanout of latest-value cells: an outer cell per
// namespace tracks key membership, inner cells hold the live value per
// key. Updating one key's value touches only that key's cell; adding or
// removing a key additionally bumps the namespace cell so watchers
// waiting for a key to appear are woken.
//
// The clone function is applied to every value handed to a reader so
// subscribers never share memory with the writer.
type Tree[K comparable, V any] struct {
	clone func(V) V

	mu         sync.RWMutex
	namespaces map[string]*namespaceCells[K, V]
	// bumped when a namespace is created, so watchers of keys in a
	// namespace that does not exist yet have an edge to wait on
	created *Cell[struct{}]
}

type namespaceCells[K comparable, V any] struct {
	// bumped on key add/remove; the value is unused, only the edge matters
	membership *Cell[struct{}]
	keys       map[K]*Cell[V]
}

// NewTree returns an empty tree using clone to copy values out to readers
func NewTree[K comparable, V any](clone func(V) V) *Tree[K, V] {
	return &Tree[K, V]{
		clone:      clone,
		namespaces: make(map[string]*namespaceCells[K, V]),
		created:    NewCell(struct{}{}),
	}
}

// Set creates or updates the cell for (namespace, key)
func (t *Tree[K, V]) Set(namespace string, key K, value V) {
	t.mu.Lock()
	ns, ok := t.namespaces[namespace]
	if !ok {
		ns = &namespaceCells[K, V]{
			membership: NewCell(struct{}{}),
			keys:       make(map[K]*Cell[V]),
		}
		t.namespaces[namespace] = ns
	}
	cell, existed := ns.keys[key]
	if !existed {
		cell = NewCell(value)
		ns.keys[key] = cell
	}
	t.mu.Unlock()

	if existed {
		cell.Store(value)
		return
	}
	ns.membership.Store(struct{}{})
	t.created.Store(struct{}{})
}

// Delete closes and removes the cell for (namespace, key); empty
// namespaces are pruned
func (t *Tree[K, V]) Delete(namespace string, key K) {
	t.mu.Lock()
	ns, ok := t.namespaces[namespace]
	if !ok {
		t.mu.Unlock()
		return
	}
	cell, ok := ns.keys[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(ns.keys, key)
	empty := len(ns.keys) == 0
	if empty {
		delete(t.namespaces, namespace)
	}
	t.mu.Unlock()

	cell.Close()
	ns.membership.Store(struct{}{})
}

// Get returns a cloned copy of the current value for (namespace, key)
func (t *Tree[K, V]) Get(namespace string, key K) (V, bool) {
	t.mu.RLock()
	var cell *Cell[V]
	if ns, ok := t.namespaces[namespace]; ok {
		cell = ns.keys[key]
	}
	t.mu.RUnlock()
	if cell == nil {
		var zero V
		return zero, false
	}
	snap := cell.Load()
	if snap.Closed {
		var zero V
		return zero, false
	}
	return t.clone(snap.Value), true
}

// Len reports the number of live keys across all namespaces
func (t *Tree[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, ns := range t.namespaces {
		n += len(ns.keys)
	}
	return n
}

// Watch is a subscriber cursor over one key's cell
type Watch[V any] struct {
	cell      *Cell[V]
	lastSeen  uint64
	delivered bool
	clone     func(V) V
}

// Watch subscribes to (namespace, key). When the key does not exist yet,
// the call blocks on the namespace membership cell (or, for an absent
// namespace, the tree's creation cell) until the key appears or ctx is
// done. The first Next returns the value current at subscription time.
func (t *Tree[K, V]) Watch(ctx context.Context, namespace string, key K) (*Watch[V], error) {
	for {
		t.mu.RLock()
		created := t.created.Load()
		ns, nsOK := t.namespaces[namespace]
		var cell *Cell[V]
		var membership Snapshot[struct{}]
		if nsOK {
			cell = ns.keys[key]
			membership = ns.membership.Load()
		}
		t.mu.RUnlock()

		if cell != nil {
			return &Watch[V]{cell: cell, clone: t.clone}, nil
		}
		changed := created.Changed()
		if nsOK {
			changed = membership.Changed()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

// Next blocks until the key's value changes (or, on the first call,
// returns the current value immediately). It returns ErrWatchClosed once
// the key is deleted.
func (w *Watch[V]) Next(ctx context.Context) (V, error) {
	var zero V
	for {
		snap := w.cell.Load()
		if snap.Closed {
			return zero, ErrWatchClosed
		}
		if !w.delivered || snap.Version != w.lastSeen {
			w.delivered = true
			w.lastSeen = snap.Version
			return w.clone(snap.Value), nil
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-snap.Changed():
		}
	}
}

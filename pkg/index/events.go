package index

// EventSink receives watch events for one resource kind. Applied upserts
// an item, Deleted removes it by key, Reset bulk-replaces the kind's
// state after a watch reconnect: items is the authoritative set and
// removed lists keys (by namespace) the store no longer has.
//
// The index never calls back into the resource store; sinks are the only
// coupling between the two.
type EventSink[T any] interface {
	Applied(item T)
	Deleted(namespace, name string)
	Reset(items []T, removed map[string]map[string]struct{})
}

// sink adapts per-kind handler funcs on ClusterIndex to the EventSink
// interface; every call funnels through the single writer lock
type sink[T any] struct {
	ix      *ClusterIndex
	applied func(T)
	deleted func(namespace, name string)
	reset   func(items []T, removed map[string]map[string]struct{})
}

func (s sink[T]) Applied(item T) {
	s.ix.mu.Lock()
	defer s.ix.mu.Unlock()
	s.applied(item)
}

func (s sink[T]) Deleted(namespace, name string) {
	s.ix.mu.Lock()
	defer s.ix.mu.Unlock()
	s.deleted(namespace, name)
}

func (s sink[T]) Reset(items []T, removed map[string]map[string]struct{}) {
	s.ix.mu.Lock()
	defer s.ix.mu.Unlock()
	s.reset(items, removed)
}

package watcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/tools/cache"

	"github.com/meshgate/policy-controller/pkg/index"
)

// object is any typed Kubernetes resource
type object interface {
	runtime.Object
	metav1.Object
}

// Store bridges one resource kind's informer to an index event sink. It
// tracks the keys it has forwarded so a bulk resync can tell the sink
// which resources disappeared while the watch was down.
type Store[T object] struct {
	sink   index.EventSink[T]
	logger *zap.SugaredLogger

	mu    sync.Mutex
	known map[string]map[string]struct{}
}

// NewStore creates a store feeding the given sink
func NewStore[T object](sink index.EventSink[T], logger *zap.SugaredLogger) *Store[T] {
	return &Store[T]{
		sink:   sink,
		logger: logger,
		known:  map[string]map[string]struct{}{},
	}
}

// Handler returns the event handler to register on the kind's informer
func (s *Store[T]) Handler() cache.ResourceEventHandler {
	return cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			item, ok := obj.(T)
			if !ok {
				s.logger.Warnf("Unexpected object type %T", obj)
				return
			}
			s.remember(item.GetNamespace(), item.GetName())
			s.sink.Applied(item)
		},
		UpdateFunc: func(oldObj, newObj interface{}) {
			item, ok := newObj.(T)
			if !ok {
				s.logger.Warnf("Unexpected object type %T", newObj)
				return
			}
			if old, ok := oldObj.(T); ok && old.GetResourceVersion() == item.GetResourceVersion() {
				// periodic resync, nothing changed
				return
			}
			s.remember(item.GetNamespace(), item.GetName())
			s.sink.Applied(item)
		},
		DeleteFunc: func(obj interface{}) {
			item, ok := obj.(T)
			if !ok {
				tombstone, ok := obj.(cache.DeletedFinalStateUnknown)
				if !ok {
					s.logger.Warnf("Unexpected tombstone type %T", obj)
					return
				}
				item, ok = tombstone.Obj.(T)
				if !ok {
					s.logger.Warnf("Unexpected object in tombstone %T", tombstone.Obj)
					return
				}
			}
			s.forget(item.GetNamespace(), item.GetName())
			s.sink.Deleted(item.GetNamespace(), item.GetName())
		},
	}
}

// Reset reconciles the sink against an authoritative listing: items are
// re-applied and anything the store no longer has is reported removed
func (s *Store[T]) Reset(items []T) {
	s.mu.Lock()
	removed := map[string]map[string]struct{}{}
	for namespace, names := range s.known {
		for name := range names {
			if removed[namespace] == nil {
				removed[namespace] = map[string]struct{}{}
			}
			removed[namespace][name] = struct{}{}
		}
	}
	next := map[string]map[string]struct{}{}
	for _, item := range items {
		namespace, name := item.GetNamespace(), item.GetName()
		delete(removed[namespace], name)
		if len(removed[namespace]) == 0 {
			delete(removed, namespace)
		}
		if next[namespace] == nil {
			next[namespace] = map[string]struct{}{}
		}
		next[namespace][name] = struct{}{}
	}
	s.known = next
	s.mu.Unlock()

	s.sink.Reset(items, removed)
}

// ResyncEvery runs Reset on a fixed interval from a lister, guarding
// against missed watch events
func (s *Store[T]) ResyncEvery(ctx context.Context, interval time.Duration, list func() ([]T, error)) {
	wait.Until(func() {
		items, err := list()
		if err != nil {
			s.logger.Errorf("Resync list failed: %v", err)
			return
		}
		s.Reset(items)
	}, interval, ctx.Done())
}

func (s *Store[T]) remember(namespace, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.known[namespace] == nil {
		s.known[namespace] = map[string]struct{}{}
	}
	s.known[namespace][name] = struct{}{}
}

func (s *Store[T]) forget(namespace, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.known[namespace], name)
	if len(s.known[namespace]) == 0 {
		delete(s.known, namespace)
	}
}

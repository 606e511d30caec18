package watcher

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/cache"
)

// UnstructuredHandler returns an event handler for a dynamic informer,
// converting each unstructured object into the store's typed form. newT
// allocates an empty target for the conversion.
func (s *Store[T]) UnstructuredHandler(newT func() T) cache.ResourceEventHandler {
	convert := func(obj interface{}) (T, bool) {
		var zero T
		u, ok := obj.(*unstructured.Unstructured)
		if !ok {
			s.logger.Warnf("Unexpected dynamic object type %T", obj)
			return zero, false
		}
		item := newT()
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, item); err != nil {
			s.logger.Warnf("Converting %s %s/%s: %v", u.GetKind(), u.GetNamespace(), u.GetName(), err)
			return zero, false
		}
		return item, true
	}

	return cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			if item, ok := convert(obj); ok {
				s.remember(item.GetNamespace(), item.GetName())
				s.sink.Applied(item)
			}
		},
		UpdateFunc: func(oldObj, newObj interface{}) {
			oldU, okOld := oldObj.(*unstructured.Unstructured)
			newU, okNew := newObj.(*unstructured.Unstructured)
			if okOld && okNew && oldU.GetResourceVersion() == newU.GetResourceVersion() {
				return
			}
			if item, ok := convert(newObj); ok {
				s.remember(item.GetNamespace(), item.GetName())
				s.sink.Applied(item)
			}
		},
		DeleteFunc: func(obj interface{}) {
			if tombstone, ok := obj.(cache.DeletedFinalStateUnknown); ok {
				obj = tombstone.Obj
			}
			u, ok := obj.(*unstructured.Unstructured)
			if !ok {
				s.logger.Warnf("Unexpected dynamic object type %T", obj)
				return
			}
			s.forget(u.GetNamespace(), u.GetName())
			s.sink.Deleted(u.GetNamespace(), u.GetName())
		},
	}
}

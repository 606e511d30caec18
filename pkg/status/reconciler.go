package status

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/util/workqueue"
)

const (
	// ControllerName identifies this controller in route parent statuses
	ControllerName = "policy.meshgate.io/status-controller"

	maxRetries = 5
)

// Reconciler asynchronously patches status subresources with the
// controller's accept/reject decisions. Decisions are coalesced per
// resource: only the latest one is written. Patches are issued only while
// this replica holds leadership, so multiple replicas never fight over
// the same status field.
type Reconciler struct {
	client       dynamic.Interface
	logger       *zap.SugaredLogger
	queue        workqueue.RateLimitingInterface
	patchTimeout time.Duration
	elected      atomic.Bool

	mu      sync.Mutex
	pending map[string]Decision
}

// NewReconciler creates a status reconciler writing through the given
// dynamic client
func NewReconciler(client dynamic.Interface, logger *zap.SugaredLogger, patchTimeout time.Duration) *Reconciler {
	return &Reconciler{
		client:       client,
		logger:       logger.Named("status"),
		queue:        workqueue.NewNamedRateLimitingQueue(workqueue.DefaultControllerRateLimiter(), "status"),
		patchTimeout: patchTimeout,
		pending:      map[string]Decision{},
	}
}

// SetElected gates patching on leadership
func (r *Reconciler) SetElected(leading bool) {
	r.elected.Store(leading)
}

// Record implements Recorder; it never blocks the caller
func (r *Reconciler) Record(d Decision) {
	key := fmt.Sprintf("%s/%s/%s/%s", d.Resource.Group, d.Resource.Resource, d.Namespace, d.Name)
	r.mu.Lock()
	r.pending[key] = d
	r.mu.Unlock()
	r.queue.Add(key)
}

// Run processes decisions until stopCh closes
func (r *Reconciler) Run(workers int, stopCh <-chan struct{}) {
	defer utilruntime.HandleCrash()
	defer r.queue.ShutDown()

	r.logger.Info("Starting status reconciler")
	for i := 0; i < workers; i++ {
		go wait.Until(func() {
			for r.processNextWorkItem() {
			}
		}, time.Second, stopCh)
	}
	<-stopCh
	r.logger.Info("Stopping status reconciler")
}

func (r *Reconciler) processNextWorkItem() bool {
	obj, shutdown := r.queue.Get()
	if shutdown {
		return false
	}
	defer r.queue.Done(obj)

	key := obj.(string)
	r.mu.Lock()
	d, ok := r.pending[key]
	r.mu.Unlock()
	if !ok {
		r.queue.Forget(obj)
		return true
	}

	if !r.elected.Load() {
		// a non-leader never writes; the decision stays pending and is
		// re-enqueued when leadership is gained
		r.queue.Forget(obj)
		return true
	}

	if err := r.patch(d); err != nil {
		if apierrors.IsNotFound(err) {
			// the resource was deleted after the decision was recorded;
			// drop it so the pending map tracks live resources only
			r.logger.Debugf("Dropping status for deleted resource %s", key)
			r.mu.Lock()
			delete(r.pending, key)
			r.mu.Unlock()
			r.queue.Forget(obj)
			return true
		}
		if r.queue.NumRequeues(obj) < maxRetries {
			r.logger.Warnf("Status patch for %s failed, retrying: %v", key, err)
			r.queue.AddRateLimited(obj)
			return true
		}
		r.logger.Errorf("Status patch for %s failed, giving up: %v", key, err)
	}
	r.queue.Forget(obj)
	return true
}

// Resync re-enqueues every pending decision, e.g. on becoming leader
func (r *Reconciler) Resync() {
	r.mu.Lock()
	keys := make([]string, 0, len(r.pending))
	for k := range r.pending {
		keys = append(keys, k)
	}
	r.mu.Unlock()
	for _, k := range keys {
		r.queue.Add(k)
	}
}

func (r *Reconciler) patch(d Decision) error {
	body, err := json.Marshal(map[string]any{"status": statusBody(d)})
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.patchTimeout)
	defer cancel()

	_, err = r.client.Resource(d.Resource).Namespace(d.Namespace).
		Patch(ctx, d.Name, types.MergePatchType, body, metav1.PatchOptions{}, "status")
	if err != nil {
		return fmt.Errorf("patching %s %s/%s: %w", d.Resource.Resource, d.Namespace, d.Name, err)
	}
	r.logger.Debugf("Patched status of %s %s/%s", d.Resource.Resource, d.Namespace, d.Name)
	return nil
}

// statusBody renders a decision into the status shape of the target
// resource: Gateway API routes carry per-parent condition lists, policy
// resources carry a flat condition list.
func statusBody(d Decision) map[string]any {
	now := metav1.Now()
	if d.Resource.Group == "gateway.networking.k8s.io" {
		parents := make([]map[string]any, 0, len(d.Parents))
		for _, p := range d.Parents {
			parents = append(parents, map[string]any{
				"parentRef":      parentRef(p),
				"controllerName": ControllerName,
				"conditions":     []map[string]any{condition(p, d.Generation, now)},
			})
		}
		return map[string]any{"parents": parents}
	}

	conditions := make([]map[string]any, 0, len(d.Parents))
	for _, p := range d.Parents {
		conditions = append(conditions, condition(p, d.Generation, now))
	}
	return map[string]any{"conditions": conditions}
}

func parentRef(p ParentStatus) map[string]any {
	ref := map[string]any{
		"group": p.Group,
		"kind":  p.Kind,
		"name":  p.Name,
	}
	if p.Namespace != "" {
		ref["namespace"] = p.Namespace
	}
	if p.Port != 0 {
		ref["port"] = p.Port
	}
	return ref
}

func condition(p ParentStatus, generation int64, now metav1.Time) map[string]any {
	s := metav1.ConditionTrue
	if !p.Accepted {
		s = metav1.ConditionFalse
	}
	c := map[string]any{
		"type":               "Accepted",
		"status":             string(s),
		"reason":             p.Reason,
		"lastTransitionTime": now.Format(time.RFC3339),
		"observedGeneration": generation,
	}
	if p.Message != "" {
		c["message"] = p.Message
	}
	return c
}

package index

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"

	policyv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/policy/v1alpha1"
	workloadv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/workload/v1alpha1"
	"github.com/meshgate/policy-controller/pkg/distribute"
	"github.com/meshgate/policy-controller/pkg/policy"
	"github.com/meshgate/policy-controller/pkg/status"
)

// ErrNotFound is returned by Subscribe* when the requested workload or
// outbound target is not in the index
var ErrNotFound = fmt.Errorf("not found in index")

// InboundKey identifies one inbound policy value within a namespace
type InboundKey struct {
	Workload string
	Port     uint16
}

// OutboundKey identifies one outbound policy value within the parent's
// namespace
type OutboundKey struct {
	Kind   string
	Name   string
	Port   uint16
	Source string
}

type backendKey struct {
	kind      string
	namespace string
	name      string
}

type outboundKeyRef struct {
	namespace string
	key       OutboundKey
}

// ClusterIndex is the live, queryable join over every watched resource
// kind. A single writer applies events under mu; readers consume values
// through the distribution trees only and never take the writer lock.
type ClusterIndex struct {
	logger   *zap.SugaredLogger
	cluster  policy.ClusterInfo
	recorder status.Recorder
	metrics  *Metrics

	mu         sync.Mutex
	namespaces map[string]*NamespaceIndex
	nodes      *NodeIndex
	// live cluster default; replaces cluster.DefaultPolicy when changed
	defaultPolicy policy.DefaultPolicy
	// cluster-wide reverse lookup of service cluster IPs
	serviceByIP map[netip.Addr]workloadKey

	// keys with at least one past subscriber, per namespace; only these
	// are recomputed on change
	inboundKeys  map[string]map[InboundKey]struct{}
	outboundKeys map[string]map[OutboundKey]struct{}
	// reverse dependencies: backend -> outbound keys whose value names it
	backendDeps map[backendKey]map[outboundKeyRef]struct{}

	inbound  *distribute.Tree[InboundKey, *policy.InboundServer]
	outbound *distribute.Tree[OutboundKey, *policy.OutboundPolicy]
}

// New creates an empty index. recorder may be nil to disable status
// decisions.
func New(logger *zap.SugaredLogger, cluster policy.ClusterInfo, recorder status.Recorder, metrics *Metrics) *ClusterIndex {
	if recorder == nil {
		recorder = status.NopRecorder{}
	}
	return &ClusterIndex{
		logger:        logger.Named("index"),
		cluster:       cluster,
		recorder:      recorder,
		metrics:       metrics,
		namespaces:    map[string]*NamespaceIndex{},
		nodes:         newNodeIndex(),
		defaultPolicy: cluster.DefaultPolicy,
		serviceByIP:   map[netip.Addr]workloadKey{},
		inboundKeys:   map[string]map[InboundKey]struct{}{},
		outboundKeys:  map[string]map[OutboundKey]struct{}{},
		backendDeps:   map[backendKey]map[outboundKeyRef]struct{}{},
		inbound:       distribute.NewTree[InboundKey](func(v *policy.InboundServer) *policy.InboundServer { return v.Clone() }),
		outbound:      distribute.NewTree[OutboundKey](func(v *policy.OutboundPolicy) *policy.OutboundPolicy { return v.Clone() }),
	}
}

func (ix *ClusterIndex) ns(name string) *NamespaceIndex {
	n, ok := ix.namespaces[name]
	if !ok {
		n = newNamespaceIndex(name)
		ix.namespaces[name] = n
	}
	return n
}

// prune drops a namespace that holds nothing anymore
func (ix *ClusterIndex) prune(name string) {
	if n, ok := ix.namespaces[name]; ok && n.empty() {
		delete(ix.namespaces, name)
		ix.metrics.forgetNamespace(name)
	}
}

// SetDefaultPolicy changes the live cluster default and republishes every
// subscribed inbound key, so defaults take effect without restarts
func (ix *ClusterIndex) SetDefaultPolicy(p policy.DefaultPolicy) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.defaultPolicy == p {
		return
	}
	ix.defaultPolicy = p
	for name := range ix.inboundKeys {
		ix.republishNamespaceInbound(name)
	}
}

// --- subscriptions --------------------------------------------------------

// SubscribeInbound registers interest in a (workload, port) key, seeds
// the distribution tree with the current value and returns a watch whose
// first Next yields that value
func (ix *ClusterIndex) SubscribeInbound(ctx context.Context, namespace, workload string, port uint16) (*distribute.Watch[*policy.InboundServer], error) {
	ix.mu.Lock()
	n, ok := ix.namespaces[namespace]
	if !ok {
		ix.mu.Unlock()
		return nil, fmt.Errorf("workload %s/%s: %w", namespace, workload, ErrNotFound)
	}
	w, ok := n.workload(workload)
	if !ok {
		ix.mu.Unlock()
		return nil, fmt.Errorf("workload %s/%s: %w", namespace, workload, ErrNotFound)
	}
	key := InboundKey{Workload: workload, Port: port}
	if ix.inboundKeys[namespace] == nil {
		ix.inboundKeys[namespace] = map[InboundKey]struct{}{}
	}
	if _, registered := ix.inboundKeys[namespace][key]; !registered {
		ix.inboundKeys[namespace][key] = struct{}{}
		ix.inbound.Set(namespace, key, ix.inboundServer(n, w, port))
	}
	ix.mu.Unlock()

	return ix.inbound.Watch(ctx, namespace, key)
}

// SubscribeOutbound registers interest in an outbound
// (parent, port, source-namespace) key
func (ix *ClusterIndex) SubscribeOutbound(ctx context.Context, kind, namespace, name string, port uint16, source string) (*distribute.Watch[*policy.OutboundPolicy], error) {
	ix.mu.Lock()
	n, ok := ix.namespaces[namespace]
	if !ok {
		ix.mu.Unlock()
		return nil, fmt.Errorf("%s %s/%s: %w", kind, namespace, name, ErrNotFound)
	}
	switch kind {
	case policy.ServerKindService:
		if _, ok := n.services[name]; !ok {
			ix.mu.Unlock()
			return nil, fmt.Errorf("service %s/%s: %w", namespace, name, ErrNotFound)
		}
	case policy.ServerKindEgress:
		if _, ok := n.egress[name]; !ok {
			ix.mu.Unlock()
			return nil, fmt.Errorf("egressnetwork %s/%s: %w", namespace, name, ErrNotFound)
		}
	default:
		ix.mu.Unlock()
		return nil, fmt.Errorf("unsupported outbound kind %q", kind)
	}
	key := OutboundKey{Kind: kind, Name: name, Port: port, Source: source}
	if ix.outboundKeys[namespace] == nil {
		ix.outboundKeys[namespace] = map[OutboundKey]struct{}{}
	}
	if _, registered := ix.outboundKeys[namespace][key]; !registered {
		ix.outboundKeys[namespace][key] = struct{}{}
		ix.outbound.Set(namespace, key, ix.outboundPolicy(n, key))
	}
	ix.mu.Unlock()

	return ix.outbound.Watch(ctx, namespace, key)
}

// LookupTarget resolves an IP address to the Service (by cluster IP) or
// EgressNetwork (by most-specific CIDR, preferring the source namespace)
// that claims it
func (ix *ClusterIndex) LookupTarget(addr netip.Addr, source string) (kind, namespace, name string, ok bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if wk, found := ix.serviceByIP[addr]; found {
		return policy.ServerKindService, wk.namespace, wk.name, true
	}

	var candidates []policy.CIDRCandidate
	byIdent := map[[2]string]*egressNetwork{}
	for nsName, n := range ix.namespaces {
		for _, en := range n.egress {
			byIdent[[2]string{nsName, en.name}] = en
			for _, net := range en.networks {
				candidates = append(candidates, policy.CIDRCandidate{
					Prefix:    net.Net,
					Namespace: nsName,
					Name:      en.name,
					CreatedAt: en.createdAt,
				})
			}
		}
	}
	best, found := policy.MostSpecific(candidates, addr, source)
	if !found {
		return "", "", "", false
	}
	return policy.ServerKindEgress, best.Namespace, best.Name, true
}

// --- republication --------------------------------------------------------

// republishWorkload refreshes every subscribed inbound key of one
// workload
func (ix *ClusterIndex) republishWorkload(n *NamespaceIndex, name string) {
	w, ok := n.workload(name)
	if !ok {
		return
	}
	for key := range ix.inboundKeys[n.name] {
		if key.Workload != name {
			continue
		}
		ix.inbound.Set(n.name, key, ix.inboundServer(n, w, key.Port))
	}
}

// republishNamespaceInbound refreshes every subscribed inbound key in a
// namespace; used when a namespace-scoped policy resource changes
func (ix *ClusterIndex) republishNamespaceInbound(namespace string) {
	n, ok := ix.namespaces[namespace]
	if !ok {
		return
	}
	for key := range ix.inboundKeys[namespace] {
		w, ok := n.workload(key.Workload)
		if !ok {
			continue
		}
		ix.inbound.Set(namespace, key, ix.inboundServer(n, w, key.Port))
	}
}

// dropWorkloadKeys removes the inbound keys of a deleted workload
func (ix *ClusterIndex) dropWorkloadKeys(namespace, name string) {
	for key := range ix.inboundKeys[namespace] {
		if key.Workload != name {
			continue
		}
		ix.inbound.Delete(namespace, key)
		delete(ix.inboundKeys[namespace], key)
	}
	if len(ix.inboundKeys[namespace]) == 0 {
		delete(ix.inboundKeys, namespace)
	}
}

// republishOutboundNamespace refreshes every subscribed outbound key
// whose parent lives in the namespace
func (ix *ClusterIndex) republishOutboundNamespace(namespace string) {
	n, ok := ix.namespaces[namespace]
	if !ok {
		return
	}
	for key := range ix.outboundKeys[namespace] {
		ix.outbound.Set(namespace, key, ix.outboundPolicy(n, key))
	}
}

// republishBackendDeps refreshes outbound keys (in any namespace) whose
// value references the given backend, e.g. when the backend appears or
// disappears
func (ix *ClusterIndex) republishBackendDeps(bk backendKey) {
	for ref := range ix.backendDeps[bk] {
		n, ok := ix.namespaces[ref.namespace]
		if !ok {
			continue
		}
		if _, subscribed := ix.outboundKeys[ref.namespace][ref.key]; !subscribed {
			continue
		}
		ix.outbound.Set(ref.namespace, ref.key, ix.outboundPolicy(n, ref.key))
	}
}

// republishRoutesNamespaces refreshes outbound keys in every namespace a
// route in this namespace could be consumed from: the namespace itself
// plus any namespace hosting parents the routes reference
func (ix *ClusterIndex) republishRouteParents(n *NamespaceIndex) {
	seen := map[string]struct{}{n.name: {}}
	ix.republishOutboundNamespace(n.name)
	visit := func(parents []parentRef) {
		for _, p := range parents {
			nsName := p.namespace
			if nsName == "" {
				nsName = n.name
			}
			if _, done := seen[nsName]; done {
				continue
			}
			seen[nsName] = struct{}{}
			ix.republishOutboundNamespace(nsName)
		}
	}
	for _, r := range n.httpRoutes {
		visit(r.parents)
	}
	for _, r := range n.grpcRoutes {
		visit(r.parents)
	}
	for _, r := range n.tlsRoutes {
		visit(r.parents)
	}
	for _, r := range n.tcpRoutes {
		visit(r.parents)
	}
}

// dropParentKeys removes the outbound keys of a deleted Service or
// EgressNetwork
func (ix *ClusterIndex) dropParentKeys(namespace, kind, name string) {
	for key := range ix.outboundKeys[namespace] {
		if key.Kind != kind || key.Name != name {
			continue
		}
		ix.outbound.Delete(namespace, key)
		delete(ix.outboundKeys[namespace], key)
	}
	if len(ix.outboundKeys[namespace]) == 0 {
		delete(ix.outboundKeys, namespace)
	}
}

// trackBackends records the reverse dependencies of a freshly computed
// outbound value
func (ix *ClusterIndex) trackBackends(namespace string, key OutboundKey, backends []backendKey) {
	ref := outboundKeyRef{namespace: namespace, key: key}
	for _, bk := range backends {
		if ix.backendDeps[bk] == nil {
			ix.backendDeps[bk] = map[outboundKeyRef]struct{}{}
		}
		ix.backendDeps[bk][ref] = struct{}{}
	}
}

// --- event sinks ----------------------------------------------------------

// Pods returns the event sink for Pod resources
func (ix *ClusterIndex) Pods() EventSink[*corev1.Pod] {
	return sink[*corev1.Pod]{
		ix: ix,
		applied: func(pod *corev1.Pod) {
			ix.metrics.event("pod", pod.Namespace, "apply")
			w, err := parsePod(pod)
			if err != nil {
				ix.logger.Warnf("Skipping malformed pod: %v", err)
				return
			}
			ix.applyWorkload(w)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("pod", namespace, "delete")
			ix.deleteWorkload(WorkloadPod, namespace, name)
		},
		reset: func(items []*corev1.Pod, removed map[string]map[string]struct{}) {
			for _, pod := range items {
				ix.metrics.event("pod", pod.Namespace, "reset")
				w, err := parsePod(pod)
				if err != nil {
					ix.logger.Warnf("Skipping malformed pod: %v", err)
					continue
				}
				ix.applyWorkload(w)
			}
			for namespace, names := range removed {
				for name := range names {
					ix.deleteWorkload(WorkloadPod, namespace, name)
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyWorkload(w *Workload) {
	n := ix.ns(w.Namespace)
	pool := n.pods
	if w.Kind == WorkloadExternal {
		pool = n.external
	}
	if w.Kind == WorkloadPod && w.Node != "" {
		ips, known := ix.nodes.lookup(w.Node)
		if !known {
			// hold the workload until its node's kubelet IP is known
			ix.nodes.park(w.Node, workloadKey{namespace: w.Namespace, name: w.Name})
		}
		w.KubeletIPs = ips
	}
	if old, ok := pool[w.Name]; ok && old.equal(w) {
		return
	}
	pool[w.Name] = w
	ix.metrics.setResources(string(w.Kind), w.Namespace, len(pool))
	ix.republishWorkload(n, w.Name)
}

func (ix *ClusterIndex) deleteWorkload(kind WorkloadKind, namespace, name string) {
	n, ok := ix.namespaces[namespace]
	if !ok {
		return
	}
	pool := n.pods
	if kind == WorkloadExternal {
		pool = n.external
	}
	if _, ok := pool[name]; !ok {
		return
	}
	delete(pool, name)
	ix.nodes.evict(workloadKey{namespace: namespace, name: name})
	ix.metrics.setResources(string(kind), namespace, len(pool))
	ix.dropWorkloadKeys(namespace, name)
	ix.prune(namespace)
}

// ExternalWorkloads returns the event sink for ExternalWorkload resources
func (ix *ClusterIndex) ExternalWorkloads() EventSink[*workloadv1alpha1.ExternalWorkload] {
	return sink[*workloadv1alpha1.ExternalWorkload]{
		ix: ix,
		applied: func(ew *workloadv1alpha1.ExternalWorkload) {
			ix.metrics.event("externalworkload", ew.Namespace, "apply")
			w, err := parseExternalWorkload(ew)
			if err != nil {
				ix.logger.Warnf("Skipping malformed externalworkload: %v", err)
				return
			}
			ix.applyWorkload(w)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("externalworkload", namespace, "delete")
			ix.deleteWorkload(WorkloadExternal, namespace, name)
		},
		reset: func(items []*workloadv1alpha1.ExternalWorkload, removed map[string]map[string]struct{}) {
			for _, ew := range items {
				ix.metrics.event("externalworkload", ew.Namespace, "reset")
				w, err := parseExternalWorkload(ew)
				if err != nil {
					ix.logger.Warnf("Skipping malformed externalworkload: %v", err)
					continue
				}
				ix.applyWorkload(w)
			}
			for namespace, names := range removed {
				for name := range names {
					ix.deleteWorkload(WorkloadExternal, namespace, name)
				}
			}
		},
	}
}

// Nodes returns the event sink for Node resources
func (ix *ClusterIndex) Nodes() EventSink[*corev1.Node] {
	return sink[*corev1.Node]{
		ix: ix,
		applied: func(node *corev1.Node) {
			ix.metrics.event("node", "", "apply")
			ix.applyNode(node)
		},
		deleted: func(_, name string) {
			ix.metrics.event("node", "", "delete")
			ix.nodes.delete(name)
		},
		reset: func(items []*corev1.Node, removed map[string]map[string]struct{}) {
			for _, node := range items {
				ix.metrics.event("node", "", "reset")
				ix.applyNode(node)
			}
			for _, names := range removed {
				for name := range names {
					ix.nodes.delete(name)
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyNode(node *corev1.Node) {
	flushed, err := ix.nodes.apply(node)
	if err != nil {
		ix.logger.Warnf("Skipping malformed node: %v", err)
		return
	}
	ips, _ := ix.nodes.lookup(node.Name)
	for _, wk := range flushed {
		n, ok := ix.namespaces[wk.namespace]
		if !ok {
			continue
		}
		w, ok := n.pods[wk.name]
		if !ok {
			continue
		}
		w.KubeletIPs = ips
		ix.republishWorkload(n, wk.name)
	}
}

// Namespaces returns the event sink for Namespace resources; only
// policy-relevant annotations are indexed
func (ix *ClusterIndex) Namespaces() EventSink[*corev1.Namespace] {
	return sink[*corev1.Namespace]{
		ix: ix,
		applied: func(obj *corev1.Namespace) {
			ix.metrics.event("namespace", obj.Name, "apply")
			ix.applyNamespaceMeta(obj)
		},
		deleted: func(_, name string) {
			ix.metrics.event("namespace", name, "delete")
			n, ok := ix.namespaces[name]
			if !ok {
				return
			}
			n.defaultPolicy = ""
			n.opaquePorts.Clear()
			ix.republishNamespaceInbound(name)
			ix.prune(name)
		},
		reset: func(items []*corev1.Namespace, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("namespace", obj.Name, "reset")
				ix.applyNamespaceMeta(obj)
			}
			for _, names := range removed {
				for name := range names {
					if n, ok := ix.namespaces[name]; ok {
						n.defaultPolicy = ""
						n.opaquePorts.Clear()
						ix.republishNamespaceInbound(name)
						ix.prune(name)
					}
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyNamespaceMeta(obj *corev1.Namespace) {
	var dp policy.DefaultPolicy
	if v, ok := obj.Annotations[policy.DefaultPolicyAnnotation]; ok {
		parsed, err := policy.ParseDefaultPolicy(v)
		if err != nil {
			ix.logger.Warnf("Ignoring namespace %s default policy: %v", obj.Name, err)
		} else {
			dp = parsed
		}
	}
	opaque, err := annotatedPortSet(obj.Annotations, policy.OpaquePortsAnnotation)
	if err != nil {
		ix.logger.Warnf("Ignoring namespace %s opaque ports: %v", obj.Name, err)
		opaque = nil
	}

	n := ix.ns(obj.Name)
	changed := n.defaultPolicy != dp
	n.defaultPolicy = dp
	if opaque != nil && !n.opaquePorts.Equal(opaque) {
		n.opaquePorts = opaque
		changed = true
	}
	if changed {
		ix.republishNamespaceInbound(obj.Name)
	} else {
		ix.prune(obj.Name)
	}
}

// Services returns the event sink for Service resources
func (ix *ClusterIndex) Services() EventSink[*corev1.Service] {
	return sink[*corev1.Service]{
		ix: ix,
		applied: func(obj *corev1.Service) {
			ix.metrics.event("service", obj.Namespace, "apply")
			ix.applyService(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("service", namespace, "delete")
			ix.deleteService(namespace, name)
		},
		reset: func(items []*corev1.Service, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("service", obj.Namespace, "reset")
				ix.applyService(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					ix.deleteService(namespace, name)
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyService(obj *corev1.Service) {
	svc, err := parseService(obj)
	if err != nil {
		ix.logger.Warnf("Skipping malformed service: %v", err)
		return
	}
	n := ix.ns(obj.Namespace)
	if old, ok := n.services[obj.Name]; ok {
		if old.equal(svc) {
			return
		}
		for _, ip := range old.clusterIPs {
			delete(ix.serviceByIP, ip)
		}
	}
	n.services[obj.Name] = svc
	for _, ip := range svc.clusterIPs {
		ix.serviceByIP[ip] = workloadKey{namespace: obj.Namespace, name: obj.Name}
	}
	ix.metrics.setResources("service", obj.Namespace, len(n.services))
	ix.republishOutboundNamespace(obj.Namespace)
	ix.republishBackendDeps(backendKey{kind: policy.ServerKindService, namespace: obj.Namespace, name: obj.Name})
	ix.recordParentDecisions(targetKindService, obj.Namespace, obj.Name)
}

func (ix *ClusterIndex) deleteService(namespace, name string) {
	n, ok := ix.namespaces[namespace]
	if !ok {
		return
	}
	svc, ok := n.services[name]
	if !ok {
		return
	}
	for _, ip := range svc.clusterIPs {
		delete(ix.serviceByIP, ip)
	}
	delete(n.services, name)
	ix.metrics.setResources("service", namespace, len(n.services))
	ix.dropParentKeys(namespace, policy.ServerKindService, name)
	ix.republishBackendDeps(backendKey{kind: policy.ServerKindService, namespace: namespace, name: name})
	ix.recordParentDecisions(targetKindService, namespace, name)
	ix.prune(namespace)
}

// Servers returns the event sink for Server resources
func (ix *ClusterIndex) Servers() EventSink[*policyv1alpha1.Server] {
	return sink[*policyv1alpha1.Server]{
		ix: ix,
		applied: func(obj *policyv1alpha1.Server) {
			ix.metrics.event("server", obj.Namespace, "apply")
			ix.applyServer(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("server", namespace, "delete")
			n, ok := ix.namespaces[namespace]
			if !ok {
				return
			}
			if _, ok := n.servers[name]; !ok {
				return
			}
			delete(n.servers, name)
			ix.metrics.setResources("server", namespace, len(n.servers))
			ix.republishNamespaceInbound(namespace)
			ix.recordParentDecisions(targetServer, namespace, name)
			ix.prune(namespace)
		},
		reset: func(items []*policyv1alpha1.Server, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("server", obj.Namespace, "reset")
				ix.applyServer(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					if n, ok := ix.namespaces[namespace]; ok {
						delete(n.servers, name)
						ix.republishNamespaceInbound(namespace)
						ix.recordParentDecisions(targetServer, namespace, name)
						ix.prune(namespace)
					}
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyServer(obj *policyv1alpha1.Server) {
	srv, err := parseServer(obj)
	if err != nil {
		ix.logger.Warnf("Skipping malformed server: %v", err)
		return
	}
	n := ix.ns(obj.Namespace)
	if old, ok := n.servers[obj.Name]; ok && old.equal(srv) {
		return
	}
	n.servers[obj.Name] = srv
	ix.metrics.setResources("server", obj.Namespace, len(n.servers))
	ix.republishNamespaceInbound(obj.Namespace)
	ix.recordParentDecisions(targetServer, obj.Namespace, obj.Name)
	ix.recordRateLimitDecisions(n)
}

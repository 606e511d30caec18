package index

import (
	"fmt"
	"maps"
	"net/netip"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	corev1 "k8s.io/api/core/v1"

	workloadv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/workload/v1alpha1"
	"github.com/meshgate/policy-controller/pkg/policy"
)

// WorkloadKind distinguishes pods from external workloads
type WorkloadKind string

const (
	WorkloadPod      WorkloadKind = "pod"
	WorkloadExternal WorkloadKind = "external"
)

// Workload is the index's resolved view of a meshed process group
type Workload struct {
	Kind           WorkloadKind
	Namespace      string
	Name           string
	Labels         map[string]string
	ServiceAccount string
	MeshIdentity   string
	// node the pod runs on; empty for external workloads
	Node string
	IPs  []netip.Addr
	// named container ports
	NamedPorts map[string]uint16
	// ports forced opaque via annotation
	OpaquePorts mapset.Set[uint16]
	// ports requiring client identity via annotation
	RequireIDPorts mapset.Set[uint16]
	// per-workload default policy override; empty means inherit
	DefaultPolicy policy.DefaultPolicy
	// kubelet addresses implicitly authorized for probes; filled in once
	// the workload's Node is known
	KubeletIPs []netip.Addr
}

// equal reports whether two resolved workloads carry the same
// policy-relevant content
func (w *Workload) equal(other *Workload) bool {
	return w.Kind == other.Kind &&
		w.Namespace == other.Namespace &&
		w.Name == other.Name &&
		maps.Equal(w.Labels, other.Labels) &&
		w.ServiceAccount == other.ServiceAccount &&
		w.MeshIdentity == other.MeshIdentity &&
		w.Node == other.Node &&
		slices.Equal(w.IPs, other.IPs) &&
		maps.Equal(w.NamedPorts, other.NamedPorts) &&
		w.OpaquePorts.Equal(other.OpaquePorts) &&
		w.RequireIDPorts.Equal(other.RequireIDPorts) &&
		w.DefaultPolicy == other.DefaultPolicy &&
		slices.Equal(w.KubeletIPs, other.KubeletIPs)
}

// parsePod converts a Pod into a Workload. Malformed annotation values
// fail the whole conversion; the caller logs and skips the pod.
func parsePod(pod *corev1.Pod) (*Workload, error) {
	w := &Workload{
		Kind:           WorkloadPod,
		Namespace:      pod.Namespace,
		Name:           pod.Name,
		Labels:         pod.Labels,
		ServiceAccount: pod.Spec.ServiceAccountName,
		Node:           pod.Spec.NodeName,
		NamedPorts:     map[string]uint16{},
	}
	for _, ip := range pod.Status.PodIPs {
		addr, err := netip.ParseAddr(ip.IP)
		if err != nil {
			return nil, fmt.Errorf("pod %s/%s has invalid IP %q: %w", pod.Namespace, pod.Name, ip.IP, err)
		}
		w.IPs = append(w.IPs, addr)
	}
	for _, c := range pod.Spec.Containers {
		for _, p := range c.Ports {
			if p.Name != "" && p.ContainerPort > 0 {
				w.NamedPorts[p.Name] = uint16(p.ContainerPort)
			}
		}
	}
	var err error
	if w.OpaquePorts, err = annotatedPortSet(pod.Annotations, policy.OpaquePortsAnnotation); err != nil {
		return nil, fmt.Errorf("pod %s/%s: %w", pod.Namespace, pod.Name, err)
	}
	if w.RequireIDPorts, err = annotatedPortSet(pod.Annotations, policy.RequireIDPortsAnnotation); err != nil {
		return nil, fmt.Errorf("pod %s/%s: %w", pod.Namespace, pod.Name, err)
	}
	if v, ok := pod.Annotations[policy.DefaultPolicyAnnotation]; ok {
		dp, err := policy.ParseDefaultPolicy(v)
		if err != nil {
			return nil, fmt.Errorf("pod %s/%s: %w", pod.Namespace, pod.Name, err)
		}
		w.DefaultPolicy = dp
	}
	return w, nil
}

// parseExternalWorkload converts an ExternalWorkload into a Workload
func parseExternalWorkload(ew *workloadv1alpha1.ExternalWorkload) (*Workload, error) {
	w := &Workload{
		Kind:         WorkloadExternal,
		Namespace:    ew.Namespace,
		Name:         ew.Name,
		Labels:       ew.Labels,
		MeshIdentity: ew.Spec.MeshTLS.Identity,
		NamedPorts:   map[string]uint16{},
	}
	if w.MeshIdentity == "" {
		return nil, fmt.Errorf("externalworkload %s/%s has no identity", ew.Namespace, ew.Name)
	}
	for _, ip := range ew.Spec.WorkloadIPs {
		addr, err := netip.ParseAddr(ip.Ip)
		if err != nil {
			return nil, fmt.Errorf("externalworkload %s/%s has invalid IP %q: %w", ew.Namespace, ew.Name, ip.Ip, err)
		}
		w.IPs = append(w.IPs, addr)
	}
	for _, p := range ew.Spec.Ports {
		if p.Name != "" {
			w.NamedPorts[p.Name] = p.Port
		}
	}
	var err error
	if w.OpaquePorts, err = annotatedPortSet(ew.Annotations, policy.OpaquePortsAnnotation); err != nil {
		return nil, fmt.Errorf("externalworkload %s/%s: %w", ew.Namespace, ew.Name, err)
	}
	if w.RequireIDPorts, err = annotatedPortSet(ew.Annotations, policy.RequireIDPortsAnnotation); err != nil {
		return nil, fmt.Errorf("externalworkload %s/%s: %w", ew.Namespace, ew.Name, err)
	}
	return w, nil
}

func annotatedPortSet(annotations map[string]string, key string) (mapset.Set[uint16], error) {
	v, ok := annotations[key]
	if !ok {
		return mapset.NewSet[uint16](), nil
	}
	ports, err := policy.ParsePortSet(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return ports, nil
}

// resolvePort maps a port name or number to a concrete port on the
// workload
func (w *Workload) resolvePort(name string, number uint16) (uint16, bool) {
	if number > 0 {
		return number, true
	}
	p, ok := w.NamedPorts[name]
	return p, ok
}

// NodeIndex maps node names to kubelet addresses. Workloads observed
// before their Node are parked in pending and flushed when it arrives.
type NodeIndex struct {
	kubeletIPs map[string][]netip.Addr
	// node name -> workload keys waiting on it
	pending map[string]map[workloadKey]struct{}
}

type workloadKey struct {
	namespace string
	name      string
}

func newNodeIndex() *NodeIndex {
	return &NodeIndex{
		kubeletIPs: map[string][]netip.Addr{},
		pending:    map[string]map[workloadKey]struct{}{},
	}
}

// lookup returns the kubelet addresses for a node, or false when the node
// has not been observed yet
func (n *NodeIndex) lookup(node string) ([]netip.Addr, bool) {
	ips, ok := n.kubeletIPs[node]
	return ips, ok
}

// apply records a node's addresses and returns the workloads parked on it
func (n *NodeIndex) apply(node *corev1.Node) ([]workloadKey, error) {
	var ips []netip.Addr
	for _, addr := range node.Status.Addresses {
		if addr.Type != corev1.NodeInternalIP {
			continue
		}
		ip, err := netip.ParseAddr(addr.Address)
		if err != nil {
			return nil, fmt.Errorf("node %s has invalid address %q: %w", node.Name, addr.Address, err)
		}
		ips = append(ips, ip)
	}
	n.kubeletIPs[node.Name] = ips

	flushed := make([]workloadKey, 0, len(n.pending[node.Name]))
	for wk := range n.pending[node.Name] {
		flushed = append(flushed, wk)
	}
	delete(n.pending, node.Name)
	return flushed, nil
}

func (n *NodeIndex) delete(name string) {
	delete(n.kubeletIPs, name)
	delete(n.pending, name)
}

// park registers a workload waiting for its node to be observed
func (n *NodeIndex) park(node string, wk workloadKey) {
	if n.pending[node] == nil {
		n.pending[node] = map[workloadKey]struct{}{}
	}
	n.pending[node][wk] = struct{}{}
}

// evict drops a parked workload, e.g. when it is deleted before its node
// arrives
func (n *NodeIndex) evict(wk workloadKey) {
	for node, set := range n.pending {
		delete(set, wk)
		if len(set) == 0 {
			delete(n.pending, node)
		}
	}
}

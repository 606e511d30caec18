package index

import (
	"github.com/meshgate/policy-controller/pkg/policy"
)

// outboundPolicy derives the full outbound policy for one
// (parent, port, source-namespace) key. Called under the writer lock.
func (ix *ClusterIndex) outboundPolicy(n *NamespaceIndex, key OutboundKey) *policy.OutboundPolicy {
	out := &policy.OutboundPolicy{
		Parent: policy.ParentRef{
			Kind:      key.Kind,
			Namespace: n.name,
			Name:      key.Name,
			Port:      key.Port,
		},
	}

	parentKind := targetKindService
	switch key.Kind {
	case policy.ServerKindService:
		svc, ok := n.services[key.Name]
		if !ok {
			return out
		}
		out.Opaque = svc.opaquePorts.Contains(key.Port)
		if svc.accrual != nil {
			fa := *svc.accrual
			out.FailureAccrual = &fa
		}
	case policy.ServerKindEgress:
		parentKind = targetKindEgress
		en, ok := n.egress[key.Name]
		if !ok {
			return out
		}
		out.TrafficPolicy = string(en.trafficPolicy)
	}

	var backends []backendKey
	out.HTTPRoutes, backends = appendRoutes(ix, n, key, parentKind,
		func(ns *NamespaceIndex) map[string]*routeResource[policy.HTTPRouteMatch] { return ns.httpRoutes },
		backends)
	out.GRPCRoutes, backends = appendRoutes(ix, n, key, parentKind,
		func(ns *NamespaceIndex) map[string]*routeResource[policy.GRPCRouteMatch] { return ns.grpcRoutes },
		backends)
	out.TLSRoutes, backends = appendRoutes(ix, n, key, parentKind,
		func(ns *NamespaceIndex) map[string]*routeResource[policy.TLSRouteMatch] { return ns.tlsRoutes },
		backends)
	out.TCPRoutes, backends = appendRoutes(ix, n, key, parentKind,
		func(ns *NamespaceIndex) map[string]*routeResource[policy.TCPRouteMatch] { return ns.tcpRoutes },
		backends)

	if len(out.HTTPRoutes) == 0 && len(out.GRPCRoutes) == 0 &&
		len(out.TLSRoutes) == 0 && len(out.TCPRoutes) == 0 {
		out.TCPRoutes = []policy.OutboundRoute[policy.TCPRouteMatch]{defaultTCPRoute(key, n.name)}
	}

	ix.trackBackends(n.name, key, backends)
	return out
}

// defaultTCPRoute forwards all traffic to the parent itself when no route
// resource attaches to it
func defaultTCPRoute(key OutboundKey, namespace string) policy.OutboundRoute[policy.TCPRouteMatch] {
	return policy.OutboundRoute[policy.TCPRouteMatch]{
		RouteMeta: policy.RouteMeta{
			Ref: policy.RouteRef{Kind: policy.RouteKindTCP, Namespace: namespace, Name: "default"},
		},
		Rules: []policy.OutboundRouteRule[policy.TCPRouteMatch]{{
			Backends: []policy.Backend{{
				Ref: policy.BackendRef{
					Kind:      key.Kind,
					Namespace: namespace,
					Name:      key.Name,
					Port:      key.Port,
					Exists:    true,
				},
				Weight: 1,
			}},
		}},
	}
}

// appendRoutes gathers the routes of one kind attached to the parent.
// Routes defined in the consumer's namespace shadow the producer's; a
// workload's own namespace always wins.
func appendRoutes[M any](ix *ClusterIndex, n *NamespaceIndex, key OutboundKey, parentKind string, pool func(*NamespaceIndex) map[string]*routeResource[M], backends []backendKey) ([]policy.OutboundRoute[M], []backendKey) {
	var selected []*routeResource[M]

	if key.Source != "" && key.Source != n.name {
		if src, ok := ix.namespaces[key.Source]; ok {
			selected = matchParent(pool(src), src.name, n.name, key, parentKind)
		}
	}
	if len(selected) == 0 {
		selected = matchParent(pool(n), n.name, n.name, key, parentKind)
	}
	if len(selected) == 0 {
		return nil, backends
	}

	routes := make([]policy.OutboundRoute[M], 0, len(selected))
	for _, rr := range selected {
		r := policy.CloneOutboundRoute(rr.outbound)
		for i := range r.Rules {
			for j := range r.Rules[i].Backends {
				ref := &r.Rules[i].Backends[j].Ref
				ref.Exists = ix.backendExists(*ref)
				backends = append(backends, backendKey{kind: ref.Kind, namespace: ref.Namespace, name: ref.Name})
			}
		}
		routes = append(routes, r)
	}
	policy.SortRoutes(routes)
	return routes, backends
}

// matchParent filters a namespace's routes of one kind down to those
// whose parentRefs name the key's parent
func matchParent[M any](routes map[string]*routeResource[M], routeNS, parentNS string, key OutboundKey, parentKind string) []*routeResource[M] {
	var out []*routeResource[M]
	for _, rr := range routes {
		for _, p := range rr.parents {
			if p.kind != parentKind || p.name != key.Name {
				continue
			}
			refNS := p.namespace
			if refNS == "" {
				refNS = routeNS
			}
			if refNS != parentNS {
				continue
			}
			if p.port != 0 && p.port != key.Port {
				continue
			}
			out = append(out, rr)
			break
		}
	}
	return out
}

// backendExists checks a backend reference against the live store state;
// the flag flips as backends come and go
func (ix *ClusterIndex) backendExists(ref policy.BackendRef) bool {
	n, ok := ix.namespaces[ref.Namespace]
	if !ok {
		return false
	}
	switch ref.Kind {
	case policy.ServerKindService:
		_, ok := n.services[ref.Name]
		return ok
	case policy.ServerKindEgress:
		_, ok := n.egress[ref.Name]
		return ok
	default:
		return false
	}
}

package index

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"
	gatewayv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"

	"github.com/meshgate/policy-controller/pkg/policy"
)

// parseParentRefs normalizes Gateway API parent references; group and
// namespace defaults are resolved at decision time
func parseParentRefs(refs []gatewayv1.ParentReference) []parentRef {
	out := make([]parentRef, 0, len(refs))
	for _, ref := range refs {
		p := parentRef{name: string(ref.Name)}
		if ref.Group != nil {
			p.group = string(*ref.Group)
		}
		if ref.Kind != nil {
			p.kind = string(*ref.Kind)
		}
		if ref.Namespace != nil {
			p.namespace = string(*ref.Namespace)
		}
		if ref.Port != nil {
			p.port = uint16(*ref.Port)
		}
		out = append(out, p)
	}
	return out
}

func hasServerParent(parents []parentRef) bool {
	for _, p := range parents {
		if p.kind == targetServer {
			return true
		}
	}
	return false
}

// applyRouteResource stores a converted route and republishes the policy
// values it can influence
func applyRouteResource[M any](ix *ClusterIndex, kind string, gvr schema.GroupVersionResource, pool func(*NamespaceIndex) map[string]*routeResource[M], namespace, name string, rr *routeResource[M]) {
	n := ix.ns(namespace)
	routes := pool(n)
	if old, ok := routes[name]; ok && old.src.equal(rr.src) {
		return
	}
	routes[name] = rr
	ix.metrics.setResources(kind, namespace, len(routes))
	if hasServerParent(rr.parents) {
		ix.republishNamespaceInbound(namespace)
	}
	ix.republishRouteParents(n)
	ix.recordRouteDecision(gvr, namespace, name, rr.parents, rr.src.generation)
}

func deleteRouteResource[M any](ix *ClusterIndex, kind string, pool func(*NamespaceIndex) map[string]*routeResource[M], namespace, name string) {
	n, ok := ix.namespaces[namespace]
	if !ok {
		return
	}
	routes := pool(n)
	old, ok := routes[name]
	if !ok {
		return
	}
	delete(routes, name)
	ix.metrics.setResources(kind, namespace, len(routes))
	if hasServerParent(old.parents) {
		ix.republishNamespaceInbound(namespace)
	}
	ix.republishRouteParents(n)
	ix.prune(namespace)
}

// HTTPRoutes returns the event sink for Gateway API HTTPRoute resources
func (ix *ClusterIndex) HTTPRoutes() EventSink[*gatewayv1.HTTPRoute] {
	httpPool := func(n *NamespaceIndex) map[string]*routeResource[policy.HTTPRouteMatch] { return n.httpRoutes }
	apply := func(obj *gatewayv1.HTTPRoute) {
		outbound, err := policy.ConvertHTTPRoute(obj)
		if err != nil {
			ix.logger.Warnf("Skipping malformed httproute %s/%s: %v", obj.Namespace, obj.Name, err)
			return
		}
		rr := &routeResource[policy.HTTPRouteMatch]{
			outbound: outbound,
			parents:  parseParentRefs(obj.Spec.ParentRefs),
			src:      routeSource{spec: obj.Spec, annotations: obj.Annotations, generation: obj.Generation},
		}
		applyRouteResource(ix, "httproute", httpRouteGVR, httpPool, obj.Namespace, obj.Name, rr)
	}
	return sink[*gatewayv1.HTTPRoute]{
		ix: ix,
		applied: func(obj *gatewayv1.HTTPRoute) {
			ix.metrics.event("httproute", obj.Namespace, "apply")
			apply(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("httproute", namespace, "delete")
			deleteRouteResource(ix, "httproute", httpPool, namespace, name)
		},
		reset: func(items []*gatewayv1.HTTPRoute, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("httproute", obj.Namespace, "reset")
				apply(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					deleteRouteResource(ix, "httproute", httpPool, namespace, name)
				}
			}
		},
	}
}

// GRPCRoutes returns the event sink for Gateway API GRPCRoute resources
func (ix *ClusterIndex) GRPCRoutes() EventSink[*gatewayv1.GRPCRoute] {
	grpcPool := func(n *NamespaceIndex) map[string]*routeResource[policy.GRPCRouteMatch] { return n.grpcRoutes }
	apply := func(obj *gatewayv1.GRPCRoute) {
		outbound, err := policy.ConvertGRPCRoute(obj)
		if err != nil {
			ix.logger.Warnf("Skipping malformed grpcroute %s/%s: %v", obj.Namespace, obj.Name, err)
			return
		}
		rr := &routeResource[policy.GRPCRouteMatch]{
			outbound: outbound,
			parents:  parseParentRefs(obj.Spec.ParentRefs),
			src:      routeSource{spec: obj.Spec, annotations: obj.Annotations, generation: obj.Generation},
		}
		applyRouteResource(ix, "grpcroute", grpcRouteGVR, grpcPool, obj.Namespace, obj.Name, rr)
	}
	return sink[*gatewayv1.GRPCRoute]{
		ix: ix,
		applied: func(obj *gatewayv1.GRPCRoute) {
			ix.metrics.event("grpcroute", obj.Namespace, "apply")
			apply(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("grpcroute", namespace, "delete")
			deleteRouteResource(ix, "grpcroute", grpcPool, namespace, name)
		},
		reset: func(items []*gatewayv1.GRPCRoute, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("grpcroute", obj.Namespace, "reset")
				apply(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					deleteRouteResource(ix, "grpcroute", grpcPool, namespace, name)
				}
			}
		},
	}
}

// TLSRoutes returns the event sink for Gateway API TLSRoute resources
func (ix *ClusterIndex) TLSRoutes() EventSink[*gatewayv1alpha2.TLSRoute] {
	tlsPool := func(n *NamespaceIndex) map[string]*routeResource[policy.TLSRouteMatch] { return n.tlsRoutes }
	apply := func(obj *gatewayv1alpha2.TLSRoute) {
		outbound, err := policy.ConvertTLSRoute(obj)
		if err != nil {
			ix.logger.Warnf("Skipping malformed tlsroute %s/%s: %v", obj.Namespace, obj.Name, err)
			return
		}
		rr := &routeResource[policy.TLSRouteMatch]{
			outbound: outbound,
			parents:  parseParentRefs(obj.Spec.ParentRefs),
			src:      routeSource{spec: obj.Spec, annotations: obj.Annotations, generation: obj.Generation},
		}
		applyRouteResource(ix, "tlsroute", tlsRouteGVR, tlsPool, obj.Namespace, obj.Name, rr)
	}
	return sink[*gatewayv1alpha2.TLSRoute]{
		ix: ix,
		applied: func(obj *gatewayv1alpha2.TLSRoute) {
			ix.metrics.event("tlsroute", obj.Namespace, "apply")
			apply(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("tlsroute", namespace, "delete")
			deleteRouteResource(ix, "tlsroute", tlsPool, namespace, name)
		},
		reset: func(items []*gatewayv1alpha2.TLSRoute, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("tlsroute", obj.Namespace, "reset")
				apply(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					deleteRouteResource(ix, "tlsroute", tlsPool, namespace, name)
				}
			}
		},
	}
}

// TCPRoutes returns the event sink for Gateway API TCPRoute resources
func (ix *ClusterIndex) TCPRoutes() EventSink[*gatewayv1alpha2.TCPRoute] {
	tcpPool := func(n *NamespaceIndex) map[string]*routeResource[policy.TCPRouteMatch] { return n.tcpRoutes }
	apply := func(obj *gatewayv1alpha2.TCPRoute) {
		outbound, err := policy.ConvertTCPRoute(obj)
		if err != nil {
			ix.logger.Warnf("Skipping malformed tcproute %s/%s: %v", obj.Namespace, obj.Name, err)
			return
		}
		rr := &routeResource[policy.TCPRouteMatch]{
			outbound: outbound,
			parents:  parseParentRefs(obj.Spec.ParentRefs),
			src:      routeSource{spec: obj.Spec, annotations: obj.Annotations, generation: obj.Generation},
		}
		applyRouteResource(ix, "tcproute", tcpRouteGVR, tcpPool, obj.Namespace, obj.Name, rr)
	}
	return sink[*gatewayv1alpha2.TCPRoute]{
		ix: ix,
		applied: func(obj *gatewayv1alpha2.TCPRoute) {
			ix.metrics.event("tcproute", obj.Namespace, "apply")
			apply(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("tcproute", namespace, "delete")
			deleteRouteResource(ix, "tcproute", tcpPool, namespace, name)
		},
		reset: func(items []*gatewayv1alpha2.TCPRoute, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("tcproute", obj.Namespace, "reset")
				apply(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					deleteRouteResource(ix, "tcproute", tcpPool, namespace, name)
				}
			}
		},
	}
}

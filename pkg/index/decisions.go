package index

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/meshgate/policy-controller/pkg/policy"
	"github.com/meshgate/policy-controller/pkg/status"
)

// Parent kinds a route may attach to, as they appear in parentRefs
const (
	targetKindService = "Service"
	targetKindEgress  = "EgressNetwork"
)

const (
	gatewayGroup = "gateway.networking.k8s.io"
	policyGroup  = "policy.meshgate.io"
)

var (
	httpRouteGVR = schema.GroupVersionResource{Group: gatewayGroup, Version: "v1", Resource: "httproutes"}
	grpcRouteGVR = schema.GroupVersionResource{Group: gatewayGroup, Version: "v1", Resource: "grpcroutes"}
	tlsRouteGVR  = schema.GroupVersionResource{Group: gatewayGroup, Version: "v1alpha2", Resource: "tlsroutes"}
	tcpRouteGVR  = schema.GroupVersionResource{Group: gatewayGroup, Version: "v1alpha2", Resource: "tcproutes"}

	rateLimitGVR = schema.GroupVersionResource{Group: policyGroup, Version: "v1alpha1", Resource: "httplocalratelimitpolicies"}
)

// parentAccepted decides whether one parent reference resolves against
// the current index state
func (ix *ClusterIndex) parentAccepted(routeNamespace string, p parentRef) status.ParentStatus {
	out := status.ParentStatus{
		Group:     p.group,
		Kind:      p.kind,
		Namespace: p.namespace,
		Name:      p.name,
		Port:      p.port,
	}
	parentNS := p.namespace
	if parentNS == "" {
		parentNS = routeNamespace
	}

	switch {
	case p.kind == targetServer && (p.group == policyGroup || p.group == ""):
		// Servers only accept routes from their own namespace
		if parentNS != routeNamespace {
			out.Reason = status.ReasonNoMatchingParent
			out.Message = "Server parents must be in the route's namespace"
			return out
		}
		n, ok := ix.namespaces[parentNS]
		if !ok {
			out.Reason = status.ReasonNoMatchingParent
			out.Message = fmt.Sprintf("Server %s/%s not found", parentNS, p.name)
			return out
		}
		if _, ok := n.servers[p.name]; !ok {
			out.Reason = status.ReasonNoMatchingParent
			out.Message = fmt.Sprintf("Server %s/%s not found", parentNS, p.name)
			return out
		}
	case p.kind == targetKindService && p.group == "":
		n, ok := ix.namespaces[parentNS]
		if !ok {
			out.Reason = status.ReasonNoMatchingParent
			out.Message = fmt.Sprintf("Service %s/%s not found", parentNS, p.name)
			return out
		}
		if _, ok := n.services[p.name]; !ok {
			out.Reason = status.ReasonNoMatchingParent
			out.Message = fmt.Sprintf("Service %s/%s not found", parentNS, p.name)
			return out
		}
	case p.kind == targetKindEgress && p.group == policyGroup:
		n, ok := ix.namespaces[parentNS]
		if !ok {
			out.Reason = status.ReasonNoMatchingParent
			out.Message = fmt.Sprintf("EgressNetwork %s/%s not found", parentNS, p.name)
			return out
		}
		if _, ok := n.egress[p.name]; !ok {
			out.Reason = status.ReasonNoMatchingParent
			out.Message = fmt.Sprintf("EgressNetwork %s/%s not found", parentNS, p.name)
			return out
		}
	default:
		out.Reason = status.ReasonNoMatchingParent
		out.Message = fmt.Sprintf("unsupported parent kind %s.%s", p.kind, p.group)
		return out
	}

	out.Accepted = true
	out.Reason = status.ReasonAccepted
	return out
}

// recordRouteDecision records the accept/reject status of every parent
// reference of one route
func (ix *ClusterIndex) recordRouteDecision(gvr schema.GroupVersionResource, namespace, name string, parents []parentRef, generation int64) {
	d := status.Decision{
		Resource:   gvr,
		Namespace:  namespace,
		Name:       name,
		Generation: generation,
	}
	for _, p := range parents {
		d.Parents = append(d.Parents, ix.parentAccepted(namespace, p))
	}
	ix.recorder.Record(d)
}

// recordParentDecisions re-records decisions for every route referencing
// a parent that just appeared or disappeared. The scan is bounded by the
// number of routes in the cluster.
func (ix *ClusterIndex) recordParentDecisions(kind, namespace, name string) {
	matches := func(routeNS string, parents []parentRef) bool {
		for _, p := range parents {
			parentNS := p.namespace
			if parentNS == "" {
				parentNS = routeNS
			}
			if p.kind == kind && parentNS == namespace && p.name == name {
				return true
			}
		}
		return false
	}
	for _, n := range ix.namespaces {
		for rname, r := range n.httpRoutes {
			if matches(n.name, r.parents) {
				ix.recordRouteDecision(httpRouteGVR, n.name, rname, r.parents, r.src.generation)
			}
		}
		for rname, r := range n.grpcRoutes {
			if matches(n.name, r.parents) {
				ix.recordRouteDecision(grpcRouteGVR, n.name, rname, r.parents, r.src.generation)
			}
		}
		for rname, r := range n.tlsRoutes {
			if matches(n.name, r.parents) {
				ix.recordRouteDecision(tlsRouteGVR, n.name, rname, r.parents, r.src.generation)
			}
		}
		for rname, r := range n.tcpRoutes {
			if matches(n.name, r.parents) {
				ix.recordRouteDecision(tcpRouteGVR, n.name, rname, r.parents, r.src.generation)
			}
		}
	}
}

// recordRateLimitDecisions settles conflicts between rate limit policies
// targeting the same Server: the oldest policy wins, later ones are
// marked Conflicted
func (ix *ClusterIndex) recordRateLimitDecisions(n *NamespaceIndex) {
	byServer := map[string][]*rateLimit{}
	for _, rl := range n.rateLimits {
		byServer[rl.serverName] = append(byServer[rl.serverName], rl)
	}
	for serverName, limits := range byServer {
		sort.Slice(limits, func(i, j int) bool {
			if !limits[i].createdAt.Equal(limits[j].createdAt) {
				return limits[i].createdAt.Before(limits[j].createdAt)
			}
			return limits[i].name < limits[j].name
		})
		_, serverExists := n.servers[serverName]
		for i, rl := range limits {
			parent := status.ParentStatus{
				Group: policyGroup,
				Kind:  targetServer,
				Name:  serverName,
			}
			switch {
			case !serverExists:
				parent.Reason = status.ReasonNoMatchingParent
				parent.Message = fmt.Sprintf("Server %s/%s not found", n.name, serverName)
			case i > 0:
				parent.Reason = status.ReasonConflicted
				parent.Message = fmt.Sprintf("conflicts with older policy %s", limits[0].name)
			default:
				parent.Accepted = true
				parent.Reason = status.ReasonAccepted
			}
			ix.recorder.Record(status.Decision{
				Resource:  rateLimitGVR,
				Namespace: n.name,
				Name:      rl.name,
				Parents:   []status.ParentStatus{parent},
			})
		}
	}
}

// effectiveRateLimit returns the rate limit that applies to a server,
// oldest-created policy first
func (n *NamespaceIndex) effectiveRateLimit(serverName string) *policy.RateLimit {
	var winner *rateLimit
	for _, rl := range n.rateLimits {
		if rl.serverName != serverName {
			continue
		}
		if winner == nil ||
			rl.createdAt.Before(winner.createdAt) ||
			(rl.createdAt.Equal(winner.createdAt) && rl.name < winner.name) {
			winner = rl
		}
	}
	if winner == nil {
		return nil
	}
	spec := winner.spec
	return &spec
}

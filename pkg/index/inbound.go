package index

import (
	"sort"

	"k8s.io/apimachinery/pkg/labels"

	policyv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/policy/v1alpha1"
	"github.com/meshgate/policy-controller/pkg/policy"
)

// inboundServer derives the full inbound policy for one (workload, port)
// key from the namespace's current state. Called under the writer lock.
func (ix *ClusterIndex) inboundServer(n *NamespaceIndex, w *Workload, port uint16) *policy.InboundServer {
	srv := n.selectServer(w, port)
	if srv == nil {
		return ix.defaultInboundServer(n, w, port)
	}

	out := &policy.InboundServer{
		Reference: policy.ServerRef{
			Kind:      policy.ServerKindServer,
			Namespace: n.name,
			Name:      srv.name,
		},
		Protocol:       policy.Protocol{Kind: srv.protocol},
		Authorizations: map[policy.AuthzRef]policy.ClientAuthorization{},
		RateLimit:      n.effectiveRateLimit(srv.name),
	}
	if srv.protocol == policy.ProtocolDetect {
		out.Protocol.DetectTimeout = ix.cluster.DetectTimeout
	}

	// ServerAuthorizations naming or selecting this server
	for _, saz := range n.serverAuthz {
		if saz.serverName != "" && saz.serverName != srv.name {
			continue
		}
		if saz.serverSelector != nil && !saz.serverSelector.Matches(labels.Set(srv.labels)) {
			continue
		}
		ref := policy.AuthzRef{Kind: policy.AuthzKindServerAuthorization, Namespace: n.name, Name: saz.name}
		out.Authorizations[ref] = saz.authz
	}

	// AuthorizationPolicies targeting the server or its namespace
	for _, ap := range n.authzPols {
		if !ap.targetsServer(n.name, srv.name) {
			continue
		}
		authz, ok := ix.resolveAuthns(ap)
		if !ok {
			continue
		}
		ref := policy.AuthzRef{Kind: policy.AuthzKindAuthorizationPolicy, Namespace: n.name, Name: ap.name}
		out.Authorizations[ref] = authz
	}

	// Servers can tighten or audit their own traffic independent of the
	// cluster default
	if srv.accessPolicy != "" && len(out.Authorizations) == 0 {
		for ref, authz := range ix.cluster.DefaultAuthorizations(srv.accessPolicy) {
			out.Authorizations[ref] = authz
		}
	}

	ix.addProbeAuthorization(out.Authorizations, w)
	ix.attachInboundRoutes(n, srv, out)
	return out
}

// defaultInboundServer synthesizes policy for a port no Server selects,
// walking the default-policy chain workload > namespace > cluster
func (ix *ClusterIndex) defaultInboundServer(n *NamespaceIndex, w *Workload, port uint16) *policy.InboundServer {
	dp := ix.defaultPolicy
	if n.defaultPolicy != "" {
		dp = n.defaultPolicy
	}
	if w.DefaultPolicy != "" {
		dp = w.DefaultPolicy
	}
	// the require-identity annotation forces client identity regardless of
	// the default policy
	if w.RequireIDPorts.Contains(port) {
		dp = policy.AllAuthenticated
	}

	out := &policy.InboundServer{
		Reference:      policy.ServerRef{Kind: policy.ServerKindDefault, Name: string(dp)},
		Protocol:       policy.Protocol{Kind: policy.ProtocolDetect, DetectTimeout: ix.cluster.DetectTimeout},
		Authorizations: ix.cluster.DefaultAuthorizations(dp),
	}
	if w.OpaquePorts.Contains(port) || n.opaquePorts.Contains(port) {
		out.Protocol = policy.Protocol{Kind: policy.ProtocolOpaque}
	}
	ix.addProbeAuthorization(out.Authorizations, w)
	return out
}

// selectServer returns the Server selecting the workload's port, oldest
// first when more than one matches
func (n *NamespaceIndex) selectServer(w *Workload, port uint16) *server {
	var matches []*server
	for _, srv := range n.servers {
		if srv.selects(w, port) {
			matches = append(matches, srv)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].createdAt.Equal(matches[j].createdAt) {
			return matches[i].createdAt.Before(matches[j].createdAt)
		}
		return matches[i].name < matches[j].name
	})
	return matches[0]
}

// targetsServer reports whether an AuthorizationPolicy applies to the
// given server, either directly or through its namespace
func (ap *authzPolicy) targetsServer(namespace, serverName string) bool {
	switch ap.target.kind {
	case targetServer:
		return ap.target.name == serverName
	case targetNamespace:
		return ap.target.name == "" || ap.target.name == namespace
	default:
		return false
	}
}

// targetsRoute reports whether an AuthorizationPolicy applies to the
// given route
func (ap *authzPolicy) targetsRoute(kind policy.RouteKind, name string) bool {
	switch ap.target.kind {
	case targetHTTPRoute:
		return kind == policy.RouteKindHTTP && ap.target.name == name
	case targetGRPCRoute:
		return kind == policy.RouteKindGRPC && ap.target.name == name
	default:
		return false
	}
}

// resolveAuthns joins an AuthorizationPolicy with its referenced
// authentication resources. A dangling reference makes the whole
// authorization unresolvable; it is withheld rather than widened.
func (ix *ClusterIndex) resolveAuthns(ap *authzPolicy) (policy.ClientAuthorization, bool) {
	out := policy.ClientAuthorization{}
	var identities []policy.IdentityMatch
	var networks []policy.NetworkMatch

	for _, ref := range ap.authns {
		refNS, ok := ix.namespaces[ref.namespace]
		if !ok {
			return out, false
		}
		switch ref.kind {
		case policyv1alpha1.MeshTLSAuthenticationKind:
			ma, ok := refNS.meshAuthns[ref.name]
			if !ok {
				return out, false
			}
			identities = append(identities, ma.identities...)
		case policyv1alpha1.NetworkAuthenticationKind:
			na, ok := refNS.netAuthns[ref.name]
			if !ok {
				return out, false
			}
			networks = append(networks, na.networks...)
		}
	}

	if len(networks) > 0 {
		out.Networks = networks
	} else {
		out.Networks = policy.AllNetworks()
	}
	if len(identities) > 0 {
		out.Authentication = policy.ClientAuthentication{
			Kind:       policy.AuthnTLSAuthenticated,
			Identities: identities,
		}
	} else {
		out.Authentication = policy.ClientAuthentication{Kind: policy.AuthnUnauthenticated}
	}
	return out, true
}

// addProbeAuthorization permits kubelet health checks without requiring
// an explicit authorization resource
func (ix *ClusterIndex) addProbeAuthorization(authzs map[policy.AuthzRef]policy.ClientAuthorization, w *Workload) {
	if len(ix.cluster.ProbeNetworks) == 0 && len(w.KubeletIPs) == 0 {
		return
	}
	ref, authz := ix.cluster.ProbeAuthorization(w.KubeletIPs)
	authzs[ref] = authz
}

// attachInboundRoutes joins the namespace's HTTP and gRPC routes onto the
// server they parent to, in deterministic creation order
func (ix *ClusterIndex) attachInboundRoutes(n *NamespaceIndex, srv *server, out *policy.InboundServer) {
	serverParent := func(parents []parentRef) bool {
		for _, p := range parents {
			parentNS := p.namespace
			if parentNS == "" {
				parentNS = n.name
			}
			if p.kind == targetServer && parentNS == n.name && p.name == srv.name {
				return true
			}
		}
		return false
	}

	for name, r := range n.httpRoutes {
		if !serverParent(r.parents) {
			continue
		}
		in := policy.AsInbound(r.outbound)
		in.Authorizations = ix.routeAuthorizations(n, policy.RouteKindHTTP, name, out.Authorizations)
		out.HTTPRoutes = append(out.HTTPRoutes, in)
	}
	for name, r := range n.grpcRoutes {
		if !serverParent(r.parents) {
			continue
		}
		in := policy.AsInbound(r.outbound)
		in.Authorizations = ix.routeAuthorizations(n, policy.RouteKindGRPC, name, out.Authorizations)
		out.GRPCRoutes = append(out.GRPCRoutes, in)
	}
	policy.SortRoutes(out.HTTPRoutes)
	policy.SortRoutes(out.GRPCRoutes)
}

// routeAuthorizations is the server's authorization set plus policies
// targeting the route itself
func (ix *ClusterIndex) routeAuthorizations(n *NamespaceIndex, kind policy.RouteKind, name string, serverAuthzs map[policy.AuthzRef]policy.ClientAuthorization) map[policy.AuthzRef]policy.ClientAuthorization {
	out := make(map[policy.AuthzRef]policy.ClientAuthorization, len(serverAuthzs))
	for ref, authz := range serverAuthzs {
		out[ref] = authz
	}
	for _, ap := range n.authzPols {
		if !ap.targetsRoute(kind, name) {
			continue
		}
		authz, ok := ix.resolveAuthns(ap)
		if !ok {
			continue
		}
		ref := policy.AuthzRef{Kind: policy.AuthzKindAuthorizationPolicy, Namespace: n.name, Name: ap.name}
		out[ref] = authz
	}
	return out
}

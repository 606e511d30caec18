package index

import (
	"github.com/google/go-cmp/cmp"

	policyv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/policy/v1alpha1"
	"github.com/meshgate/policy-controller/pkg/policy"
)

// ServerAuthorizations returns the event sink for ServerAuthorization
// resources
func (ix *ClusterIndex) ServerAuthorizations() EventSink[*policyv1alpha1.ServerAuthorization] {
	return sink[*policyv1alpha1.ServerAuthorization]{
		ix: ix,
		applied: func(obj *policyv1alpha1.ServerAuthorization) {
			ix.metrics.event("serverauthorization", obj.Namespace, "apply")
			ix.applyServerAuthz(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("serverauthorization", namespace, "delete")
			ix.deleteServerAuthz(namespace, name)
		},
		reset: func(items []*policyv1alpha1.ServerAuthorization, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("serverauthorization", obj.Namespace, "reset")
				ix.applyServerAuthz(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					ix.deleteServerAuthz(namespace, name)
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyServerAuthz(obj *policyv1alpha1.ServerAuthorization) {
	saz, err := parseServerAuthorization(obj, ix.cluster)
	if err != nil {
		ix.logger.Warnf("Skipping malformed serverauthorization: %v", err)
		return
	}
	n := ix.ns(obj.Namespace)
	if old, ok := n.serverAuthz[obj.Name]; ok && cmp.Equal(old.src, saz.src) {
		return
	}
	n.serverAuthz[obj.Name] = saz
	ix.metrics.setResources("serverauthorization", obj.Namespace, len(n.serverAuthz))
	ix.republishNamespaceInbound(obj.Namespace)
}

func (ix *ClusterIndex) deleteServerAuthz(namespace, name string) {
	n, ok := ix.namespaces[namespace]
	if !ok {
		return
	}
	if _, ok := n.serverAuthz[name]; !ok {
		return
	}
	delete(n.serverAuthz, name)
	ix.metrics.setResources("serverauthorization", namespace, len(n.serverAuthz))
	ix.republishNamespaceInbound(namespace)
	ix.prune(namespace)
}

// AuthorizationPolicies returns the event sink for AuthorizationPolicy
// resources
func (ix *ClusterIndex) AuthorizationPolicies() EventSink[*policyv1alpha1.AuthorizationPolicy] {
	return sink[*policyv1alpha1.AuthorizationPolicy]{
		ix: ix,
		applied: func(obj *policyv1alpha1.AuthorizationPolicy) {
			ix.metrics.event("authorizationpolicy", obj.Namespace, "apply")
			ix.applyAuthzPolicy(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("authorizationpolicy", namespace, "delete")
			ix.deleteAuthzPolicy(namespace, name)
		},
		reset: func(items []*policyv1alpha1.AuthorizationPolicy, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("authorizationpolicy", obj.Namespace, "reset")
				ix.applyAuthzPolicy(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					ix.deleteAuthzPolicy(namespace, name)
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyAuthzPolicy(obj *policyv1alpha1.AuthorizationPolicy) {
	ap, err := parseAuthorizationPolicy(obj)
	if err != nil {
		ix.logger.Warnf("Skipping malformed authorizationpolicy: %v", err)
		return
	}
	n := ix.ns(obj.Namespace)
	if old, ok := n.authzPols[obj.Name]; ok && cmp.Equal(old.src, ap.src) {
		return
	}
	n.authzPols[obj.Name] = ap
	ix.metrics.setResources("authorizationpolicy", obj.Namespace, len(n.authzPols))
	ix.republishNamespaceInbound(obj.Namespace)
}

func (ix *ClusterIndex) deleteAuthzPolicy(namespace, name string) {
	n, ok := ix.namespaces[namespace]
	if !ok {
		return
	}
	if _, ok := n.authzPols[name]; !ok {
		return
	}
	delete(n.authzPols, name)
	ix.metrics.setResources("authorizationpolicy", namespace, len(n.authzPols))
	ix.republishNamespaceInbound(namespace)
	ix.prune(namespace)
}

// MeshTLSAuthentications returns the event sink for MeshTLSAuthentication
// resources
func (ix *ClusterIndex) MeshTLSAuthentications() EventSink[*policyv1alpha1.MeshTLSAuthentication] {
	return sink[*policyv1alpha1.MeshTLSAuthentication]{
		ix: ix,
		applied: func(obj *policyv1alpha1.MeshTLSAuthentication) {
			ix.metrics.event("meshtlsauthentication", obj.Namespace, "apply")
			ix.applyMeshAuthn(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("meshtlsauthentication", namespace, "delete")
			n, ok := ix.namespaces[namespace]
			if !ok {
				return
			}
			if _, ok := n.meshAuthns[name]; !ok {
				return
			}
			delete(n.meshAuthns, name)
			ix.republishAuthnDependents(policyv1alpha1.MeshTLSAuthenticationKind, namespace, name)
			ix.prune(namespace)
		},
		reset: func(items []*policyv1alpha1.MeshTLSAuthentication, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("meshtlsauthentication", obj.Namespace, "reset")
				ix.applyMeshAuthn(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					if n, ok := ix.namespaces[namespace]; ok {
						delete(n.meshAuthns, name)
						ix.republishAuthnDependents(policyv1alpha1.MeshTLSAuthenticationKind, namespace, name)
						ix.prune(namespace)
					}
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyMeshAuthn(obj *policyv1alpha1.MeshTLSAuthentication) {
	ma, err := parseMeshTLSAuthn(obj, ix.cluster)
	if err != nil {
		ix.logger.Warnf("Skipping malformed meshtlsauthentication: %v", err)
		return
	}
	n := ix.ns(obj.Namespace)
	if old, ok := n.meshAuthns[obj.Name]; ok && cmp.Equal(old.src, ma.src) {
		return
	}
	n.meshAuthns[obj.Name] = ma
	ix.republishAuthnDependents(policyv1alpha1.MeshTLSAuthenticationKind, obj.Namespace, obj.Name)
}

// NetworkAuthentications returns the event sink for NetworkAuthentication
// resources
func (ix *ClusterIndex) NetworkAuthentications() EventSink[*policyv1alpha1.NetworkAuthentication] {
	return sink[*policyv1alpha1.NetworkAuthentication]{
		ix: ix,
		applied: func(obj *policyv1alpha1.NetworkAuthentication) {
			ix.metrics.event("networkauthentication", obj.Namespace, "apply")
			ix.applyNetAuthn(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("networkauthentication", namespace, "delete")
			n, ok := ix.namespaces[namespace]
			if !ok {
				return
			}
			if _, ok := n.netAuthns[name]; !ok {
				return
			}
			delete(n.netAuthns, name)
			ix.republishAuthnDependents(policyv1alpha1.NetworkAuthenticationKind, namespace, name)
			ix.prune(namespace)
		},
		reset: func(items []*policyv1alpha1.NetworkAuthentication, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.applyNetAuthn(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					if n, ok := ix.namespaces[namespace]; ok {
						delete(n.netAuthns, name)
						ix.republishAuthnDependents(policyv1alpha1.NetworkAuthenticationKind, namespace, name)
						ix.prune(namespace)
					}
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyNetAuthn(obj *policyv1alpha1.NetworkAuthentication) {
	na, err := parseNetAuthn(obj)
	if err != nil {
		ix.logger.Warnf("Skipping malformed networkauthentication: %v", err)
		return
	}
	n := ix.ns(obj.Namespace)
	if old, ok := n.netAuthns[obj.Name]; ok && cmp.Equal(old.src, na.src) {
		return
	}
	n.netAuthns[obj.Name] = na
	ix.republishAuthnDependents(policyv1alpha1.NetworkAuthenticationKind, obj.Namespace, obj.Name)
}

// republishAuthnDependents refreshes inbound policy in every namespace
// holding an AuthorizationPolicy that references the changed
// authentication; references may cross namespaces
func (ix *ClusterIndex) republishAuthnDependents(kind, namespace, name string) {
	for _, n := range ix.namespaces {
		for _, ap := range n.authzPols {
			for _, ref := range ap.authns {
				if ref.kind == kind && ref.namespace == namespace && ref.name == name {
					ix.republishNamespaceInbound(n.name)
					break
				}
			}
		}
	}
}

// RateLimits returns the event sink for HTTPLocalRateLimitPolicy
// resources
func (ix *ClusterIndex) RateLimits() EventSink[*policyv1alpha1.HTTPLocalRateLimitPolicy] {
	return sink[*policyv1alpha1.HTTPLocalRateLimitPolicy]{
		ix: ix,
		applied: func(obj *policyv1alpha1.HTTPLocalRateLimitPolicy) {
			ix.metrics.event("httplocalratelimitpolicy", obj.Namespace, "apply")
			ix.applyRateLimit(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("httplocalratelimitpolicy", namespace, "delete")
			ix.deleteRateLimit(namespace, name)
		},
		reset: func(items []*policyv1alpha1.HTTPLocalRateLimitPolicy, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("httplocalratelimitpolicy", obj.Namespace, "reset")
				ix.applyRateLimit(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					ix.deleteRateLimit(namespace, name)
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyRateLimit(obj *policyv1alpha1.HTTPLocalRateLimitPolicy) {
	rl, err := parseRateLimit(obj, ix.cluster)
	if err != nil {
		ix.logger.Warnf("Skipping malformed httplocalratelimitpolicy: %v", err)
		return
	}
	n := ix.ns(obj.Namespace)
	if old, ok := n.rateLimits[obj.Name]; ok && cmp.Equal(old.src, rl.src) && old.createdAt.Equal(rl.createdAt) {
		return
	}
	n.rateLimits[obj.Name] = rl
	ix.metrics.setResources("httplocalratelimitpolicy", obj.Namespace, len(n.rateLimits))
	ix.republishNamespaceInbound(obj.Namespace)
	ix.recordRateLimitDecisions(n)
}

func (ix *ClusterIndex) deleteRateLimit(namespace, name string) {
	n, ok := ix.namespaces[namespace]
	if !ok {
		return
	}
	if _, ok := n.rateLimits[name]; !ok {
		return
	}
	delete(n.rateLimits, name)
	ix.metrics.setResources("httplocalratelimitpolicy", namespace, len(n.rateLimits))
	ix.republishNamespaceInbound(namespace)
	ix.recordRateLimitDecisions(n)
	ix.prune(namespace)
}

// EgressNetworks returns the event sink for EgressNetwork resources
func (ix *ClusterIndex) EgressNetworks() EventSink[*policyv1alpha1.EgressNetwork] {
	return sink[*policyv1alpha1.EgressNetwork]{
		ix: ix,
		applied: func(obj *policyv1alpha1.EgressNetwork) {
			ix.metrics.event("egressnetwork", obj.Namespace, "apply")
			ix.applyEgressNetwork(obj)
		},
		deleted: func(namespace, name string) {
			ix.metrics.event("egressnetwork", namespace, "delete")
			ix.deleteEgressNetwork(namespace, name)
		},
		reset: func(items []*policyv1alpha1.EgressNetwork, removed map[string]map[string]struct{}) {
			for _, obj := range items {
				ix.metrics.event("egressnetwork", obj.Namespace, "reset")
				ix.applyEgressNetwork(obj)
			}
			for namespace, names := range removed {
				for name := range names {
					ix.deleteEgressNetwork(namespace, name)
				}
			}
		},
	}
}

func (ix *ClusterIndex) applyEgressNetwork(obj *policyv1alpha1.EgressNetwork) {
	en, err := parseEgressNetwork(obj)
	if err != nil {
		ix.logger.Warnf("Skipping malformed egressnetwork: %v", err)
		return
	}
	n := ix.ns(obj.Namespace)
	if old, ok := n.egress[obj.Name]; ok && cmp.Equal(old.src, en.src) {
		return
	}
	n.egress[obj.Name] = en
	ix.metrics.setResources("egressnetwork", obj.Namespace, len(n.egress))
	ix.republishOutboundNamespace(obj.Namespace)
	ix.republishBackendDeps(backendKey{kind: policy.ServerKindEgress, namespace: obj.Namespace, name: obj.Name})
	ix.recordParentDecisions(targetKindEgress, obj.Namespace, obj.Name)
}

func (ix *ClusterIndex) deleteEgressNetwork(namespace, name string) {
	n, ok := ix.namespaces[namespace]
	if !ok {
		return
	}
	if _, ok := n.egress[name]; !ok {
		return
	}
	delete(n.egress, name)
	ix.metrics.setResources("egressnetwork", namespace, len(n.egress))
	ix.dropParentKeys(namespace, policy.ServerKindEgress, name)
	ix.republishBackendDeps(backendKey{kind: policy.ServerKindEgress, namespace: namespace, name: name})
	ix.recordParentDecisions(targetKindEgress, namespace, name)
	ix.prune(namespace)
}

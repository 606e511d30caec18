package index

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/intstr"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"
	gatewayv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"

	policyv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/policy/v1alpha1"
	"github.com/meshgate/policy-controller/pkg/distribute"
	"github.com/meshgate/policy-controller/pkg/policy"
	"github.com/meshgate/policy-controller/pkg/status"
)

// decisionLog captures status decisions so tests can assert on them
type decisionLog struct {
	mu        sync.Mutex
	decisions []status.Decision
}

func (d *decisionLog) Record(dec status.Decision) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.decisions = append(d.decisions, dec)
}

// last returns the most recent decision recorded for a resource
func (d *decisionLog) last(gvr schema.GroupVersionResource, namespace, name string) (status.Decision, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.decisions) - 1; i >= 0; i-- {
		dec := d.decisions[i]
		if dec.Resource == gvr && dec.Namespace == namespace && dec.Name == name {
			return dec, true
		}
	}
	return status.Decision{}, false
}

func testClusterInfo() policy.ClusterInfo {
	return policy.ClusterInfo{
		Networks:       []policy.NetworkMatch{{Net: netip.MustParsePrefix("10.0.0.0/8")}},
		IdentityDomain: "cluster.local",
		ClusterDomain:  "cluster.local",
		DefaultPolicy:  policy.AllUnauthenticated,
		DetectTimeout:  10 * time.Second,
	}
}

func testIndex(cluster policy.ClusterInfo) (*ClusterIndex, *decisionLog) {
	rec := &decisionLog{}
	return New(zap.NewNop().Sugar(), cluster, rec, nil), rec
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newPod(namespace, name, ip string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: namespace,
			Name:      name,
			Labels:    map[string]string{"app": name},
		},
		Spec:   corev1.PodSpec{ServiceAccountName: "default"},
		Status: corev1.PodStatus{PodIPs: []corev1.PodIP{{IP: ip}}},
	}
}

func newServer(namespace, name string, port int, proto policyv1alpha1.ProxyProtocol, selector map[string]string, created time.Time) *policyv1alpha1.Server {
	return &policyv1alpha1.Server{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:         namespace,
			Name:              name,
			Labels:            map[string]string{"srv": name},
			CreationTimestamp: metav1.NewTime(created),
		},
		Spec: policyv1alpha1.ServerSpec{
			PodSelector:   &metav1.LabelSelector{MatchLabels: selector},
			Port:          intstr.FromInt(port),
			ProxyProtocol: proto,
		},
	}
}

func newService(namespace, name, clusterIP string, annotations map[string]string) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:   namespace,
			Name:        name,
			Annotations: annotations,
		},
		Spec: corev1.ServiceSpec{
			ClusterIP:  clusterIP,
			ClusterIPs: []string{clusterIP},
		},
	}
}

func newNamespace(name string, annotations map[string]string) *corev1.Namespace {
	return &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name, Annotations: annotations},
	}
}

// firstInbound subscribes and returns the initial value
func firstInbound(t *testing.T, ix *ClusterIndex, namespace, workload string, port uint16) (*distribute.Watch[*policy.InboundServer], *policy.InboundServer) {
	t.Helper()
	ctx := testCtx(t)
	w, err := ix.SubscribeInbound(ctx, namespace, workload, port)
	require.NoError(t, err)
	v, err := w.Next(ctx)
	require.NoError(t, err)
	return w, v
}

func TestSubscribeInboundUnknownWorkload(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	_, err := ix.SubscribeInbound(testCtx(t), "apps", "missing", 8080)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInboundClusterDefaultPolicy(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	assert.Equal(t, policy.ServerRef{Kind: policy.ServerKindDefault, Name: "all-unauthenticated"}, v.Reference)
	assert.Equal(t, policy.ProtocolDetect, v.Protocol.Kind)
	assert.Equal(t, 10*time.Second, v.Protocol.DetectTimeout)

	ref := policy.AuthzRef{Kind: policy.AuthzKindDefault, Name: "all-unauthenticated"}
	authz, ok := v.Authorizations[ref]
	require.True(t, ok)
	assert.Equal(t, policy.AuthnUnauthenticated, authz.Authentication.Kind)
}

func TestInboundNamespaceDefaultPolicyOverride(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Namespaces().Applied(newNamespace("apps", map[string]string{
		policy.DefaultPolicyAnnotation: "cluster-authenticated",
	}))

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	assert.Equal(t, "cluster-authenticated", v.Reference.Name)
	ref := policy.AuthzRef{Kind: policy.AuthzKindDefault, Name: "cluster-authenticated"}
	authz, ok := v.Authorizations[ref]
	require.True(t, ok)
	assert.Equal(t, policy.AuthnTLSAuthenticated, authz.Authentication.Kind)
	require.Len(t, authz.Networks, 1)
	assert.Equal(t, netip.MustParsePrefix("10.0.0.0/8"), authz.Networks[0].Net)
}

func TestInboundWorkloadDefaultPolicyOverride(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	pod := newPod("apps", "web", "10.1.0.1")
	pod.Annotations = map[string]string{policy.DefaultPolicyAnnotation: "deny"}
	ix.Pods().Applied(pod)
	ix.Namespaces().Applied(newNamespace("apps", map[string]string{
		policy.DefaultPolicyAnnotation: "all-authenticated",
	}))

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	// workload annotation beats the namespace annotation
	assert.Equal(t, "deny", v.Reference.Name)
	assert.Empty(t, v.Authorizations)
}

func TestInboundRequireIdentityPorts(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	pod := newPod("apps", "web", "10.1.0.1")
	pod.Annotations = map[string]string{policy.RequireIDPortsAnnotation: "8080"}
	ix.Pods().Applied(pod)

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	assert.Equal(t, "all-authenticated", v.Reference.Name)
	ref := policy.AuthzRef{Kind: policy.AuthzKindDefault, Name: "all-authenticated"}
	authz, ok := v.Authorizations[ref]
	require.True(t, ok)
	assert.Equal(t, policy.AuthnTLSAuthenticated, authz.Authentication.Kind)

	// other ports keep the cluster default
	_, other := firstInbound(t, ix, "apps", "web", 9090)
	assert.Equal(t, "all-unauthenticated", other.Reference.Name)
}

func TestInboundOpaquePortAnnotation(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	pod := newPod("apps", "web", "10.1.0.1")
	pod.Annotations = map[string]string{policy.OpaquePortsAnnotation: "3306"}
	ix.Pods().Applied(pod)

	_, v := firstInbound(t, ix, "apps", "web", 3306)
	assert.Equal(t, policy.ProtocolOpaque, v.Protocol.Kind)
	assert.Zero(t, v.Protocol.DetectTimeout)
}

func TestInboundNamespaceOpaquePorts(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Namespaces().Applied(newNamespace("apps", map[string]string{
		policy.OpaquePortsAnnotation: "5432",
	}))

	_, v := firstInbound(t, ix, "apps", "web", 5432)
	assert.Equal(t, policy.ProtocolOpaque, v.Protocol.Kind)
}

func TestSetDefaultPolicyRepublishes(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))

	w, v := firstInbound(t, ix, "apps", "web", 8080)
	assert.Equal(t, "all-unauthenticated", v.Reference.Name)

	ix.SetDefaultPolicy(policy.Deny)

	ctx := testCtx(t)
	next, err := w.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "deny", next.Reference.Name)
	assert.Empty(t, next.Authorizations)
}

func TestInboundServerSelection(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Servers().Applied(newServer("apps", "web-http", 8080, policyv1alpha1.ProxyProtocolHTTP2,
		map[string]string{"app": "web"}, time.Now()))

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	assert.Equal(t, policy.ServerRef{Kind: policy.ServerKindServer, Namespace: "apps", Name: "web-http"}, v.Reference)
	assert.Equal(t, policy.ProtocolHTTP2, v.Protocol.Kind)
	assert.Zero(t, v.Protocol.DetectTimeout)
	// a selected server without authorizations admits nobody by itself
	assert.Empty(t, v.Authorizations)

	// ports the server does not claim fall back to the default chain
	_, other := firstInbound(t, ix, "apps", "web", 9090)
	assert.Equal(t, policy.ServerKindDefault, other.Reference.Kind)
}

func TestInboundServerNamedPort(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	pod := newPod("apps", "web", "10.1.0.1")
	pod.Spec.Containers = []corev1.Container{{
		Name:  "app",
		Ports: []corev1.ContainerPort{{Name: "admin", ContainerPort: 9990}},
	}}
	ix.Pods().Applied(pod)

	srv := newServer("apps", "web-admin", 0, policyv1alpha1.ProxyProtocolHTTP1, map[string]string{"app": "web"}, time.Now())
	srv.Spec.Port = intstr.FromString("admin")
	ix.Servers().Applied(srv)

	_, v := firstInbound(t, ix, "apps", "web", 9990)
	assert.Equal(t, "web-admin", v.Reference.Name)
}

func TestInboundOldestServerWins(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ix.Servers().Applied(newServer("apps", "newer", 8080, policyv1alpha1.ProxyProtocolHTTP1,
		map[string]string{"app": "web"}, t0.Add(time.Hour)))
	ix.Servers().Applied(newServer("apps", "older", 8080, policyv1alpha1.ProxyProtocolHTTP2,
		map[string]string{"app": "web"}, t0))

	w, v := firstInbound(t, ix, "apps", "web", 8080)
	assert.Equal(t, "older", v.Reference.Name)

	// deleting the winner promotes the next candidate
	ix.Servers().Deleted("apps", "older")
	ctx := testCtx(t)
	next, err := w.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newer", next.Reference.Name)
}

func TestServerAuthorizationByName(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Servers().Applied(newServer("apps", "web-http", 8080, policyv1alpha1.ProxyProtocolHTTP1,
		map[string]string{"app": "web"}, time.Now()))
	ix.ServerAuthorizations().Applied(&policyv1alpha1.ServerAuthorization{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "allow-metrics"},
		Spec: policyv1alpha1.ServerAuthorizationSpec{
			Server: policyv1alpha1.ServerSelector{Name: "web-http"},
			Client: policyv1alpha1.ClientAuthz{Unauthenticated: true},
		},
	})

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	ref := policy.AuthzRef{Kind: policy.AuthzKindServerAuthorization, Namespace: "apps", Name: "allow-metrics"}
	authz, ok := v.Authorizations[ref]
	require.True(t, ok)
	assert.Equal(t, policy.AuthnUnauthenticated, authz.Authentication.Kind)
}

func TestServerAuthorizationBySelector(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Servers().Applied(newServer("apps", "web-http", 8080, policyv1alpha1.ProxyProtocolHTTP1,
		map[string]string{"app": "web"}, time.Now()))
	ix.ServerAuthorizations().Applied(&policyv1alpha1.ServerAuthorization{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "by-label"},
		Spec: policyv1alpha1.ServerAuthorizationSpec{
			Server: policyv1alpha1.ServerSelector{
				Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"srv": "web-http"}},
			},
			Client: policyv1alpha1.ClientAuthz{
				MeshTLS: &policyv1alpha1.MeshTLS{
					ServiceAccounts: []policyv1alpha1.ServiceAccountRef{{Name: "client"}},
				},
			},
		},
	})

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	ref := policy.AuthzRef{Kind: policy.AuthzKindServerAuthorization, Namespace: "apps", Name: "by-label"}
	authz, ok := v.Authorizations[ref]
	require.True(t, ok)
	require.Len(t, authz.Authentication.Identities, 1)
	assert.Equal(t, "client.apps.serviceaccount.identity.cluster.local", authz.Authentication.Identities[0].Exact)
}

func TestAuthorizationPolicyDanglingAuthnWithheld(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Servers().Applied(newServer("apps", "web-http", 8080, policyv1alpha1.ProxyProtocolHTTP1,
		map[string]string{"app": "web"}, time.Now()))

	w, v := firstInbound(t, ix, "apps", "web", 8080)
	assert.Empty(t, v.Authorizations)

	apRef := policy.AuthzRef{Kind: policy.AuthzKindAuthorizationPolicy, Namespace: "apps", Name: "require-mesh"}
	ix.AuthorizationPolicies().Applied(&policyv1alpha1.AuthorizationPolicy{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "require-mesh"},
		Spec: policyv1alpha1.AuthorizationPolicySpec{
			TargetRef: gatewayv1alpha2.LocalPolicyTargetReference{
				Group: "policy.meshgate.io", Kind: "Server", Name: "web-http",
			},
			RequiredAuthenticationRefs: []gatewayv1alpha2.NamespacedPolicyTargetReference{{
				Group: "policy.meshgate.io", Kind: policyv1alpha1.MeshTLSAuthenticationKind, Name: "mesh-clients",
			}},
		},
	})

	ctx := testCtx(t)
	next, err := w.Next(ctx)
	require.NoError(t, err)
	// the referenced authentication does not exist yet, so the policy
	// grants nothing rather than widening to all clients
	_, ok := next.Authorizations[apRef]
	assert.False(t, ok)

	ix.MeshTLSAuthentications().Applied(&policyv1alpha1.MeshTLSAuthentication{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "mesh-clients"},
		Spec: policyv1alpha1.MeshTLSAuthenticationSpec{
			Identities: []string{"*.apps.serviceaccount.identity.cluster.local"},
		},
	})

	next, err = w.Next(ctx)
	require.NoError(t, err)
	authz, ok := next.Authorizations[apRef]
	require.True(t, ok)
	assert.Equal(t, policy.AuthnTLSAuthenticated, authz.Authentication.Kind)
	require.Len(t, authz.Authentication.Identities, 1)
	assert.Equal(t, []string{"apps", "serviceaccount", "identity", "cluster", "local"}, authz.Authentication.Identities[0].Suffix)
}

func TestAuthorizationPolicyNamespaceTarget(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Servers().Applied(newServer("apps", "web-http", 8080, policyv1alpha1.ProxyProtocolHTTP1,
		map[string]string{"app": "web"}, time.Now()))
	ix.NetworkAuthentications().Applied(&policyv1alpha1.NetworkAuthentication{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "internal"},
		Spec: policyv1alpha1.NetworkAuthenticationSpec{
			Networks: []policyv1alpha1.Network{{Cidr: "10.2.0.0/16"}},
		},
	})
	ix.AuthorizationPolicies().Applied(&policyv1alpha1.AuthorizationPolicy{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "ns-wide"},
		Spec: policyv1alpha1.AuthorizationPolicySpec{
			TargetRef: gatewayv1alpha2.LocalPolicyTargetReference{Kind: "Namespace", Name: "apps"},
			RequiredAuthenticationRefs: []gatewayv1alpha2.NamespacedPolicyTargetReference{{
				Group: "policy.meshgate.io", Kind: policyv1alpha1.NetworkAuthenticationKind, Name: "internal",
			}},
		},
	})

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	ref := policy.AuthzRef{Kind: policy.AuthzKindAuthorizationPolicy, Namespace: "apps", Name: "ns-wide"}
	authz, ok := v.Authorizations[ref]
	require.True(t, ok)
	require.Len(t, authz.Networks, 1)
	assert.Equal(t, netip.MustParsePrefix("10.2.0.0/16"), authz.Networks[0].Net)
	assert.Equal(t, policy.AuthnUnauthenticated, authz.Authentication.Kind)
}

func TestServerAccessPolicyFallback(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	srv := newServer("apps", "web-http", 8080, policyv1alpha1.ProxyProtocolHTTP1,
		map[string]string{"app": "web"}, time.Now())
	srv.Spec.AccessPolicy = "cluster-authenticated"
	ix.Servers().Applied(srv)

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	ref := policy.AuthzRef{Kind: policy.AuthzKindDefault, Name: "cluster-authenticated"}
	_, ok := v.Authorizations[ref]
	assert.True(t, ok, "access policy applies when no authorization resource selects the server")
}

func TestProbeNetworksAuthorized(t *testing.T) {
	cluster := testClusterInfo()
	cluster.ProbeNetworks = []policy.NetworkMatch{{Net: netip.MustParsePrefix("10.250.0.0/16")}}
	ix, _ := testIndex(cluster)
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	ref := policy.AuthzRef{Kind: policy.AuthzKindDefault, Name: "probe"}
	authz, ok := v.Authorizations[ref]
	require.True(t, ok)
	require.Len(t, authz.Networks, 1)
	assert.Equal(t, netip.MustParsePrefix("10.250.0.0/16"), authz.Networks[0].Net)
	assert.Equal(t, policy.AuthnUnauthenticated, authz.Authentication.Kind)
}

func TestKubeletProbeAfterNodeObserved(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	pod := newPod("apps", "web", "10.1.0.1")
	pod.Spec.NodeName = "node-1"
	ix.Pods().Applied(pod)

	w, v := firstInbound(t, ix, "apps", "web", 8080)
	_, ok := v.Authorizations[policy.AuthzRef{Kind: policy.AuthzKindDefault, Name: "probe"}]
	assert.False(t, ok, "no probe authorization before the node's kubelet address is known")

	ix.Nodes().Applied(&corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: "node-1"},
		Status: corev1.NodeStatus{Addresses: []corev1.NodeAddress{
			{Type: corev1.NodeInternalIP, Address: "10.0.0.5"},
		}},
	})

	ctx := testCtx(t)
	next, err := w.Next(ctx)
	require.NoError(t, err)
	authz, ok := next.Authorizations[policy.AuthzRef{Kind: policy.AuthzKindDefault, Name: "probe"}]
	require.True(t, ok)
	require.Len(t, authz.Networks, 1)
	assert.Equal(t, netip.MustParsePrefix("10.0.0.5/32"), authz.Networks[0].Net)
}

func TestPodDeletionClosesInboundWatch(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))

	w, _ := firstInbound(t, ix, "apps", "web", 8080)
	ix.Pods().Deleted("apps", "web")

	ctx := testCtx(t)
	_, err := w.Next(ctx)
	assert.ErrorIs(t, err, distribute.ErrWatchClosed)
}

func TestRateLimitOldestWins(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Servers().Applied(newServer("apps", "web-http", 8080, policyv1alpha1.ProxyProtocolHTTP1,
		map[string]string{"app": "web"}, time.Now()))

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ix.RateLimits().Applied(newRateLimit("apps", "newer-limit", "web-http", 50, t0.Add(time.Hour)))
	ix.RateLimits().Applied(newRateLimit("apps", "older-limit", "web-http", 100, t0))

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	require.NotNil(t, v.RateLimit)
	assert.Equal(t, "older-limit", v.RateLimit.Name)
	require.NotNil(t, v.RateLimit.Total)
	assert.Equal(t, uint32(100), v.RateLimit.Total.RequestsPerSecond)
}

func newRateLimit(namespace, name, serverName string, rps uint32, created time.Time) *policyv1alpha1.HTTPLocalRateLimitPolicy {
	return &policyv1alpha1.HTTPLocalRateLimitPolicy{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:         namespace,
			Name:              name,
			CreationTimestamp: metav1.NewTime(created),
		},
		Spec: policyv1alpha1.HTTPLocalRateLimitPolicySpec{
			TargetRef: gatewayv1alpha2.LocalPolicyTargetReference{
				Group: "policy.meshgate.io", Kind: "Server", Name: gatewayv1.ObjectName(serverName),
			},
			Total: &policyv1alpha1.Limit{RequestsPerSecond: rps},
		},
	}
}

func TestInboundRouteAttachment(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Servers().Applied(newServer("apps", "web-http", 8080, policyv1alpha1.ProxyProtocolHTTP1,
		map[string]string{"app": "web"}, time.Now()))
	ix.ServerAuthorizations().Applied(&policyv1alpha1.ServerAuthorization{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "allow-all"},
		Spec: policyv1alpha1.ServerAuthorizationSpec{
			Server: policyv1alpha1.ServerSelector{Name: "web-http"},
			Client: policyv1alpha1.ClientAuthz{Unauthenticated: true},
		},
	})

	group := gatewayv1.Group("policy.meshgate.io")
	kind := gatewayv1.Kind("Server")
	ix.HTTPRoutes().Applied(&gatewayv1.HTTPRoute{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "api"},
		Spec: gatewayv1.HTTPRouteSpec{
			CommonRouteSpec: gatewayv1.CommonRouteSpec{
				ParentRefs: []gatewayv1.ParentReference{{Group: &group, Kind: &kind, Name: "web-http"}},
			},
			Rules: []gatewayv1.HTTPRouteRule{{}},
		},
	})

	_, v := firstInbound(t, ix, "apps", "web", 8080)

	require.Len(t, v.HTTPRoutes, 1)
	route := v.HTTPRoutes[0]
	assert.Equal(t, policy.RouteRef{Kind: policy.RouteKindHTTP, Namespace: "apps", Name: "api"}, route.Ref)
	// routes inherit the server's authorizations
	_, ok := route.Authorizations[policy.AuthzRef{Kind: policy.AuthzKindServerAuthorization, Namespace: "apps", Name: "allow-all"}]
	assert.True(t, ok)
}

func TestLookupTargetServiceIP(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("apps", "web", "10.100.0.10", nil))

	kind, namespace, name, ok := ix.LookupTarget(netip.MustParseAddr("10.100.0.10"), "apps")
	require.True(t, ok)
	assert.Equal(t, policy.ServerKindService, kind)
	assert.Equal(t, "apps", namespace)
	assert.Equal(t, "web", name)

	_, _, _, ok = ix.LookupTarget(netip.MustParseAddr("10.100.0.11"), "apps")
	assert.False(t, ok)
}

func TestLookupTargetEgressMostSpecific(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.EgressNetworks().Applied(&policyv1alpha1.EgressNetwork{
		ObjectMeta: metav1.ObjectMeta{Namespace: "egress", Name: "all"},
		Spec: policyv1alpha1.EgressNetworkSpec{
			TrafficPolicy: policyv1alpha1.TrafficPolicyAllow,
		},
	})
	ix.EgressNetworks().Applied(&policyv1alpha1.EgressNetwork{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "partners"},
		Spec: policyv1alpha1.EgressNetworkSpec{
			TrafficPolicy: policyv1alpha1.TrafficPolicyDeny,
			Networks:      []policyv1alpha1.Network{{Cidr: "203.0.113.0/24"}},
		},
	})

	// the narrower block wins regardless of namespace
	kind, namespace, name, ok := ix.LookupTarget(netip.MustParseAddr("203.0.113.7"), "other")
	require.True(t, ok)
	assert.Equal(t, policy.ServerKindEgress, kind)
	assert.Equal(t, "apps", namespace)
	assert.Equal(t, "partners", name)

	// everything else falls to the catch-all
	_, namespace, name, ok = ix.LookupTarget(netip.MustParseAddr("198.51.100.1"), "other")
	require.True(t, ok)
	assert.Equal(t, "egress", namespace)
	assert.Equal(t, "all", name)
}

package index

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	policyv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/policy/v1alpha1"
	"github.com/meshgate/policy-controller/pkg/distribute"
	"github.com/meshgate/policy-controller/pkg/policy"
)

// firstOutbound subscribes and returns the initial value
func firstOutbound(t *testing.T, ix *ClusterIndex, kind, namespace, name string, port uint16, source string) (*distribute.Watch[*policy.OutboundPolicy], *policy.OutboundPolicy) {
	t.Helper()
	ctx := testCtx(t)
	w, err := ix.SubscribeOutbound(ctx, kind, namespace, name, port, source)
	require.NoError(t, err)
	v, err := w.Next(ctx)
	require.NoError(t, err)
	return w, v
}

// serviceRoute builds an HTTPRoute whose parentRef names a Service in the
// route's own namespace
func serviceRoute(namespace, name, serviceName string, created time.Time, backends ...string) *gatewayv1.HTTPRoute {
	kind := gatewayv1.Kind("Service")
	route := &gatewayv1.HTTPRoute{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:         namespace,
			Name:              name,
			CreationTimestamp: metav1.NewTime(created),
		},
		Spec: gatewayv1.HTTPRouteSpec{
			CommonRouteSpec: gatewayv1.CommonRouteSpec{
				ParentRefs: []gatewayv1.ParentReference{{Kind: &kind, Name: gatewayv1.ObjectName(serviceName)}},
			},
		},
	}
	rule := gatewayv1.HTTPRouteRule{}
	for _, b := range backends {
		rule.BackendRefs = append(rule.BackendRefs, gatewayv1.HTTPBackendRef{
			BackendRef: gatewayv1.BackendRef{
				BackendObjectReference: gatewayv1.BackendObjectReference{Name: gatewayv1.ObjectName(b)},
			},
		})
	}
	route.Spec.Rules = []gatewayv1.HTTPRouteRule{rule}
	return route
}

func TestSubscribeOutboundUnknownParent(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	_, err := ix.SubscribeOutbound(testCtx(t), policy.ServerKindService, "apps", "missing", 80, "apps")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ix.SubscribeOutbound(testCtx(t), "deployment", "apps", "web", 80, "apps")
	assert.Error(t, err)
}

func TestOutboundDefaultTCPRoute(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("apps", "web", "10.100.0.10", nil))

	_, v := firstOutbound(t, ix, policy.ServerKindService, "apps", "web", 80, "apps")

	assert.Equal(t, policy.ParentRef{Kind: policy.ServerKindService, Namespace: "apps", Name: "web", Port: 80}, v.Parent)
	assert.False(t, v.Opaque)
	assert.Empty(t, v.HTTPRoutes)
	require.Len(t, v.TCPRoutes, 1)

	route := v.TCPRoutes[0]
	assert.Equal(t, "default", route.Ref.Name)
	require.Len(t, route.Rules, 1)
	require.Len(t, route.Rules[0].Backends, 1)
	backend := route.Rules[0].Backends[0]
	assert.Equal(t, policy.BackendRef{
		Kind: policy.ServerKindService, Namespace: "apps", Name: "web", Port: 80, Exists: true,
	}, backend.Ref)
	assert.Equal(t, uint32(1), backend.Weight)
}

func TestOutboundOpaqueServicePort(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("apps", "db", "10.100.0.11", map[string]string{
		policy.OpaquePortsAnnotation: "5432",
	}))

	_, opaque := firstOutbound(t, ix, policy.ServerKindService, "apps", "db", 5432, "apps")
	assert.True(t, opaque.Opaque)

	_, clear := firstOutbound(t, ix, policy.ServerKindService, "apps", "db", 80, "apps")
	assert.False(t, clear.Opaque)
}

func TestOutboundFailureAccrual(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("apps", "flaky", "10.100.0.12", map[string]string{
		accrualAnnotation:            "consecutive",
		accrualMaxFailuresAnnotation: "3",
		accrualMinPenaltyAnnotation:  "2s",
	}))

	_, v := firstOutbound(t, ix, policy.ServerKindService, "apps", "flaky", 80, "apps")

	require.NotNil(t, v.FailureAccrual)
	assert.Equal(t, uint32(3), v.FailureAccrual.MaxFailures)
	assert.Equal(t, 2*time.Second, v.FailureAccrual.Backoff.MinPenalty)
	assert.Equal(t, time.Minute, v.FailureAccrual.Backoff.MaxPenalty)
	assert.Equal(t, 0.5, v.FailureAccrual.Backoff.Jitter)
}

func TestOutboundRouteAttachmentAndBackendFlip(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("apps", "web", "10.100.0.10", nil))
	ix.HTTPRoutes().Applied(serviceRoute("apps", "split", "web", time.Now(), "web-v2"))

	w, v := firstOutbound(t, ix, policy.ServerKindService, "apps", "web", 80, "apps")

	require.Len(t, v.HTTPRoutes, 1)
	assert.Empty(t, v.TCPRoutes, "no synthesized default once a route attaches")
	require.Len(t, v.HTTPRoutes[0].Rules, 1)
	require.Len(t, v.HTTPRoutes[0].Rules[0].Backends, 1)
	backend := v.HTTPRoutes[0].Rules[0].Backends[0]
	assert.Equal(t, "web-v2", backend.Ref.Name)
	assert.False(t, backend.Ref.Exists, "backend service does not exist yet")

	// the backend coming up flips Exists without touching the route
	ix.Services().Applied(newService("apps", "web-v2", "10.100.0.20", nil))

	ctx := testCtx(t)
	next, err := w.Next(ctx)
	require.NoError(t, err)
	require.Len(t, next.HTTPRoutes, 1)
	assert.True(t, next.HTTPRoutes[0].Rules[0].Backends[0].Ref.Exists)
}

func TestOutboundConsumerRoutesShadowProducer(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("store", "books", "10.100.0.10", nil))

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ix.HTTPRoutes().Applied(serviceRoute("store", "producer-route", "books", t0, "books"))

	consumer := serviceRoute("consumer", "consumer-route", "books", t0, "books")
	ns := gatewayv1.Namespace("store")
	consumer.Spec.ParentRefs[0].Namespace = &ns
	ix.HTTPRoutes().Applied(consumer)

	// a consumer namespace sees only its own routes
	_, fromConsumer := firstOutbound(t, ix, policy.ServerKindService, "store", "books", 80, "consumer")
	require.Len(t, fromConsumer.HTTPRoutes, 1)
	assert.Equal(t, "consumer-route", fromConsumer.HTTPRoutes[0].Ref.Name)

	// everyone else sees the producer's routes
	_, fromElsewhere := firstOutbound(t, ix, policy.ServerKindService, "store", "books", 80, "other")
	require.Len(t, fromElsewhere.HTTPRoutes, 1)
	assert.Equal(t, "producer-route", fromElsewhere.HTTPRoutes[0].Ref.Name)
}

func TestOutboundRouteOrdering(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("apps", "web", "10.100.0.10", nil))

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ix.HTTPRoutes().Applied(serviceRoute("apps", "second", "web", t0.Add(time.Hour), "web"))
	ix.HTTPRoutes().Applied(serviceRoute("apps", "first", "web", t0, "web"))

	_, v := firstOutbound(t, ix, policy.ServerKindService, "apps", "web", 80, "apps")
	require.Len(t, v.HTTPRoutes, 2)
	assert.Equal(t, "first", v.HTTPRoutes[0].Ref.Name)
	assert.Equal(t, "second", v.HTTPRoutes[1].Ref.Name)
}

func TestOutboundRoutePortFilter(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("apps", "web", "10.100.0.10", nil))

	route := serviceRoute("apps", "admin-only", "web", time.Now(), "web")
	port := gatewayv1.PortNumber(9990)
	route.Spec.ParentRefs[0].Port = &port
	ix.HTTPRoutes().Applied(route)

	_, admin := firstOutbound(t, ix, policy.ServerKindService, "apps", "web", 9990, "apps")
	require.Len(t, admin.HTTPRoutes, 1)

	_, other := firstOutbound(t, ix, policy.ServerKindService, "apps", "web", 80, "apps")
	assert.Empty(t, other.HTTPRoutes)
	require.Len(t, other.TCPRoutes, 1, "port without routes gets the synthesized default")
}

func TestOutboundEgressTrafficPolicy(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.EgressNetworks().Applied(&policyv1alpha1.EgressNetwork{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "internet"},
		Spec: policyv1alpha1.EgressNetworkSpec{
			TrafficPolicy: policyv1alpha1.TrafficPolicyDeny,
		},
	})

	w, v := firstOutbound(t, ix, policy.ServerKindEgress, "apps", "internet", 443, "apps")
	assert.Equal(t, "Deny", v.TrafficPolicy)
	require.Len(t, v.TCPRoutes, 1)
	assert.Equal(t, policy.ServerKindEgress, v.TCPRoutes[0].Rules[0].Backends[0].Ref.Kind)

	// flipping the policy republishes
	ix.EgressNetworks().Applied(&policyv1alpha1.EgressNetwork{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "internet"},
		Spec: policyv1alpha1.EgressNetworkSpec{
			TrafficPolicy: policyv1alpha1.TrafficPolicyAllow,
		},
	})
	ctx := testCtx(t)
	next, err := w.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Allow", next.TrafficPolicy)
}

func TestServiceDeletionClosesOutboundWatch(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("apps", "web", "10.100.0.10", nil))

	w, _ := firstOutbound(t, ix, policy.ServerKindService, "apps", "web", 80, "apps")
	ix.Services().Deleted("apps", "web")

	ctx := testCtx(t)
	_, err := w.Next(ctx)
	assert.ErrorIs(t, err, distribute.ErrWatchClosed)
}

func TestOutboundSubscriberCannotMutateIndex(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Services().Applied(newService("apps", "web", "10.100.0.10", nil))
	ix.HTTPRoutes().Applied(serviceRoute("apps", "split", "web", time.Now(), "web"))

	_, v := firstOutbound(t, ix, policy.ServerKindService, "apps", "web", 80, "apps")
	require.Len(t, v.HTTPRoutes, 1)
	v.HTTPRoutes[0].Rules[0].Backends[0].Ref.Name = "tampered"

	_, again := firstOutbound(t, ix, policy.ServerKindService, "apps", "web", 81, "apps")
	require.Len(t, again.HTTPRoutes, 1)
	assert.Equal(t, "web", again.HTTPRoutes[0].Rules[0].Backends[0].Ref.Name)
}

// TestIncrementalMatchesReset feeds the same resources once as discrete
// apply events and once as a bulk reset, and requires identical derived
// policy from both
func TestIncrementalMatchesReset(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	pod := newPod("apps", "web", "10.1.0.1")
	srv := newServer("apps", "web-http", 8080, policyv1alpha1.ProxyProtocolHTTP1,
		map[string]string{"app": "web"}, t0)
	saz := &policyv1alpha1.ServerAuthorization{
		ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: "allow-all"},
		Spec: policyv1alpha1.ServerAuthorizationSpec{
			Server: policyv1alpha1.ServerSelector{Name: "web-http"},
			Client: policyv1alpha1.ClientAuthz{Unauthenticated: true},
		},
	}
	svc := newService("apps", "web", "10.100.0.10", nil)
	route := serviceRoute("apps", "split", "web", t0, "web")

	incremental, _ := testIndex(testClusterInfo())
	incremental.Pods().Applied(pod)
	incremental.Servers().Applied(srv)
	incremental.ServerAuthorizations().Applied(saz)
	incremental.Services().Applied(svc)
	incremental.HTTPRoutes().Applied(route)

	fromReset, _ := testIndex(testClusterInfo())
	fromReset.Pods().Reset([]*corev1.Pod{pod}, nil)
	fromReset.Servers().Reset([]*policyv1alpha1.Server{srv}, nil)
	fromReset.ServerAuthorizations().Reset([]*policyv1alpha1.ServerAuthorization{saz}, nil)
	fromReset.Services().Reset([]*corev1.Service{svc}, nil)
	fromReset.HTTPRoutes().Reset([]*gatewayv1.HTTPRoute{route}, nil)

	_, inA := firstInbound(t, incremental, "apps", "web", 8080)
	_, inB := firstInbound(t, fromReset, "apps", "web", 8080)
	assertSameJSON(t, inA, inB)

	_, outA := firstOutbound(t, incremental, policy.ServerKindService, "apps", "web", 80, "apps")
	_, outB := firstOutbound(t, fromReset, policy.ServerKindService, "apps", "web", 80, "apps")
	assertSameJSON(t, outA, outB)
}

func TestResetRemovesStaleResources(t *testing.T) {
	ix, _ := testIndex(testClusterInfo())
	ix.Pods().Applied(newPod("apps", "web", "10.1.0.1"))
	ix.Pods().Applied(newPod("apps", "old", "10.1.0.2"))

	w, _ := firstInbound(t, ix, "apps", "old", 8080)

	ix.Pods().Reset(
		[]*corev1.Pod{newPod("apps", "web", "10.1.0.1")},
		map[string]map[string]struct{}{"apps": {"old": {}}},
	)

	ctx := testCtx(t)
	_, err := w.Next(ctx)
	assert.ErrorIs(t, err, distribute.ErrWatchClosed)
}

// assertSameJSON compares two derived policies through their wire shape;
// the internal types hold netip values cmp cannot diff
func assertSameJSON(t *testing.T, want, got any) {
	t.Helper()
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

package status

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	clienttesting "k8s.io/client-go/testing"
)

var httpRouteGVR = schema.GroupVersionResource{
	Group:    "gateway.networking.k8s.io",
	Version:  "v1",
	Resource: "httproutes",
}

var serverGVR = schema.GroupVersionResource{
	Group:    "policy.meshgate.io",
	Version:  "v1alpha1",
	Resource: "servers",
}

func acceptedDecision(generation int64) Decision {
	return Decision{
		Resource:   httpRouteGVR,
		Namespace:  "apps",
		Name:       "web-route",
		Generation: generation,
		Parents: []ParentStatus{{
			Group:    "policy.meshgate.io",
			Kind:     "Server",
			Name:     "web-http",
			Accepted: true,
			Reason:   ReasonAccepted,
		}},
	}
}

func routeObject(namespace, name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "gateway.networking.k8s.io/v1",
		"kind":       "HTTPRoute",
		"metadata": map[string]interface{}{
			"namespace": namespace,
			"name":      name,
		},
	}}
}

func fakeClient(objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{
			httpRouteGVR: "HTTPRouteList",
			serverGVR:    "ServerList",
		}, objects...)
}

// statusPatches returns the decoded bodies of status subresource patches
// issued against the fake client
func statusPatches(client *dynamicfake.FakeDynamicClient) []map[string]any {
	var out []map[string]any
	for _, action := range client.Actions() {
		patch, ok := action.(clienttesting.PatchAction)
		if !ok || patch.GetSubresource() != "status" {
			continue
		}
		var body map[string]any
		if err := json.Unmarshal(patch.GetPatch(), &body); err != nil {
			continue
		}
		out = append(out, body)
	}
	return out
}

func TestStatusBodyGatewayRoute(t *testing.T) {
	body := statusBody(Decision{
		Resource:   httpRouteGVR,
		Generation: 3,
		Parents: []ParentStatus{{
			Group:    "policy.meshgate.io",
			Kind:     "Server",
			Name:     "web-http",
			Port:     8080,
			Accepted: true,
			Reason:   ReasonAccepted,
		}},
	})

	parents, ok := body["parents"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, parents, 1)
	assert.Equal(t, ControllerName, parents[0]["controllerName"])

	ref := parents[0]["parentRef"].(map[string]any)
	assert.Equal(t, "Server", ref["kind"])
	assert.Equal(t, "web-http", ref["name"])
	assert.Equal(t, uint16(8080), ref["port"])
	assert.NotContains(t, ref, "namespace")

	conditions := parents[0]["conditions"].([]map[string]any)
	require.Len(t, conditions, 1)
	assert.Equal(t, "Accepted", conditions[0]["type"])
	assert.Equal(t, "True", conditions[0]["status"])
	assert.Equal(t, ReasonAccepted, conditions[0]["reason"])
	assert.Equal(t, int64(3), conditions[0]["observedGeneration"])
	assert.NotContains(t, conditions[0], "message")
}

func TestStatusBodyPolicyResource(t *testing.T) {
	body := statusBody(Decision{
		Resource:   serverGVR,
		Generation: 1,
		Parents: []ParentStatus{{
			Kind:     "Server",
			Name:     "web-http",
			Accepted: false,
			Reason:   ReasonConflicted,
			Message:  "a rate limit policy already binds this server",
		}},
	})

	assert.NotContains(t, body, "parents")
	conditions, ok := body["conditions"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, conditions, 1)
	assert.Equal(t, "False", conditions[0]["status"])
	assert.Equal(t, ReasonConflicted, conditions[0]["reason"])
	assert.Equal(t, "a rate limit policy already binds this server", conditions[0]["message"])
}

func TestReconcilerPatchesWhenLeader(t *testing.T) {
	client := fakeClient(routeObject("apps", "web-route"))
	r := NewReconciler(client, zap.NewNop().Sugar(), time.Second)
	r.SetElected(true)

	stopCh := make(chan struct{})
	defer close(stopCh)
	go r.Run(1, stopCh)

	r.Record(acceptedDecision(2))

	require.Eventually(t, func() bool {
		return len(statusPatches(client)) > 0
	}, 2*time.Second, 10*time.Millisecond)

	body := statusPatches(client)[0]
	status := body["status"].(map[string]any)
	parents := status["parents"].([]any)
	require.Len(t, parents, 1)
	parent := parents[0].(map[string]any)
	assert.Equal(t, ControllerName, parent["controllerName"])
	conditions := parent["conditions"].([]any)
	require.Len(t, conditions, 1)
	assert.Equal(t, ReasonAccepted, conditions[0].(map[string]any)["reason"])
}

func TestReconcilerWaitsForLeadership(t *testing.T) {
	client := fakeClient(routeObject("apps", "web-route"))
	r := NewReconciler(client, zap.NewNop().Sugar(), time.Second)

	stopCh := make(chan struct{})
	defer close(stopCh)
	go r.Run(1, stopCh)

	r.Record(acceptedDecision(2))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, statusPatches(client), "a non-leader must not write status")

	r.SetElected(true)
	r.Resync()

	require.Eventually(t, func() bool {
		return len(statusPatches(client)) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReconcilerDropsDecisionsForDeletedResources(t *testing.T) {
	// no route object seeded, so the patch target does not exist
	client := fakeClient()
	r := NewReconciler(client, zap.NewNop().Sugar(), time.Second)
	r.SetElected(true)

	stopCh := make(chan struct{})
	defer close(stopCh)
	go r.Run(1, stopCh)

	r.Record(acceptedDecision(2))

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.pending) == 0
	}, 2*time.Second, 10*time.Millisecond, "decisions for gone resources must not accumulate")
}

func TestRecordCoalescesPerResource(t *testing.T) {
	client := fakeClient()
	r := NewReconciler(client, zap.NewNop().Sugar(), time.Second)

	r.Record(acceptedDecision(1))
	r.Record(acceptedDecision(2))

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.pending, 1)
	for _, d := range r.pending {
		assert.Equal(t, int64(2), d.Generation, "the later decision supersedes the earlier one")
	}
}

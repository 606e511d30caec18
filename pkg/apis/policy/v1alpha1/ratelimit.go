/*
Copyright 2024 The MeshGate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	gatewayv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"
)

const HTTPLocalRateLimitPolicyKind = "HTTPLocalRateLimitPolicy"

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// HTTPLocalRateLimitPolicy caps the request rate a Server accepts; at
// most one policy may target a given Server
type HTTPLocalRateLimitPolicy struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   HTTPLocalRateLimitPolicySpec   `json:"spec"`
	Status HTTPLocalRateLimitPolicyStatus `json:"status,omitempty"`
}

// HTTPLocalRateLimitPolicySpec is the spec for an HTTPLocalRateLimitPolicy resource
type HTTPLocalRateLimitPolicySpec struct {
	// the Server the rate limit applies to
	TargetRef gatewayv1alpha2.LocalPolicyTargetReference `json:"targetRef"`

	// limit across all clients
	// +optional
	Total *Limit `json:"total,omitempty"`

	// per-identity limit for clients without an override
	// +optional
	Identity *Limit `json:"identity,omitempty"`

	// per-client limits overriding the identity limit
	// +optional
	Overrides []RateLimitOverride `json:"overrides,omitempty"`
}

// Limit is a request-rate ceiling
type Limit struct {
	RequestsPerSecond uint32 `json:"requestsPerSecond"`
}

// RateLimitOverride applies a limit to a set of clients
type RateLimitOverride struct {
	Limit `json:",inline"`

	// +optional
	ClientRefs []gatewayv1alpha2.NamespacedPolicyTargetReference `json:"clientRefs,omitempty"`
}

// HTTPLocalRateLimitPolicyStatus is the status for an HTTPLocalRateLimitPolicy resource
type HTTPLocalRateLimitPolicyStatus struct {
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`

	// the Server this policy is bound to, when accepted
	// +optional
	TargetRef gatewayv1alpha2.LocalPolicyTargetReference `json:"targetRef,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// HTTPLocalRateLimitPolicyList is a list of HTTPLocalRateLimitPolicy resources
type HTTPLocalRateLimitPolicyList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`

	Items []HTTPLocalRateLimitPolicy `json:"items"`
}

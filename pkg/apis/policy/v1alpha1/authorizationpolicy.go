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

const (
	AuthorizationPolicyKind   = "AuthorizationPolicy"
	MeshTLSAuthenticationKind = "MeshTLSAuthentication"
	NetworkAuthenticationKind = "NetworkAuthentication"
)

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// AuthorizationPolicy authorizes clients to access a target Server or
// Route when they satisfy every referenced authentication
type AuthorizationPolicy struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec AuthorizationPolicySpec `json:"spec"`
}

// AuthorizationPolicySpec is the spec for an AuthorizationPolicy resource
type AuthorizationPolicySpec struct {
	// the Server, route or namespace the policy attaches to
	TargetRef gatewayv1alpha2.LocalPolicyTargetReference `json:"targetRef"`

	// authentications a client must satisfy; an empty list authorizes
	// all clients on all networks
	// +optional
	RequiredAuthenticationRefs []gatewayv1alpha2.NamespacedPolicyTargetReference `json:"requiredAuthenticationRefs,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// AuthorizationPolicyList is a list of AuthorizationPolicy resources
type AuthorizationPolicyList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`

	Items []AuthorizationPolicy `json:"items"`
}

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// MeshTLSAuthentication is a reusable set of mesh identities that
// AuthorizationPolicies reference as a client authentication
type MeshTLSAuthentication struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec MeshTLSAuthenticationSpec `json:"spec"`
}

// MeshTLSAuthenticationSpec is the spec for a MeshTLSAuthentication resource
type MeshTLSAuthenticationSpec struct {
	// identity strings, "*" or a "*." prefix matches a suffix
	// +optional
	Identities []string `json:"identities,omitempty"`

	// references to ServiceAccounts whose derived identities authenticate
	// +optional
	IdentityRefs []gatewayv1alpha2.NamespacedPolicyTargetReference `json:"identityRefs,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// MeshTLSAuthenticationList is a list of MeshTLSAuthentication resources
type MeshTLSAuthenticationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`

	Items []MeshTLSAuthentication `json:"items"`
}

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// NetworkAuthentication is a reusable set of client networks that
// AuthorizationPolicies reference as a client authentication
type NetworkAuthentication struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec NetworkAuthenticationSpec `json:"spec"`
}

// NetworkAuthenticationSpec is the spec for a NetworkAuthentication resource
type NetworkAuthenticationSpec struct {
	Networks []Network `json:"networks"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// NetworkAuthenticationList is a list of NetworkAuthentication resources
type NetworkAuthenticationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`

	Items []NetworkAuthentication `json:"items"`
}

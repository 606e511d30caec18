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
)

const ServerAuthorizationKind = "ServerAuthorization"

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// ServerAuthorization grants a set of clients access to a Server
type ServerAuthorization struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ServerAuthorizationSpec `json:"spec"`
}

// ServerAuthorizationSpec is the spec for a ServerAuthorization resource
type ServerAuthorizationSpec struct {
	Server ServerSelector `json:"server"`
	Client ClientAuthz    `json:"client"`
}

// ServerSelector references Servers in the same namespace either by name
// or by label selector; exactly one of the fields is set
type ServerSelector struct {
	// +optional
	Name string `json:"name,omitempty"`
	// +optional
	Selector *metav1.LabelSelector `json:"selector,omitempty"`
}

// ClientAuthz describes the clients authorized to access a Server
type ClientAuthz struct {
	// source networks the authorization applies to; when empty all
	// networks are permitted
	// +optional
	Networks []Network `json:"networks,omitempty"`

	// authorizes unauthenticated clients
	// +optional
	Unauthenticated bool `json:"unauthenticated,omitempty"`

	// authorizes mutual-TLS authenticated clients
	// +optional
	MeshTLS *MeshTLS `json:"meshTLS,omitempty"`
}

// MeshTLS describes a mutual-TLS client authentication requirement
type MeshTLS struct {
	// authorizes clients that present a TLS certificate without
	// requiring a recognized identity
	// +optional
	UnauthenticatedTLS bool `json:"unauthenticatedTLS,omitempty"`

	// identity strings, "*" or a "*." prefix matches a suffix
	// +optional
	Identities []string `json:"identities,omitempty"`

	// service accounts whose derived identities are authorized
	// +optional
	ServiceAccounts []ServiceAccountRef `json:"serviceAccounts,omitempty"`
}

// ServiceAccountRef names a ServiceAccount, defaulting to the resource's
// own namespace
type ServiceAccountRef struct {
	Name string `json:"name"`
	// +optional
	Namespace string `json:"namespace,omitempty"`
}

// Network is a CIDR block with optional carved-out exceptions
type Network struct {
	Cidr string `json:"cidr"`
	// +optional
	Except []string `json:"except,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// ServerAuthorizationList is a list of ServerAuthorization resources
type ServerAuthorizationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`

	Items []ServerAuthorization `json:"items"`
}

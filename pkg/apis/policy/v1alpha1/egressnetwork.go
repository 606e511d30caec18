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

const EgressNetworkKind = "EgressNetwork"

// TrafficPolicy is the default disposition for traffic leaving the mesh
type TrafficPolicy string

const (
	TrafficPolicyAllow TrafficPolicy = "Allow"
	TrafficPolicyDeny  TrafficPolicy = "Deny"
)

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// EgressNetwork gates traffic to destinations outside the cluster; routes
// may attach to it the way they attach to a Service
type EgressNetwork struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   EgressNetworkSpec   `json:"spec"`
	Status EgressNetworkStatus `json:"status,omitempty"`
}

// EgressNetworkSpec is the spec for an EgressNetwork resource
type EgressNetworkSpec struct {
	TrafficPolicy TrafficPolicy `json:"trafficPolicy"`

	// CIDR blocks this network covers; when empty the network covers all
	// non-cluster address space
	// +optional
	Networks []Network `json:"networks,omitempty"`
}

// EgressNetworkStatus is the status for an EgressNetwork resource
type EgressNetworkStatus struct {
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// EgressNetworkList is a list of EgressNetwork resources
type EgressNetworkList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`

	Items []EgressNetwork `json:"items"`
}

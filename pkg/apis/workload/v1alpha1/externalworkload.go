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

const ExternalWorkloadKind = "ExternalWorkload"

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// ExternalWorkload describes a mesh member running outside the cluster,
// typically a process on a VM holding a mesh identity
type ExternalWorkload struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ExternalWorkloadSpec `json:"spec"`
}

// ExternalWorkloadSpec is the spec for an ExternalWorkload resource
type ExternalWorkloadSpec struct {
	MeshTLS MeshTLSIdentity `json:"meshTLS"`

	// +optional
	WorkloadIPs []WorkloadIP `json:"workloadIPs,omitempty"`

	// +optional
	Ports []PortSpec `json:"ports,omitempty"`
}

// MeshTLSIdentity is the identity the workload authenticates with
type MeshTLSIdentity struct {
	Identity   string `json:"identity"`
	ServerName string `json:"serverName"`
}

// WorkloadIP is an address the workload is reachable on
type WorkloadIP struct {
	Ip string `json:"ip"`
}

// PortSpec is a named port exposed by the workload
type PortSpec struct {
	// +optional
	Name string `json:"name,omitempty"`
	Port uint16 `json:"port"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// ExternalWorkloadList is a list of ExternalWorkload resources
type ExternalWorkloadList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`

	Items []ExternalWorkload `json:"items"`
}

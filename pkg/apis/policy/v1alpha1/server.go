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
	"k8s.io/apimachinery/pkg/util/intstr"
)

const ServerKind = "Server"

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// Server selects a port on a set of meshed workloads and declares the
// protocol spoken on that port.
type Server struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ServerSpec `json:"spec"`
}

// ServerSpec is the spec for a Server resource
type ServerSpec struct {
	// selects pods in the Server's namespace by label
	// +optional
	PodSelector *metav1.LabelSelector `json:"podSelector,omitempty"`

	// selects external workloads in the Server's namespace by label
	// +optional
	ExternalWorkloadSelector *metav1.LabelSelector `json:"externalWorkloadSelector,omitempty"`

	// a port name or number; named ports are resolved against the
	// selected workload's container ports
	Port intstr.IntOrString `json:"port"`

	// the protocol spoken on the selected port; when empty or "unknown"
	// the proxy detects the protocol at runtime
	// +optional
	ProxyProtocol ProxyProtocol `json:"proxyProtocol,omitempty"`

	// overrides the cluster default access policy for this port when no
	// authorization resource selects the Server
	// +optional
	AccessPolicy string `json:"accessPolicy,omitempty"`
}

// ProxyProtocol is the protocol declared by a Server
type ProxyProtocol string

const (
	ProxyProtocolUnknown ProxyProtocol = "unknown"
	ProxyProtocolHTTP1   ProxyProtocol = "HTTP/1"
	ProxyProtocolHTTP2   ProxyProtocol = "HTTP/2"
	ProxyProtocolGRPC    ProxyProtocol = "gRPC"
	ProxyProtocolOpaque  ProxyProtocol = "opaque"
	ProxyProtocolTLS     ProxyProtocol = "TLS"
)

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// ServerList is a list of Server resources
type ServerList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`

	Items []Server `json:"items"`
}

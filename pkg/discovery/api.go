package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/meshgate/policy-controller/pkg/policy"
)

// InboundRequest asks for the inbound policy stream of one workload port.
// Workload is "namespace:name", matching the identity a proxy is injected
// with.
type InboundRequest struct {
	Workload string `json:"workload"`
	Port     uint32 `json:"port"`
}

// Split validates the request and returns its parts
func (r *InboundRequest) Split() (namespace, name string, port uint16, err error) {
	parts := strings.SplitN(r.Workload, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", 0, fmt.Errorf("workload must be namespace:name, got %q", r.Workload)
	}
	if r.Port == 0 || r.Port > 65535 {
		return "", "", 0, fmt.Errorf("invalid port %d", r.Port)
	}
	return parts[0], parts[1], uint16(r.Port), nil
}

// OutboundRequest asks for the outbound policy stream of one target. The
// target is an IP the proxy is connecting to; the controller resolves it
// to a Service or EgressNetwork.
type OutboundRequest struct {
	// connect-time destination address
	Address string `json:"address"`
	Port    uint32 `json:"port"`
	// namespace of the workload opening the connection
	SourceNamespace string `json:"sourceNamespace"`
}

// InboundStream is the server side of an inbound policy subscription
type InboundStream interface {
	Context() context.Context
	Send(*policy.InboundServer) error
}

// OutboundStream is the server side of an outbound policy subscription
type OutboundStream interface {
	Context() context.Context
	Send(*policy.OutboundPolicy) error
}

// PolicyDiscoveryServer is implemented by the discovery Server and
// registered against the gRPC service descriptor
type PolicyDiscoveryServer interface {
	WatchInbound(*InboundRequest, InboundStream) error
	WatchOutbound(*OutboundRequest, OutboundStream) error
}

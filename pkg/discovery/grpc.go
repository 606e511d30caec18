package discovery

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/meshgate/policy-controller/pkg/policy"
)

// The discovery API is served with an explicit service descriptor and a
// JSON codec; proxies select it with the application/grpc+json
// content-subtype.

const ServiceName = "meshgate.policy.v1alpha1.PolicyDiscovery"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// RegisterPolicyDiscoveryServer registers the discovery service on a
// gRPC server
func RegisterPolicyDiscoveryServer(s *grpc.Server, srv PolicyDiscoveryServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PolicyDiscoveryServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchInbound",
			Handler:       watchInboundHandler,
			ServerStreams: true,
		},
		{
			StreamName:    "WatchOutbound",
			Handler:       watchOutboundHandler,
			ServerStreams: true,
		},
	},
	Metadata: "meshgate/policy/v1alpha1/discovery",
}

func watchInboundHandler(srv any, stream grpc.ServerStream) error {
	req := new(InboundRequest)
	if err := stream.RecvMsg(req); err != nil {
		return fmt.Errorf("receiving inbound request: %w", err)
	}
	return srv.(PolicyDiscoveryServer).WatchInbound(req, &inboundServerStream{stream})
}

func watchOutboundHandler(srv any, stream grpc.ServerStream) error {
	req := new(OutboundRequest)
	if err := stream.RecvMsg(req); err != nil {
		return fmt.Errorf("receiving outbound request: %w", err)
	}
	return srv.(PolicyDiscoveryServer).WatchOutbound(req, &outboundServerStream{stream})
}

type inboundServerStream struct {
	grpc.ServerStream
}

func (s *inboundServerStream) Send(v *policy.InboundServer) error { return s.SendMsg(v) }

type outboundServerStream struct {
	grpc.ServerStream
}

func (s *outboundServerStream) Send(v *policy.OutboundPolicy) error { return s.SendMsg(v) }

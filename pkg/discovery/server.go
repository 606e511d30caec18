package discovery

import (
	"errors"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/meshgate/policy-controller/pkg/distribute"
	"github.com/meshgate/policy-controller/pkg/index"
)

// Server streams policy updates to proxies. Each RPC holds one
// subscription on the index's distribution tree; when the subscribed
// resource is deleted the stream ends cleanly and the proxy re-resolves.
type Server struct {
	ix     *index.ClusterIndex
	logger *zap.SugaredLogger

	subscriptions *prometheus.GaugeVec
	updates       *prometheus.CounterVec
}

// NewServer creates a discovery server over the given index
func NewServer(ix *index.ClusterIndex, logger *zap.SugaredLogger, register bool) *Server {
	s := &Server{
		ix:     ix,
		logger: logger.Named("discovery"),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "policy_discovery",
			Name:      "subscriptions",
			Help:      "Open policy subscription streams.",
		}, []string{"direction"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "policy_discovery",
			Name:      "updates_total",
			Help:      "Policy updates sent to subscribers.",
		}, []string{"direction"}),
	}
	if register {
		prometheus.MustRegister(s.subscriptions, s.updates)
	}
	return s
}

// WatchInbound implements PolicyDiscoveryServer
func (s *Server) WatchInbound(req *InboundRequest, stream InboundStream) error {
	namespace, name, port, err := req.Split()
	if err != nil {
		return grpcstatus.Error(codes.InvalidArgument, err.Error())
	}

	ctx := stream.Context()
	w, err := s.ix.SubscribeInbound(ctx, namespace, name, port)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return grpcstatus.Error(codes.NotFound, err.Error())
		}
		return err
	}

	s.subscriptions.WithLabelValues("inbound").Inc()
	defer s.subscriptions.WithLabelValues("inbound").Dec()
	s.logger.Debugf("Inbound subscription %s/%s:%d opened", namespace, name, port)

	for {
		value, err := w.Next(ctx)
		if err != nil {
			if errors.Is(err, distribute.ErrWatchClosed) {
				s.logger.Debugf("Inbound subscription %s/%s:%d closed, workload gone", namespace, name, port)
				return nil
			}
			return err
		}
		if err := stream.Send(value); err != nil {
			return err
		}
		s.updates.WithLabelValues("inbound").Inc()
	}
}

// WatchOutbound implements PolicyDiscoveryServer
func (s *Server) WatchOutbound(req *OutboundRequest, stream OutboundStream) error {
	addr, err := netip.ParseAddr(req.Address)
	if err != nil {
		return grpcstatus.Errorf(codes.InvalidArgument, "invalid address %q: %v", req.Address, err)
	}
	if req.Port == 0 || req.Port > 65535 {
		return grpcstatus.Errorf(codes.InvalidArgument, "invalid port %d", req.Port)
	}

	kind, namespace, name, ok := s.ix.LookupTarget(addr, req.SourceNamespace)
	if !ok {
		return grpcstatus.Errorf(codes.NotFound, "no policy parent claims %s", req.Address)
	}

	ctx := stream.Context()
	w, err := s.ix.SubscribeOutbound(ctx, kind, namespace, name, uint16(req.Port), req.SourceNamespace)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return grpcstatus.Error(codes.NotFound, err.Error())
		}
		return err
	}

	s.subscriptions.WithLabelValues("outbound").Inc()
	defer s.subscriptions.WithLabelValues("outbound").Dec()
	s.logger.Debugf("Outbound subscription %s %s/%s:%d opened for %s", kind, namespace, name, req.Port, req.SourceNamespace)

	for {
		value, err := w.Next(ctx)
		if err != nil {
			if errors.Is(err, distribute.ErrWatchClosed) {
				s.logger.Debugf("Outbound subscription %s/%s:%d closed, parent gone", namespace, name, req.Port)
				return nil
			}
			return err
		}
		if err := stream.Send(value); err != nil {
			return err
		}
		s.updates.WithLabelValues("outbound").Inc()
	}
}

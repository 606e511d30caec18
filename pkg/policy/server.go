package policy

import (
	"maps"

	"github.com/samber/lo"
)

// InboundServer is the full inbound policy for one (workload, port) key
type InboundServer struct {
	Reference      ServerRef                        `json:"reference"`
	Protocol       Protocol                         `json:"protocol"`
	Authorizations map[AuthzRef]ClientAuthorization `json:"authorizations,omitempty"`
	HTTPRoutes     []InboundRoute[HTTPRouteMatch]   `json:"httpRoutes,omitempty"`
	GRPCRoutes     []InboundRoute[GRPCRouteMatch]   `json:"grpcRoutes,omitempty"`
	RateLimit      *RateLimit                       `json:"rateLimit,omitempty"`
}

// ParentRef identifies the Service or EgressNetwork an outbound policy
// was derived for
type ParentRef struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Port      uint16 `json:"port"`
}

// OutboundPolicy is the full outbound policy for one
// (service-or-egress-network, port, source-namespace) key
type OutboundPolicy struct {
	Parent         ParentRef                       `json:"parent"`
	TrafficPolicy  string                          `json:"trafficPolicy,omitempty"`
	Opaque         bool                            `json:"opaque,omitempty"`
	HTTPRoutes     []OutboundRoute[HTTPRouteMatch] `json:"httpRoutes,omitempty"`
	GRPCRoutes     []OutboundRoute[GRPCRouteMatch] `json:"grpcRoutes,omitempty"`
	TLSRoutes      []OutboundRoute[TLSRouteMatch]  `json:"tlsRoutes,omitempty"`
	TCPRoutes      []OutboundRoute[TCPRouteMatch]  `json:"tcpRoutes,omitempty"`
	FailureAccrual *FailureAccrual                 `json:"failureAccrual,omitempty"`
}

// Clone returns a copy safe to hand to a subscriber while the index
// mutates the original
func (s *InboundServer) Clone() *InboundServer {
	if s == nil {
		return nil
	}
	out := *s
	out.Authorizations = cloneAuthzMap(s.Authorizations)
	out.HTTPRoutes = lo.Map(s.HTTPRoutes, func(r InboundRoute[HTTPRouteMatch], _ int) InboundRoute[HTTPRouteMatch] {
		return cloneInboundRoute(r)
	})
	out.GRPCRoutes = lo.Map(s.GRPCRoutes, func(r InboundRoute[GRPCRouteMatch], _ int) InboundRoute[GRPCRouteMatch] {
		return cloneInboundRoute(r)
	})
	if s.RateLimit != nil {
		rl := *s.RateLimit
		rl.Overrides = append([]RateLimitOverride(nil), s.RateLimit.Overrides...)
		out.RateLimit = &rl
	}
	return &out
}

// Clone returns a copy safe to hand to a subscriber while the index
// mutates the original
func (p *OutboundPolicy) Clone() *OutboundPolicy {
	if p == nil {
		return nil
	}
	out := *p
	out.HTTPRoutes = lo.Map(p.HTTPRoutes, func(r OutboundRoute[HTTPRouteMatch], _ int) OutboundRoute[HTTPRouteMatch] {
		return cloneOutboundRoute(r)
	})
	out.GRPCRoutes = lo.Map(p.GRPCRoutes, func(r OutboundRoute[GRPCRouteMatch], _ int) OutboundRoute[GRPCRouteMatch] {
		return cloneOutboundRoute(r)
	})
	out.TLSRoutes = lo.Map(p.TLSRoutes, func(r OutboundRoute[TLSRouteMatch], _ int) OutboundRoute[TLSRouteMatch] {
		return cloneOutboundRoute(r)
	})
	out.TCPRoutes = lo.Map(p.TCPRoutes, func(r OutboundRoute[TCPRouteMatch], _ int) OutboundRoute[TCPRouteMatch] {
		return cloneOutboundRoute(r)
	})
	if p.FailureAccrual != nil {
		fa := *p.FailureAccrual
		out.FailureAccrual = &fa
	}
	return &out
}

func cloneAuthzMap(in map[AuthzRef]ClientAuthorization) map[AuthzRef]ClientAuthorization {
	if in == nil {
		return nil
	}
	return maps.Clone(in)
}

func cloneInboundRoute[M any](r InboundRoute[M]) InboundRoute[M] {
	r.Hostnames = append([]string(nil), r.Hostnames...)
	r.Rules = append([]InboundRouteRule[M](nil), r.Rules...)
	r.Authorizations = cloneAuthzMap(r.Authorizations)
	return r
}

// CloneOutboundRoute returns a deep copy of a route; the index copies
// stored routes before resolving per-key backend state into them
func CloneOutboundRoute[M any](r OutboundRoute[M]) OutboundRoute[M] {
	return cloneOutboundRoute(r)
}

func cloneOutboundRoute[M any](r OutboundRoute[M]) OutboundRoute[M] {
	r.Hostnames = append([]string(nil), r.Hostnames...)
	rules := make([]OutboundRouteRule[M], len(r.Rules))
	for i, rule := range r.Rules {
		rule.Backends = append([]Backend(nil), rule.Backends...)
		if rule.Retry != nil {
			retry := *rule.Retry
			rule.Retry = &retry
		}
		rules[i] = rule
	}
	r.Rules = rules
	return r
}

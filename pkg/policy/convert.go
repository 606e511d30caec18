package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"
	gatewayv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"
)

// Annotation keys honored on route resources for behavior the Gateway API
// does not model
const (
	RetryLimitAnnotation     = "retry.meshgate.io/limit"
	RetryTimeoutAnnotation   = "retry.meshgate.io/timeout"
	RetryHTTPAnnotation      = "retry.meshgate.io/http"
	RequestTimeoutAnnotation = "timeout.meshgate.io/request"
)

// ConvertHTTPRoute converts a Gateway API HTTPRoute into the internal
// outbound route shape. Backend existence is resolved later against the
// index; Exists is left false here. The inbound view of the same route
// drops backends via AsInbound.
func ConvertHTTPRoute(route *gatewayv1.HTTPRoute) (OutboundRoute[HTTPRouteMatch], error) {
	out := OutboundRoute[HTTPRouteMatch]{
		RouteMeta: RouteMeta{
			Ref:       RouteRef{Kind: RouteKindHTTP, Namespace: route.Namespace, Name: route.Name},
			CreatedAt: route.CreationTimestamp.Time,
		},
	}
	for _, h := range route.Spec.Hostnames {
		out.Hostnames = append(out.Hostnames, string(h))
	}
	retry, err := retryFromAnnotations(route.Annotations)
	if err != nil {
		return out, err
	}
	reqTimeout, err := timeoutFromAnnotations(route.Annotations)
	if err != nil {
		return out, err
	}
	for i, rule := range route.Spec.Rules {
		converted := OutboundRouteRule[HTTPRouteMatch]{Retry: retry}
		converted.Timeouts.Request = reqTimeout
		for _, m := range rule.Matches {
			match, err := convertHTTPMatch(m)
			if err != nil {
				return out, fmt.Errorf("rule %d: %w", i, err)
			}
			converted.Matches = append(converted.Matches, match)
		}
		for _, f := range rule.Filters {
			filter, err := convertHTTPFilter(f)
			if err != nil {
				return out, fmt.Errorf("rule %d: %w", i, err)
			}
			converted.Filters = append(converted.Filters, filter)
		}
		for _, b := range rule.BackendRefs {
			backend, err := convertBackendRef(b.BackendRef, route.Namespace)
			if err != nil {
				return out, fmt.Errorf("rule %d: %w", i, err)
			}
			for _, f := range b.Filters {
				filter, err := convertHTTPFilter(f)
				if err != nil {
					return out, fmt.Errorf("rule %d: %w", i, err)
				}
				backend.Filters = append(backend.Filters, filter)
			}
			converted.Backends = append(converted.Backends, backend)
		}
		if t := rule.Timeouts; t != nil {
			if t.Request != nil {
				d, err := time.ParseDuration(string(*t.Request))
				if err != nil {
					return out, fmt.Errorf("rule %d: invalid request timeout: %w", i, err)
				}
				converted.Timeouts.Request = d
			}
			if t.BackendRequest != nil {
				d, err := time.ParseDuration(string(*t.BackendRequest))
				if err != nil {
					return out, fmt.Errorf("rule %d: invalid backend timeout: %w", i, err)
				}
				converted.Timeouts.BackendRequest = d
			}
		}
		out.Rules = append(out.Rules, converted)
	}
	return out, nil
}

// ConvertGRPCRoute converts a Gateway API GRPCRoute into the internal
// outbound route shape
func ConvertGRPCRoute(route *gatewayv1.GRPCRoute) (OutboundRoute[GRPCRouteMatch], error) {
	out := OutboundRoute[GRPCRouteMatch]{
		RouteMeta: RouteMeta{
			Ref:       RouteRef{Kind: RouteKindGRPC, Namespace: route.Namespace, Name: route.Name},
			CreatedAt: route.CreationTimestamp.Time,
		},
	}
	for _, h := range route.Spec.Hostnames {
		out.Hostnames = append(out.Hostnames, string(h))
	}
	retry, err := retryFromAnnotations(route.Annotations)
	if err != nil {
		return out, err
	}
	for i, rule := range route.Spec.Rules {
		converted := OutboundRouteRule[GRPCRouteMatch]{Retry: retry}
		for _, m := range rule.Matches {
			match, err := convertGRPCMatch(m)
			if err != nil {
				return out, fmt.Errorf("rule %d: %w", i, err)
			}
			converted.Matches = append(converted.Matches, match)
		}
		for _, f := range rule.Filters {
			filter, err := convertGRPCFilter(f)
			if err != nil {
				return out, fmt.Errorf("rule %d: %w", i, err)
			}
			converted.Filters = append(converted.Filters, filter)
		}
		for _, b := range rule.BackendRefs {
			backend, err := convertBackendRef(b.BackendRef, route.Namespace)
			if err != nil {
				return out, fmt.Errorf("rule %d: %w", i, err)
			}
			converted.Backends = append(converted.Backends, backend)
		}
		out.Rules = append(out.Rules, converted)
	}
	return out, nil
}

// ConvertTLSRoute converts a Gateway API TLSRoute; its hostnames become
// SNI matches
func ConvertTLSRoute(route *gatewayv1alpha2.TLSRoute) (OutboundRoute[TLSRouteMatch], error) {
	out := OutboundRoute[TLSRouteMatch]{
		RouteMeta: RouteMeta{
			Ref:       RouteRef{Kind: RouteKindTLS, Namespace: route.Namespace, Name: route.Name},
			CreatedAt: route.CreationTimestamp.Time,
		},
	}
	var snis []string
	for _, h := range route.Spec.Hostnames {
		out.Hostnames = append(out.Hostnames, string(h))
		snis = append(snis, string(h))
	}
	for i, rule := range route.Spec.Rules {
		converted := OutboundRouteRule[TLSRouteMatch]{}
		if len(snis) > 0 {
			converted.Matches = []TLSRouteMatch{{SNIs: snis}}
		}
		for _, b := range rule.BackendRefs {
			backend, err := convertBackendRef(b, route.Namespace)
			if err != nil {
				return out, fmt.Errorf("rule %d: %w", i, err)
			}
			converted.Backends = append(converted.Backends, backend)
		}
		out.Rules = append(out.Rules, converted)
	}
	return out, nil
}

// ConvertTCPRoute converts a Gateway API TCPRoute
func ConvertTCPRoute(route *gatewayv1alpha2.TCPRoute) (OutboundRoute[TCPRouteMatch], error) {
	out := OutboundRoute[TCPRouteMatch]{
		RouteMeta: RouteMeta{
			Ref:       RouteRef{Kind: RouteKindTCP, Namespace: route.Namespace, Name: route.Name},
			CreatedAt: route.CreationTimestamp.Time,
		},
	}
	for i, rule := range route.Spec.Rules {
		converted := OutboundRouteRule[TCPRouteMatch]{}
		for _, b := range rule.BackendRefs {
			backend, err := convertBackendRef(b, route.Namespace)
			if err != nil {
				return out, fmt.Errorf("rule %d: %w", i, err)
			}
			converted.Backends = append(converted.Backends, backend)
		}
		out.Rules = append(out.Rules, converted)
	}
	return out, nil
}

// AsInbound projects an outbound route onto the inbound shape, dropping
// backends, retries and timeouts; authorizations are attached by the
// caller
func AsInbound[M any](r OutboundRoute[M]) InboundRoute[M] {
	in := InboundRoute[M]{
		RouteMeta: r.RouteMeta,
		Hostnames: append([]string(nil), r.Hostnames...),
	}
	for _, rule := range r.Rules {
		in.Rules = append(in.Rules, InboundRouteRule[M]{
			Matches: append([]M(nil), rule.Matches...),
			Filters: append([]Filter(nil), rule.Filters...),
		})
	}
	return in
}

func convertHTTPMatch(m gatewayv1.HTTPRouteMatch) (HTTPRouteMatch, error) {
	var out HTTPRouteMatch
	if m.Path != nil {
		kind := PathPrefix
		if m.Path.Type != nil {
			switch *m.Path.Type {
			case gatewayv1.PathMatchExact:
				kind = PathExact
			case gatewayv1.PathMatchPathPrefix:
				kind = PathPrefix
			case gatewayv1.PathMatchRegularExpression:
				kind = PathRegex
			default:
				return out, fmt.Errorf("unknown path match type %q", *m.Path.Type)
			}
		}
		value := "/"
		if m.Path.Value != nil {
			value = *m.Path.Value
		}
		out.Path = &PathMatch{Kind: kind, Value: value}
	}
	for _, h := range m.Headers {
		regex := h.Type != nil && *h.Type == gatewayv1.HeaderMatchRegularExpression
		out.Headers = append(out.Headers, HeaderMatch{Name: string(h.Name), Value: h.Value, Regex: regex})
	}
	for _, q := range m.QueryParams {
		regex := q.Type != nil && *q.Type == gatewayv1.QueryParamMatchRegularExpression
		out.QueryParams = append(out.QueryParams, QueryParamMatch{Name: string(q.Name), Value: q.Value, Regex: regex})
	}
	if m.Method != nil {
		out.Method = string(*m.Method)
	}
	return out, nil
}

func convertGRPCMatch(m gatewayv1.GRPCRouteMatch) (GRPCRouteMatch, error) {
	var out GRPCRouteMatch
	if m.Method != nil {
		if m.Method.Type != nil && *m.Method.Type == gatewayv1.GRPCMethodMatchRegularExpression {
			return out, fmt.Errorf("regular expression method matches are not supported")
		}
		mm := GRPCMethodMatch{}
		if m.Method.Service != nil {
			mm.Service = *m.Method.Service
		}
		if m.Method.Method != nil {
			mm.Method = *m.Method.Method
		}
		out.Method = &mm
	}
	for _, h := range m.Headers {
		regex := h.Type != nil && *h.Type == gatewayv1.HeaderMatchRegularExpression
		out.Headers = append(out.Headers, HeaderMatch{Name: string(h.Name), Value: h.Value, Regex: regex})
	}
	return out, nil
}

func convertHTTPFilter(f gatewayv1.HTTPRouteFilter) (Filter, error) {
	switch f.Type {
	case gatewayv1.HTTPRouteFilterRequestHeaderModifier:
		if f.RequestHeaderModifier == nil {
			return Filter{}, fmt.Errorf("requestHeaderModifier filter missing config")
		}
		return Filter{RequestHeaderModifier: convertHeaderFilter(f.RequestHeaderModifier)}, nil
	case gatewayv1.HTTPRouteFilterResponseHeaderModifier:
		if f.ResponseHeaderModifier == nil {
			return Filter{}, fmt.Errorf("responseHeaderModifier filter missing config")
		}
		return Filter{ResponseHeaderModifier: convertHeaderFilter(f.ResponseHeaderModifier)}, nil
	case gatewayv1.HTTPRouteFilterRequestRedirect:
		if f.RequestRedirect == nil {
			return Filter{}, fmt.Errorf("requestRedirect filter missing config")
		}
		return Filter{RequestRedirect: convertRedirect(f.RequestRedirect)}, nil
	default:
		return Filter{}, fmt.Errorf("unsupported filter type %q", f.Type)
	}
}

func convertGRPCFilter(f gatewayv1.GRPCRouteFilter) (Filter, error) {
	switch f.Type {
	case gatewayv1.GRPCRouteFilterRequestHeaderModifier:
		if f.RequestHeaderModifier == nil {
			return Filter{}, fmt.Errorf("requestHeaderModifier filter missing config")
		}
		return Filter{RequestHeaderModifier: convertHeaderFilter(f.RequestHeaderModifier)}, nil
	case gatewayv1.GRPCRouteFilterResponseHeaderModifier:
		if f.ResponseHeaderModifier == nil {
			return Filter{}, fmt.Errorf("responseHeaderModifier filter missing config")
		}
		return Filter{ResponseHeaderModifier: convertHeaderFilter(f.ResponseHeaderModifier)}, nil
	default:
		return Filter{}, fmt.Errorf("unsupported filter type %q", f.Type)
	}
}

func convertHeaderFilter(f *gatewayv1.HTTPHeaderFilter) *HeaderModifier {
	mod := &HeaderModifier{Remove: append([]string(nil), f.Remove...)}
	for _, h := range f.Add {
		mod.Add = append(mod.Add, Header{Name: string(h.Name), Value: h.Value})
	}
	for _, h := range f.Set {
		mod.Set = append(mod.Set, Header{Name: string(h.Name), Value: h.Value})
	}
	return mod
}

func convertRedirect(r *gatewayv1.HTTPRequestRedirectFilter) *Redirect {
	out := &Redirect{}
	if r.Scheme != nil {
		out.Scheme = *r.Scheme
	}
	if r.Hostname != nil {
		out.Host = string(*r.Hostname)
	}
	if r.Path != nil && r.Path.ReplaceFullPath != nil {
		out.Path = *r.Path.ReplaceFullPath
	}
	if r.Port != nil {
		out.Port = uint16(*r.Port)
	}
	if r.StatusCode != nil {
		out.StatusCode = *r.StatusCode
	}
	return out
}

func convertBackendRef(b gatewayv1.BackendRef, routeNamespace string) (Backend, error) {
	kind := ServerKindService
	if b.Kind != nil {
		switch string(*b.Kind) {
		case "Service":
			kind = ServerKindService
		case "EgressNetwork":
			kind = ServerKindEgress
		default:
			return Backend{}, fmt.Errorf("unsupported backend kind %q", *b.Kind)
		}
	}
	ns := routeNamespace
	if b.Namespace != nil {
		ns = string(*b.Namespace)
	}
	var port uint16
	if b.Port != nil {
		port = uint16(*b.Port)
	}
	weight := uint32(1)
	if b.Weight != nil {
		if *b.Weight < 0 {
			return Backend{}, fmt.Errorf("negative backend weight %d", *b.Weight)
		}
		weight = uint32(*b.Weight)
	}
	return Backend{
		Ref:    BackendRef{Kind: kind, Namespace: ns, Name: string(b.Name), Port: port},
		Weight: weight,
	}, nil
}

func retryFromAnnotations(annotations map[string]string) (*RouteRetry, error) {
	var retry *RouteRetry
	ensure := func() *RouteRetry {
		if retry == nil {
			retry = &RouteRetry{}
		}
		return retry
	}
	if v, ok := annotations[RetryLimitAnnotation]; ok {
		limit, err := strconv.ParseUint(v, 10, 32)
		if err != nil || limit == 0 {
			return nil, fmt.Errorf("invalid %s %q", RetryLimitAnnotation, v)
		}
		ensure().Limit = uint32(limit)
	}
	if v, ok := annotations[RetryTimeoutAnnotation]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", RetryTimeoutAnnotation, v, err)
		}
		ensure().Timeout = d
	}
	if v, ok := annotations[RetryHTTPAnnotation]; ok {
		for _, cond := range strings.Split(v, ",") {
			cond = strings.TrimSpace(cond)
			switch cond {
			case "5xx", "gateway-error":
				ensure().Conditions = append(ensure().Conditions, cond)
			default:
				return nil, fmt.Errorf("invalid %s condition %q", RetryHTTPAnnotation, cond)
			}
		}
	}
	return retry, nil
}

func timeoutFromAnnotations(annotations map[string]string) (time.Duration, error) {
	v, ok := annotations[RequestTimeoutAnnotation]
	if !ok {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", RequestTimeoutAnnotation, v, err)
	}
	return d, nil
}

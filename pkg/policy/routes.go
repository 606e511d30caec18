package policy

import (
	"sort"
	"time"
)

// HTTP route model. Matches, filters and backends are closed unions: each
// union value sets exactly one of its pointer fields.

// PathMatchKind enumerates path match flavors
type PathMatchKind string

const (
	PathExact  PathMatchKind = "exact"
	PathPrefix PathMatchKind = "prefix"
	PathRegex  PathMatchKind = "regex"
)

// PathMatch matches a request path
type PathMatch struct {
	Kind  PathMatchKind `json:"kind"`
	Value string        `json:"value"`
}

// HeaderMatch matches a request or response header
type HeaderMatch struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Regex bool   `json:"regex,omitempty"`
}

// QueryParamMatch matches a query parameter
type QueryParamMatch struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Regex bool   `json:"regex,omitempty"`
}

// HTTPRouteMatch is one match clause of an HTTP route rule; empty fields
// match everything
type HTTPRouteMatch struct {
	Path        *PathMatch        `json:"path,omitempty"`
	Headers     []HeaderMatch     `json:"headers,omitempty"`
	QueryParams []QueryParamMatch `json:"queryParams,omitempty"`
	Method      string            `json:"method,omitempty"`
}

// GRPCMethodMatch matches a gRPC service/method pair
type GRPCMethodMatch struct {
	Service string `json:"service,omitempty"`
	Method  string `json:"method,omitempty"`
}

// GRPCRouteMatch is one match clause of a gRPC route rule
type GRPCRouteMatch struct {
	Method  *GRPCMethodMatch `json:"method,omitempty"`
	Headers []HeaderMatch    `json:"headers,omitempty"`
}

// Header is a literal header name/value pair
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HeaderModifier adds, sets and removes headers
type HeaderModifier struct {
	Add    []Header `json:"add,omitempty"`
	Set    []Header `json:"set,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// Redirect rewrites a request into a redirect response
type Redirect struct {
	Scheme     string `json:"scheme,omitempty"`
	Host       string `json:"host,omitempty"`
	Path       string `json:"path,omitempty"`
	Port       uint16 `json:"port,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// Ratio is a sampling fraction
type Ratio struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

// FailureInjector synthesizes error responses for a fraction of requests
type FailureInjector struct {
	Status  uint16 `json:"status"`
	Message string `json:"message,omitempty"`
	Ratio   Ratio  `json:"ratio"`
}

// Filter is a closed union: exactly one field is non-nil
type Filter struct {
	RequestHeaderModifier  *HeaderModifier  `json:"requestHeaderModifier,omitempty"`
	ResponseHeaderModifier *HeaderModifier  `json:"responseHeaderModifier,omitempty"`
	RequestRedirect        *Redirect        `json:"requestRedirect,omitempty"`
	FailureInjector        *FailureInjector `json:"failureInjector,omitempty"`
}

// BackendRef identifies a route backend and whether the referenced
// resource currently exists
type BackendRef struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Port      uint16 `json:"port,omitempty"`
	// false when the referenced Service or EgressNetwork is absent from
	// the index; such backends stay in the route rather than being dropped
	Exists bool `json:"exists"`
}

// Backend is a weighted route backend
type Backend struct {
	Ref     BackendRef `json:"ref"`
	Weight  uint32     `json:"weight"`
	Filters []Filter   `json:"filters,omitempty"`
}

// RouteRetry configures retries for an outbound route rule
type RouteRetry struct {
	Limit      uint32        `json:"limit,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
	Conditions []string      `json:"conditions,omitempty"`
}

// RouteTimeouts configures request timeouts for an outbound route rule
type RouteTimeouts struct {
	Request        time.Duration `json:"request,omitempty"`
	BackendRequest time.Duration `json:"backendRequest,omitempty"`
}

// InboundRouteRule pairs match clauses with request filters
type InboundRouteRule[M any] struct {
	Matches []M      `json:"matches,omitempty"`
	Filters []Filter `json:"filters,omitempty"`
}

// InboundRoute is a route as served to the inbound side of a proxy; its
// authorizations are resolved the same way a Server's are
type InboundRoute[M any] struct {
	RouteMeta      `json:",inline"`
	Hostnames      []string                         `json:"hostnames,omitempty"`
	Rules          []InboundRouteRule[M]            `json:"rules,omitempty"`
	Authorizations map[AuthzRef]ClientAuthorization `json:"authorizations,omitempty"`
}

// OutboundRouteRule pairs match clauses with filters, weighted backends
// and per-rule retry/timeout configuration
type OutboundRouteRule[M any] struct {
	Matches  []M           `json:"matches,omitempty"`
	Filters  []Filter      `json:"filters,omitempty"`
	Backends []Backend     `json:"backends,omitempty"`
	Retry    *RouteRetry   `json:"retry,omitempty"`
	Timeouts RouteTimeouts `json:"timeouts,omitempty"`
}

// OutboundRoute is a route as served to the outbound side of a proxy
type OutboundRoute[M any] struct {
	RouteMeta `json:",inline"`
	Hostnames []string               `json:"hostnames,omitempty"`
	Rules     []OutboundRouteRule[M] `json:"rules,omitempty"`
}

// TLSRouteMatch matches the SNI of a TLS session
type TLSRouteMatch struct {
	SNIs []string `json:"snis,omitempty"`
}

// TCPRouteMatch is intentionally empty: TCP routes forward all traffic
type TCPRouteMatch struct{}

// SortRoutes orders routes into the total order used for precedence:
// creation timestamp ascending with unset timestamps last, then
// (namespace, name) ascending. Sorting is stable and idempotent.
func SortRoutes[T Routed](routes []T) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i].Meta(), routes[j].Meta()
		switch {
		case a.CreatedAt.IsZero() && !b.CreatedAt.IsZero():
			return false
		case !a.CreatedAt.IsZero() && b.CreatedAt.IsZero():
			return true
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Ref.Namespace != b.Ref.Namespace {
			return a.Ref.Namespace < b.Ref.Namespace
		}
		return a.Ref.Name < b.Ref.Name
	})
}

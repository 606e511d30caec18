package policy

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// ProtocolKind enumerates the protocols a proxy can be told to serve
type ProtocolKind string

const (
	ProtocolDetect ProtocolKind = "detect"
	ProtocolHTTP1  ProtocolKind = "http1"
	ProtocolHTTP2  ProtocolKind = "http2"
	ProtocolGRPC   ProtocolKind = "grpc"
	ProtocolOpaque ProtocolKind = "opaque"
	ProtocolTLS    ProtocolKind = "tls"
)

// Protocol is a resolved server protocol; DetectTimeout is only meaningful
// for ProtocolDetect
type Protocol struct {
	Kind          ProtocolKind  `json:"kind"`
	DetectTimeout time.Duration `json:"detectTimeout,omitempty"`
}

// ServerRef identifies the Server a policy was derived from; a synthetic
// default reference carries the access-policy name instead of a resource name
type ServerRef struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
}

const (
	ServerKindServer  = "server"
	ServerKindDefault = "default"
	ServerKindEgress  = "egressnetwork"
	ServerKindService = "service"
)

// AuthnKind enumerates client authentication requirements
type AuthnKind string

const (
	// any client, TLS or not
	AuthnUnauthenticated AuthnKind = "unauthenticated"
	// any client presenting TLS, identity not required
	AuthnTLSUnauthenticated AuthnKind = "tls-unauthenticated"
	// clients whose TLS identity matches one of Identities
	AuthnTLSAuthenticated AuthnKind = "tls-authenticated"
)

// IdentityMatch matches a mesh identity either exactly or by DNS-label
// suffix; exactly one field is set. Only Any matches every identity; a
// zero IdentityMatch matches nothing.
type IdentityMatch struct {
	Exact string `json:"exact,omitempty"`
	// suffix labels in DNS order, e.g. ["cluster", "local"]
	Suffix []string `json:"suffix,omitempty"`
	// marks the catch-all "*" matcher
	Any bool `json:"any,omitempty"`
}

// ClientAuthentication is the authentication half of an authorization
type ClientAuthentication struct {
	Kind       AuthnKind       `json:"kind"`
	Identities []IdentityMatch `json:"identities,omitempty"`
}

// NetworkMatch is a CIDR block minus carved-out exceptions
type NetworkMatch struct {
	Net    netip.Prefix   `json:"net"`
	Except []netip.Prefix `json:"except,omitempty"`
}

// Contains reports whether addr falls inside the block and outside every
// exception
func (n NetworkMatch) Contains(addr netip.Addr) bool {
	if !n.Net.Contains(addr) {
		return false
	}
	for _, e := range n.Except {
		if e.Contains(addr) {
			return false
		}
	}
	return true
}

// AuthzRef identifies the resource an authorization was derived from. It
// keys authorization maps on the wire, so it encodes as the text form
// "kind/namespace/name"; cluster-scoped refs leave the namespace segment
// empty.
type AuthzRef struct {
	Kind      string
	Namespace string
	Name      string
}

// MarshalText implements encoding.TextMarshaler
func (r AuthzRef) MarshalText() ([]byte, error) {
	return []byte(r.Kind + "/" + r.Namespace + "/" + r.Name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *AuthzRef) UnmarshalText(text []byte) error {
	parts := strings.SplitN(string(text), "/", 3)
	if len(parts) != 3 {
		return fmt.Errorf("malformed authorization ref %q", text)
	}
	r.Kind, r.Namespace, r.Name = parts[0], parts[1], parts[2]
	return nil
}

const (
	AuthzKindServerAuthorization = "serverauthorization"
	AuthzKindAuthorizationPolicy = "authorizationpolicy"
	AuthzKindDefault             = "default"
)

// ClientAuthorization permits clients on the given networks that satisfy
// the authentication requirement
type ClientAuthorization struct {
	Networks       []NetworkMatch       `json:"networks"`
	Authentication ClientAuthentication `json:"authentication"`
}

// RouteKind enumerates the supported route resource kinds
type RouteKind string

const (
	RouteKindHTTP RouteKind = "HTTPRoute"
	RouteKindGRPC RouteKind = "GRPCRoute"
	RouteKindTLS  RouteKind = "TLSRoute"
	RouteKindTCP  RouteKind = "TCPRoute"
)

// RouteRef identifies a route resource
type RouteRef struct {
	Kind      RouteKind `json:"kind"`
	Namespace string    `json:"namespace"`
	Name      string    `json:"name"`
}

// RouteMeta is the ordering and identification metadata common to every
// route kind; a zero CreatedAt sorts after any set timestamp
type RouteMeta struct {
	Ref       RouteRef  `json:"ref"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Meta implements Routed
func (m RouteMeta) Meta() RouteMeta { return m }

// Routed is any route value carrying ordering metadata
type Routed interface {
	Meta() RouteMeta
}

// RateLimit is a resolved per-server request-rate limit
type RateLimit struct {
	Name      string              `json:"name"`
	Total     *Limit              `json:"total,omitempty"`
	Identity  *Limit              `json:"identity,omitempty"`
	Overrides []RateLimitOverride `json:"overrides,omitempty"`
}

// Limit caps requests per second
type Limit struct {
	RequestsPerSecond uint32 `json:"requestsPerSecond"`
}

// RateLimitOverride applies a limit to specific client identities
type RateLimitOverride struct {
	Limit   Limit           `json:"limit"`
	Clients []IdentityMatch `json:"clients,omitempty"`
}

// FailureAccrual configures consecutive-failure circuit breaking
type FailureAccrual struct {
	MaxFailures uint32  `json:"maxFailures"`
	Backoff     Backoff `json:"backoff"`
}

// Backoff is an exponential backoff envelope
type Backoff struct {
	MinPenalty time.Duration `json:"minPenalty"`
	MaxPenalty time.Duration `json:"maxPenalty"`
	Jitter     float64       `json:"jitter"`
}

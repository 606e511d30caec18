package index

import (
	"fmt"
	"maps"
	"net/netip"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/google/go-cmp/cmp"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/intstr"

	policyv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/policy/v1alpha1"
	"github.com/meshgate/policy-controller/pkg/policy"
)

// NamespaceIndex holds the live resources of one namespace. It is only
// accessed under the ClusterIndex writer lock.
type NamespaceIndex struct {
	name string

	pods     map[string]*Workload
	external map[string]*Workload

	servers     map[string]*server
	serverAuthz map[string]*serverAuthz
	authzPols   map[string]*authzPolicy
	rateLimits  map[string]*rateLimit

	httpRoutes map[string]*routeResource[policy.HTTPRouteMatch]
	grpcRoutes map[string]*routeResource[policy.GRPCRouteMatch]
	tlsRoutes  map[string]*routeResource[policy.TLSRouteMatch]
	tcpRoutes  map[string]*routeResource[policy.TCPRouteMatch]

	services map[string]*service
	egress   map[string]*egressNetwork

	meshAuthns map[string]*meshTLSAuthn
	netAuthns  map[string]*netAuthn

	// from the Namespace resource's annotations; empty means inherit the
	// cluster default
	defaultPolicy policy.DefaultPolicy
	opaquePorts   mapset.Set[uint16]
}

func newNamespaceIndex(name string) *NamespaceIndex {
	return &NamespaceIndex{
		name:        name,
		pods:        map[string]*Workload{},
		external:    map[string]*Workload{},
		servers:     map[string]*server{},
		serverAuthz: map[string]*serverAuthz{},
		authzPols:   map[string]*authzPolicy{},
		rateLimits:  map[string]*rateLimit{},
		httpRoutes:  map[string]*routeResource[policy.HTTPRouteMatch]{},
		grpcRoutes:  map[string]*routeResource[policy.GRPCRouteMatch]{},
		tlsRoutes:   map[string]*routeResource[policy.TLSRouteMatch]{},
		tcpRoutes:   map[string]*routeResource[policy.TCPRouteMatch]{},
		services:    map[string]*service{},
		egress:      map[string]*egressNetwork{},
		meshAuthns:  map[string]*meshTLSAuthn{},
		netAuthns:   map[string]*netAuthn{},
		opaquePorts: mapset.NewSet[uint16](),
	}
}

// empty reports whether the namespace holds nothing and can be pruned
func (ns *NamespaceIndex) empty() bool {
	return len(ns.pods) == 0 && len(ns.external) == 0 &&
		len(ns.servers) == 0 && len(ns.serverAuthz) == 0 &&
		len(ns.authzPols) == 0 && len(ns.rateLimits) == 0 &&
		len(ns.httpRoutes) == 0 && len(ns.grpcRoutes) == 0 &&
		len(ns.tlsRoutes) == 0 && len(ns.tcpRoutes) == 0 &&
		len(ns.services) == 0 && len(ns.egress) == 0 &&
		len(ns.meshAuthns) == 0 && len(ns.netAuthns) == 0 &&
		ns.defaultPolicy == "" && ns.opaquePorts.Cardinality() == 0
}

func (ns *NamespaceIndex) workload(name string) (*Workload, bool) {
	if w, ok := ns.pods[name]; ok {
		return w, true
	}
	w, ok := ns.external[name]
	return w, ok
}

// server is the parsed form of a Server resource
type server struct {
	name             string
	labels           map[string]string
	podSelector      labels.Selector
	externalSelector labels.Selector
	port             intstr.IntOrString
	protocol         policy.ProtocolKind
	accessPolicy     policy.DefaultPolicy
	createdAt        time.Time
}

func parseServer(srv *policyv1alpha1.Server) (*server, error) {
	s := &server{
		name:      srv.Name,
		labels:    srv.Labels,
		port:      srv.Spec.Port,
		createdAt: srv.CreationTimestamp.Time,
	}
	if srv.Spec.PodSelector == nil && srv.Spec.ExternalWorkloadSelector == nil {
		return nil, fmt.Errorf("server %s/%s selects nothing", srv.Namespace, srv.Name)
	}
	var err error
	if srv.Spec.PodSelector != nil {
		if s.podSelector, err = metav1.LabelSelectorAsSelector(srv.Spec.PodSelector); err != nil {
			return nil, fmt.Errorf("server %s/%s: invalid podSelector: %w", srv.Namespace, srv.Name, err)
		}
	}
	if srv.Spec.ExternalWorkloadSelector != nil {
		if s.externalSelector, err = metav1.LabelSelectorAsSelector(srv.Spec.ExternalWorkloadSelector); err != nil {
			return nil, fmt.Errorf("server %s/%s: invalid externalWorkloadSelector: %w", srv.Namespace, srv.Name, err)
		}
	}
	if srv.Spec.Port.Type == intstr.Int && srv.Spec.Port.IntValue() <= 0 {
		return nil, fmt.Errorf("server %s/%s: invalid port %d", srv.Namespace, srv.Name, srv.Spec.Port.IntValue())
	}
	switch srv.Spec.ProxyProtocol {
	case "", policyv1alpha1.ProxyProtocolUnknown:
		s.protocol = policy.ProtocolDetect
	case policyv1alpha1.ProxyProtocolHTTP1:
		s.protocol = policy.ProtocolHTTP1
	case policyv1alpha1.ProxyProtocolHTTP2:
		s.protocol = policy.ProtocolHTTP2
	case policyv1alpha1.ProxyProtocolGRPC:
		s.protocol = policy.ProtocolGRPC
	case policyv1alpha1.ProxyProtocolOpaque:
		s.protocol = policy.ProtocolOpaque
	case policyv1alpha1.ProxyProtocolTLS:
		s.protocol = policy.ProtocolTLS
	default:
		return nil, fmt.Errorf("server %s/%s: unknown proxyProtocol %q", srv.Namespace, srv.Name, srv.Spec.ProxyProtocol)
	}
	if srv.Spec.AccessPolicy != "" {
		if s.accessPolicy, err = policy.ParseDefaultPolicy(srv.Spec.AccessPolicy); err != nil {
			return nil, fmt.Errorf("server %s/%s: %w", srv.Namespace, srv.Name, err)
		}
	}
	return s, nil
}

func selectorString(s labels.Selector) string {
	if s == nil {
		return "<nil>"
	}
	return s.String()
}

func (s *server) equal(other *server) bool {
	return s.name == other.name &&
		maps.Equal(s.labels, other.labels) &&
		selectorString(s.podSelector) == selectorString(other.podSelector) &&
		selectorString(s.externalSelector) == selectorString(other.externalSelector) &&
		s.port == other.port &&
		s.protocol == other.protocol &&
		s.accessPolicy == other.accessPolicy &&
		s.createdAt.Equal(other.createdAt)
}

// selects reports whether the server selects the workload on the given
// port, resolving named server ports against the workload
func (s *server) selects(w *Workload, port uint16) bool {
	switch w.Kind {
	case WorkloadPod:
		if s.podSelector == nil || !s.podSelector.Matches(labels.Set(w.Labels)) {
			return false
		}
	case WorkloadExternal:
		if s.externalSelector == nil || !s.externalSelector.Matches(labels.Set(w.Labels)) {
			return false
		}
	}
	if s.port.Type == intstr.Int {
		return uint16(s.port.IntValue()) == port
	}
	resolved, ok := w.NamedPorts[s.port.StrVal]
	return ok && resolved == port
}

// serverAuthz is the parsed form of a ServerAuthorization resource
type serverAuthz struct {
	name           string
	serverName     string
	serverSelector labels.Selector
	authz          policy.ClientAuthorization
	src            policyv1alpha1.ServerAuthorizationSpec
}

func parseServerAuthorization(saz *policyv1alpha1.ServerAuthorization, cluster policy.ClusterInfo) (*serverAuthz, error) {
	out := &serverAuthz{name: saz.Name, src: saz.Spec}
	switch {
	case saz.Spec.Server.Name != "" && saz.Spec.Server.Selector != nil:
		return nil, fmt.Errorf("serverauthorization %s/%s: server.name and server.selector are mutually exclusive", saz.Namespace, saz.Name)
	case saz.Spec.Server.Name != "":
		out.serverName = saz.Spec.Server.Name
	case saz.Spec.Server.Selector != nil:
		sel, err := metav1.LabelSelectorAsSelector(saz.Spec.Server.Selector)
		if err != nil {
			return nil, fmt.Errorf("serverauthorization %s/%s: invalid selector: %w", saz.Namespace, saz.Name, err)
		}
		out.serverSelector = sel
	default:
		return nil, fmt.Errorf("serverauthorization %s/%s: no server reference", saz.Namespace, saz.Name)
	}

	authz, err := parseClientAuthz(saz.Spec.Client, saz.Namespace, cluster)
	if err != nil {
		return nil, fmt.Errorf("serverauthorization %s/%s: %w", saz.Namespace, saz.Name, err)
	}
	out.authz = authz
	return out, nil
}

func parseClientAuthz(client policyv1alpha1.ClientAuthz, namespace string, cluster policy.ClusterInfo) (policy.ClientAuthorization, error) {
	var out policy.ClientAuthorization
	var err error
	if len(client.Networks) > 0 {
		if out.Networks, err = policy.ParseNetworks(client.Networks); err != nil {
			return out, err
		}
	} else {
		out.Networks = policy.AllNetworks()
	}

	switch {
	case client.Unauthenticated && client.MeshTLS != nil:
		return out, fmt.Errorf("client is both unauthenticated and meshTLS")
	case client.Unauthenticated:
		out.Authentication = policy.ClientAuthentication{Kind: policy.AuthnUnauthenticated}
	case client.MeshTLS == nil:
		return out, fmt.Errorf("client authentication is empty")
	case client.MeshTLS.UnauthenticatedTLS:
		out.Authentication = policy.ClientAuthentication{Kind: policy.AuthnTLSUnauthenticated}
	default:
		authn := policy.ClientAuthentication{Kind: policy.AuthnTLSAuthenticated}
		for _, id := range client.MeshTLS.Identities {
			m, err := policy.ParseIdentityMatch(id)
			if err != nil {
				return out, err
			}
			authn.Identities = append(authn.Identities, m)
		}
		for _, sa := range client.MeshTLS.ServiceAccounts {
			ns := sa.Namespace
			if ns == "" {
				ns = namespace
			}
			authn.Identities = append(authn.Identities, policy.IdentityMatch{
				Exact: cluster.ServiceAccountIdentity(ns, sa.Name),
			})
		}
		if len(authn.Identities) == 0 {
			return out, fmt.Errorf("meshTLS authentication names no identities")
		}
		out.Authentication = authn
	}
	return out, nil
}

// authzPolicy is the parsed form of an AuthorizationPolicy resource
type authzPolicy struct {
	name   string
	target targetRef
	authns []authnRef
	src    policyv1alpha1.AuthorizationPolicySpec
}

type targetRef struct {
	kind string
	name string
}

const (
	targetServer    = "Server"
	targetNamespace = "Namespace"
	targetHTTPRoute = "HTTPRoute"
	targetGRPCRoute = "GRPCRoute"
)

type authnRef struct {
	kind      string
	namespace string
	name      string
}

func parseAuthorizationPolicy(ap *policyv1alpha1.AuthorizationPolicy) (*authzPolicy, error) {
	out := &authzPolicy{name: ap.Name, src: ap.Spec}
	switch string(ap.Spec.TargetRef.Kind) {
	case targetServer, targetNamespace, targetHTTPRoute, targetGRPCRoute:
		out.target = targetRef{kind: string(ap.Spec.TargetRef.Kind), name: string(ap.Spec.TargetRef.Name)}
	default:
		return nil, fmt.Errorf("authorizationpolicy %s/%s: unsupported targetRef kind %q", ap.Namespace, ap.Name, ap.Spec.TargetRef.Kind)
	}
	for _, ref := range ap.Spec.RequiredAuthenticationRefs {
		kind := string(ref.Kind)
		if kind != policyv1alpha1.MeshTLSAuthenticationKind && kind != policyv1alpha1.NetworkAuthenticationKind {
			return nil, fmt.Errorf("authorizationpolicy %s/%s: unsupported authentication kind %q", ap.Namespace, ap.Name, ref.Kind)
		}
		ns := ap.Namespace
		if ref.Namespace != nil && *ref.Namespace != "" {
			ns = string(*ref.Namespace)
		}
		out.authns = append(out.authns, authnRef{kind: kind, namespace: ns, name: string(ref.Name)})
	}
	return out, nil
}

// rateLimit is the parsed form of an HTTPLocalRateLimitPolicy resource
type rateLimit struct {
	name       string
	serverName string
	spec       policy.RateLimit
	createdAt  time.Time
	src        policyv1alpha1.HTTPLocalRateLimitPolicySpec
}

func parseRateLimit(rl *policyv1alpha1.HTTPLocalRateLimitPolicy, cluster policy.ClusterInfo) (*rateLimit, error) {
	if string(rl.Spec.TargetRef.Kind) != targetServer {
		return nil, fmt.Errorf("httplocalratelimitpolicy %s/%s: unsupported targetRef kind %q", rl.Namespace, rl.Name, rl.Spec.TargetRef.Kind)
	}
	out := &rateLimit{
		name:       rl.Name,
		serverName: string(rl.Spec.TargetRef.Name),
		createdAt:  rl.CreationTimestamp.Time,
		spec:       policy.RateLimit{Name: rl.Name},
		src:        rl.Spec,
	}
	if rl.Spec.Total != nil {
		if rl.Spec.Total.RequestsPerSecond == 0 {
			return nil, fmt.Errorf("httplocalratelimitpolicy %s/%s: total limit is zero", rl.Namespace, rl.Name)
		}
		out.spec.Total = &policy.Limit{RequestsPerSecond: rl.Spec.Total.RequestsPerSecond}
	}
	if rl.Spec.Identity != nil {
		if rl.Spec.Identity.RequestsPerSecond == 0 {
			return nil, fmt.Errorf("httplocalratelimitpolicy %s/%s: identity limit is zero", rl.Namespace, rl.Name)
		}
		out.spec.Identity = &policy.Limit{RequestsPerSecond: rl.Spec.Identity.RequestsPerSecond}
	}
	for _, ov := range rl.Spec.Overrides {
		converted := policy.RateLimitOverride{Limit: policy.Limit{RequestsPerSecond: ov.RequestsPerSecond}}
		for _, ref := range ov.ClientRefs {
			if string(ref.Kind) != "ServiceAccount" {
				return nil, fmt.Errorf("httplocalratelimitpolicy %s/%s: unsupported clientRef kind %q", rl.Namespace, rl.Name, ref.Kind)
			}
			ns := rl.Namespace
			if ref.Namespace != nil && *ref.Namespace != "" {
				ns = string(*ref.Namespace)
			}
			converted.Clients = append(converted.Clients, policy.IdentityMatch{
				Exact: cluster.ServiceAccountIdentity(ns, string(ref.Name)),
			})
		}
		out.spec.Overrides = append(out.spec.Overrides, converted)
	}
	return out, nil
}

// routeResource is a converted route plus its parent references
type routeResource[M any] struct {
	outbound policy.OutboundRoute[M]
	parents  []parentRef
	src      routeSource
}

// routeSource is the raw material a route was converted from, kept for
// change detection and status reporting
type routeSource struct {
	spec        any
	annotations map[string]string
	generation  int64
}

func (r routeSource) equal(other routeSource) bool {
	return cmp.Equal(r.spec, other.spec) &&
		maps.Equal(r.annotations, other.annotations) &&
		r.generation == other.generation
}

// parentRef is a normalized Gateway API parent reference
type parentRef struct {
	group     string
	kind      string
	namespace string
	name      string
	port      uint16
}

// service is the index's view of a Service
type service struct {
	name       string
	clusterIPs []netip.Addr
	// named port -> number mapping from the service spec
	namedPorts  map[string]uint16
	opaquePorts mapset.Set[uint16]
	accrual     *policy.FailureAccrual
	createdAt   time.Time
}

func (s *service) equal(other *service) bool {
	return s.name == other.name &&
		slices.Equal(s.clusterIPs, other.clusterIPs) &&
		maps.Equal(s.namedPorts, other.namedPorts) &&
		s.opaquePorts.Equal(other.opaquePorts) &&
		cmp.Equal(s.accrual, other.accrual) &&
		s.createdAt.Equal(other.createdAt)
}

// Failure-accrual annotations mirror the outbound balancer configuration
const (
	accrualAnnotation            = "balancer.meshgate.io/failure-accrual"
	accrualMaxFailuresAnnotation = "balancer.meshgate.io/failure-accrual-consecutive-max-failures"
	accrualMinPenaltyAnnotation  = "balancer.meshgate.io/failure-accrual-consecutive-min-penalty"
	accrualMaxPenaltyAnnotation  = "balancer.meshgate.io/failure-accrual-consecutive-max-penalty"
)

func parseService(svc *corev1.Service) (*service, error) {
	out := &service{
		name:       svc.Name,
		namedPorts: map[string]uint16{},
		createdAt:  svc.CreationTimestamp.Time,
	}
	for _, ip := range svc.Spec.ClusterIPs {
		if ip == "" || ip == corev1.ClusterIPNone {
			continue
		}
		addr, err := netip.ParseAddr(ip)
		if err != nil {
			return nil, fmt.Errorf("service %s/%s has invalid clusterIP %q: %w", svc.Namespace, svc.Name, ip, err)
		}
		out.clusterIPs = append(out.clusterIPs, addr)
	}
	if len(out.clusterIPs) == 0 && svc.Spec.ClusterIP != "" && svc.Spec.ClusterIP != corev1.ClusterIPNone {
		addr, err := netip.ParseAddr(svc.Spec.ClusterIP)
		if err != nil {
			return nil, fmt.Errorf("service %s/%s has invalid clusterIP %q: %w", svc.Namespace, svc.Name, svc.Spec.ClusterIP, err)
		}
		out.clusterIPs = append(out.clusterIPs, addr)
	}
	for _, p := range svc.Spec.Ports {
		if p.Name != "" && p.Port > 0 {
			out.namedPorts[p.Name] = uint16(p.Port)
		}
	}
	var err error
	if out.opaquePorts, err = annotatedPortSet(svc.Annotations, policy.OpaquePortsAnnotation); err != nil {
		return nil, fmt.Errorf("service %s/%s: %w", svc.Namespace, svc.Name, err)
	}
	if out.accrual, err = parseFailureAccrual(svc.Annotations); err != nil {
		return nil, fmt.Errorf("service %s/%s: %w", svc.Namespace, svc.Name, err)
	}
	return out, nil
}

func parseFailureAccrual(annotations map[string]string) (*policy.FailureAccrual, error) {
	mode, ok := annotations[accrualAnnotation]
	if !ok {
		return nil, nil
	}
	if mode != "consecutive" {
		return nil, fmt.Errorf("unsupported %s mode %q", accrualAnnotation, mode)
	}
	fa := &policy.FailureAccrual{
		MaxFailures: 7,
		Backoff: policy.Backoff{
			MinPenalty: time.Second,
			MaxPenalty: time.Minute,
			Jitter:     0.5,
		},
	}
	if v, ok := annotations[accrualMaxFailuresAnnotation]; ok {
		var n uint32
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n == 0 {
			return nil, fmt.Errorf("invalid %s %q", accrualMaxFailuresAnnotation, v)
		}
		fa.MaxFailures = n
	}
	if v, ok := annotations[accrualMinPenaltyAnnotation]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", accrualMinPenaltyAnnotation, v, err)
		}
		fa.Backoff.MinPenalty = d
	}
	if v, ok := annotations[accrualMaxPenaltyAnnotation]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", accrualMaxPenaltyAnnotation, v, err)
		}
		fa.Backoff.MaxPenalty = d
	}
	return fa, nil
}

// egressNetwork is the parsed form of an EgressNetwork resource
type egressNetwork struct {
	name          string
	trafficPolicy policyv1alpha1.TrafficPolicy
	networks      []policy.NetworkMatch
	createdAt     time.Time
	src           policyv1alpha1.EgressNetworkSpec
}

func parseEgressNetwork(en *policyv1alpha1.EgressNetwork) (*egressNetwork, error) {
	out := &egressNetwork{
		name:          en.Name,
		trafficPolicy: en.Spec.TrafficPolicy,
		createdAt:     en.CreationTimestamp.Time,
		src:           en.Spec,
	}
	switch en.Spec.TrafficPolicy {
	case policyv1alpha1.TrafficPolicyAllow, policyv1alpha1.TrafficPolicyDeny:
	default:
		return nil, fmt.Errorf("egressnetwork %s/%s: invalid trafficPolicy %q", en.Namespace, en.Name, en.Spec.TrafficPolicy)
	}
	if len(en.Spec.Networks) > 0 {
		nets, err := policy.ParseNetworks(en.Spec.Networks)
		if err != nil {
			return nil, fmt.Errorf("egressnetwork %s/%s: %w", en.Namespace, en.Name, err)
		}
		out.networks = nets
	} else {
		out.networks = policy.AllNetworks()
	}
	return out, nil
}

// meshTLSAuthn is the parsed form of a MeshTLSAuthentication resource
type meshTLSAuthn struct {
	identities []policy.IdentityMatch
	src        policyv1alpha1.MeshTLSAuthenticationSpec
}

func parseMeshTLSAuthn(ma *policyv1alpha1.MeshTLSAuthentication, cluster policy.ClusterInfo) (*meshTLSAuthn, error) {
	out := &meshTLSAuthn{src: ma.Spec}
	for _, id := range ma.Spec.Identities {
		m, err := policy.ParseIdentityMatch(id)
		if err != nil {
			return nil, fmt.Errorf("meshtlsauthentication %s/%s: %w", ma.Namespace, ma.Name, err)
		}
		out.identities = append(out.identities, m)
	}
	for _, ref := range ma.Spec.IdentityRefs {
		if string(ref.Kind) != "ServiceAccount" {
			return nil, fmt.Errorf("meshtlsauthentication %s/%s: unsupported identityRef kind %q", ma.Namespace, ma.Name, ref.Kind)
		}
		ns := ma.Namespace
		if ref.Namespace != nil && *ref.Namespace != "" {
			ns = string(*ref.Namespace)
		}
		out.identities = append(out.identities, policy.IdentityMatch{
			Exact: cluster.ServiceAccountIdentity(ns, string(ref.Name)),
		})
	}
	if len(out.identities) == 0 {
		return nil, fmt.Errorf("meshtlsauthentication %s/%s names no identities", ma.Namespace, ma.Name)
	}
	return out, nil
}

// netAuthn is the parsed form of a NetworkAuthentication resource
type netAuthn struct {
	networks []policy.NetworkMatch
	src      policyv1alpha1.NetworkAuthenticationSpec
}

func parseNetAuthn(na *policyv1alpha1.NetworkAuthentication) (*netAuthn, error) {
	if len(na.Spec.Networks) == 0 {
		return nil, fmt.Errorf("networkauthentication %s/%s names no networks", na.Namespace, na.Name)
	}
	nets, err := policy.ParseNetworks(na.Spec.Networks)
	if err != nil {
		return nil, fmt.Errorf("networkauthentication %s/%s: %w", na.Namespace, na.Name, err)
	}
	return &netAuthn{networks: nets, src: na.Spec}, nil
}

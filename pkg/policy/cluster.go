package policy

import (
	"fmt"
	"net/netip"
	"time"
)

// Annotation keys honored on namespaces, pods and services
const (
	DefaultPolicyAnnotation  = "config.meshgate.io/default-inbound-policy"
	OpaquePortsAnnotation    = "config.meshgate.io/opaque-ports"
	RequireIDPortsAnnotation = "config.meshgate.io/proxy-require-identity-inbound-ports"
)

// DefaultPolicy is the access policy applied to a port no Server selects
type DefaultPolicy string

const (
	AllUnauthenticated     DefaultPolicy = "all-unauthenticated"
	AllAuthenticated       DefaultPolicy = "all-authenticated"
	ClusterUnauthenticated DefaultPolicy = "cluster-unauthenticated"
	ClusterAuthenticated   DefaultPolicy = "cluster-authenticated"
	Deny                   DefaultPolicy = "deny"
	Audit                  DefaultPolicy = "audit"
)

// ParseDefaultPolicy validates a default-policy name from a flag or
// annotation
func ParseDefaultPolicy(s string) (DefaultPolicy, error) {
	switch p := DefaultPolicy(s); p {
	case AllUnauthenticated, AllAuthenticated, ClusterUnauthenticated, ClusterAuthenticated, Deny, Audit:
		return p, nil
	default:
		return "", fmt.Errorf("unknown default policy %q", s)
	}
}

// ClusterInfo carries the cluster-wide configuration policy derivation
// depends on
type ClusterInfo struct {
	// pod/cluster networks, used by the cluster-* default policies
	Networks []NetworkMatch
	// suffix for ServiceAccount-derived identities
	IdentityDomain string
	// cluster DNS zone, e.g. "cluster.local"
	ClusterDomain string
	// networks kubelets probe from; traffic from them is implicitly
	// authorized so health checks never need an authorization resource
	ProbeNetworks []NetworkMatch
	DefaultPolicy DefaultPolicy
	// protocol detection window applied when a Server declares no protocol
	DetectTimeout time.Duration
}

var allNetworks = []NetworkMatch{
	{Net: netip.MustParsePrefix("0.0.0.0/0")},
	{Net: netip.MustParsePrefix("::/0")},
}

// AllNetworks matches every IPv4 and IPv6 source address
func AllNetworks() []NetworkMatch {
	return append([]NetworkMatch(nil), allNetworks...)
}

// DefaultAuthorizations synthesizes the authorization set implied by a
// default policy when no authorization resource applies. Deny yields an
// empty set.
func (c ClusterInfo) DefaultAuthorizations(p DefaultPolicy) map[AuthzRef]ClientAuthorization {
	authzs := map[AuthzRef]ClientAuthorization{}
	ref := AuthzRef{Kind: AuthzKindDefault, Name: string(p)}
	switch p {
	case AllUnauthenticated, Audit:
		authzs[ref] = ClientAuthorization{
			Networks:       allNetworks,
			Authentication: ClientAuthentication{Kind: AuthnUnauthenticated},
		}
	case AllAuthenticated:
		authzs[ref] = ClientAuthorization{
			Networks: allNetworks,
			Authentication: ClientAuthentication{
				Kind:       AuthnTLSAuthenticated,
				Identities: []IdentityMatch{{Any: true}},
			},
		}
	case ClusterUnauthenticated:
		authzs[ref] = ClientAuthorization{
			Networks:       c.Networks,
			Authentication: ClientAuthentication{Kind: AuthnUnauthenticated},
		}
	case ClusterAuthenticated:
		authzs[ref] = ClientAuthorization{
			Networks: c.Networks,
			Authentication: ClientAuthentication{
				Kind:       AuthnTLSAuthenticated,
				Identities: []IdentityMatch{{Any: true}},
			},
		}
	case Deny:
	}
	return authzs
}

// ProbeAuthorization is the implicit allowance for kubelet health checks:
// unauthenticated traffic from the probe networks and the node's own
// kubelet addresses
func (c ClusterInfo) ProbeAuthorization(kubeletIPs []netip.Addr) (AuthzRef, ClientAuthorization) {
	nets := append([]NetworkMatch(nil), c.ProbeNetworks...)
	for _, ip := range kubeletIPs {
		nets = append(nets, NetworkMatch{Net: netip.PrefixFrom(ip, ip.BitLen())})
	}
	return AuthzRef{Kind: AuthzKindDefault, Name: "probe"}, ClientAuthorization{
		Networks:       nets,
		Authentication: ClientAuthentication{Kind: AuthnUnauthenticated},
	}
}

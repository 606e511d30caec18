package policy

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/samber/lo"

	policyv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/policy/v1alpha1"
)

// ParseNetwork converts a Network resource field into a NetworkMatch,
// validating that every exception falls inside the block
func ParseNetwork(n policyv1alpha1.Network) (NetworkMatch, error) {
	prefix, err := netip.ParsePrefix(n.Cidr)
	if err != nil {
		// accept bare addresses as single-address blocks
		addr, aerr := netip.ParseAddr(n.Cidr)
		if aerr != nil {
			return NetworkMatch{}, fmt.Errorf("invalid cidr %q: %w", n.Cidr, err)
		}
		prefix = netip.PrefixFrom(addr, addr.BitLen())
	}
	nm := NetworkMatch{Net: prefix.Masked()}
	for _, e := range n.Except {
		ep, err := netip.ParsePrefix(e)
		if err != nil {
			addr, aerr := netip.ParseAddr(e)
			if aerr != nil {
				return NetworkMatch{}, fmt.Errorf("invalid except %q: %w", e, err)
			}
			ep = netip.PrefixFrom(addr, addr.BitLen())
		}
		if !nm.Net.Overlaps(ep) {
			return NetworkMatch{}, fmt.Errorf("except %q is outside cidr %q", e, n.Cidr)
		}
		nm.Except = append(nm.Except, ep.Masked())
	}
	return nm, nil
}

// ParseNetworks converts a list of Network fields, failing on the first
// malformed entry
func ParseNetworks(nets []policyv1alpha1.Network) ([]NetworkMatch, error) {
	out := make([]NetworkMatch, 0, len(nets))
	for _, n := range nets {
		nm, err := ParseNetwork(n)
		if err != nil {
			return nil, err
		}
		out = append(out, nm)
	}
	return out, nil
}

// ParseCIDRs converts a list of plain CIDR strings, as passed on the
// command line, failing on the first malformed entry
func ParseCIDRs(cidrs []string) ([]NetworkMatch, error) {
	nets := lo.Map(cidrs, func(c string, _ int) policyv1alpha1.Network {
		return policyv1alpha1.Network{Cidr: strings.TrimSpace(c)}
	})
	return ParseNetworks(nets)
}

// CIDRCandidate is a resource-backed CIDR block competing to claim an
// address
type CIDRCandidate struct {
	Prefix    netip.Prefix
	Namespace string
	Name      string
	CreatedAt time.Time
}

// MostSpecific selects, among candidates containing addr, the winner under
// the precedence rules: smallest address block first; among equal blocks a
// candidate in preferNamespace beats one in another namespace; remaining
// ties go to the oldest creation timestamp and then the lexicographically
// smallest (namespace, name).
func MostSpecific(candidates []CIDRCandidate, addr netip.Addr, preferNamespace string) (CIDRCandidate, bool) {
	containing := lo.Filter(candidates, func(c CIDRCandidate, _ int) bool {
		return c.Prefix.Contains(addr)
	})
	if len(containing) == 0 {
		return CIDRCandidate{}, false
	}
	best := containing[0]
	for _, c := range containing[1:] {
		if cidrLess(c, best, preferNamespace) {
			best = c
		}
	}
	return best, true
}

func cidrLess(a, b CIDRCandidate, preferNamespace string) bool {
	if a.Prefix.Bits() != b.Prefix.Bits() {
		return a.Prefix.Bits() > b.Prefix.Bits()
	}
	if preferNamespace != "" {
		aLocal, bLocal := a.Namespace == preferNamespace, b.Namespace == preferNamespace
		if aLocal != bLocal {
			return aLocal
		}
	}
	switch {
	case a.CreatedAt.IsZero() && !b.CreatedAt.IsZero():
		return false
	case !a.CreatedAt.IsZero() && b.CreatedAt.IsZero():
		return true
	case !a.CreatedAt.Equal(b.CreatedAt):
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	return a.Name < b.Name
}

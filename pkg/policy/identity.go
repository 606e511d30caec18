package policy

import (
	"fmt"
	"strings"
)

// ParseIdentityMatch parses an identity string from an authorization
// resource. "*" matches any identity; a leading "*." makes a DNS-label
// suffix matcher; anything else is an exact matcher. SPIFFE URIs
// ("spiffe://trust-domain/path") are kept as exact matchers.
func ParseIdentityMatch(s string) (IdentityMatch, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return IdentityMatch{}, fmt.Errorf("empty identity")
	}
	if s == "*" {
		return IdentityMatch{Any: true}, nil
	}
	if suffix, ok := strings.CutPrefix(s, "*."); ok {
		labels := strings.Split(suffix, ".")
		for _, l := range labels {
			if l == "" || strings.Contains(l, "*") {
				return IdentityMatch{}, fmt.Errorf("invalid identity suffix %q", s)
			}
		}
		return IdentityMatch{Suffix: labels}, nil
	}
	if strings.Contains(s, "*") {
		return IdentityMatch{}, fmt.Errorf("wildcard only allowed as leading \"*.\" in %q", s)
	}
	return IdentityMatch{Exact: s}, nil
}

// Matches reports whether id satisfies the matcher
func (m IdentityMatch) Matches(id string) bool {
	if m.Any {
		return true
	}
	if m.Exact != "" {
		return m.Exact == id
	}
	if len(m.Suffix) == 0 {
		return false
	}
	labels := strings.Split(id, ".")
	if len(labels) <= len(m.Suffix) {
		return false
	}
	tail := labels[len(labels)-len(m.Suffix):]
	for i := range tail {
		if tail[i] != m.Suffix[i] {
			return false
		}
	}
	return true
}

// ServiceAccountIdentity derives the mesh identity of a ServiceAccount
// from the cluster's identity trust domain
func (c ClusterInfo) ServiceAccountIdentity(namespace, name string) string {
	return fmt.Sprintf("%s.%s.serviceaccount.identity.%s", name, namespace, c.IdentityDomain)
}

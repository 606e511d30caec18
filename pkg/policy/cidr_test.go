package policy

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	policyv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/policy/v1alpha1"
)

func TestParseNetwork(t *testing.T) {
	nm, err := ParseNetwork(policyv1alpha1.Network{Cidr: "10.0.0.0/8"})
	require.NoError(t, err)
	assert.Equal(t, netip.MustParsePrefix("10.0.0.0/8"), nm.Net)
	assert.Empty(t, nm.Except)
}

func TestParseNetworkBareAddress(t *testing.T) {
	nm, err := ParseNetwork(policyv1alpha1.Network{Cidr: "192.168.1.7"})
	require.NoError(t, err)
	assert.Equal(t, netip.MustParsePrefix("192.168.1.7/32"), nm.Net)
}

func TestParseNetworkExcept(t *testing.T) {
	nm, err := ParseNetwork(policyv1alpha1.Network{
		Cidr:   "10.0.0.0/8",
		Except: []string{"10.1.0.0/16", "10.2.3.4"},
	})
	require.NoError(t, err)
	require.Len(t, nm.Except, 2)
	assert.Equal(t, netip.MustParsePrefix("10.1.0.0/16"), nm.Except[0])
	assert.Equal(t, netip.MustParsePrefix("10.2.3.4/32"), nm.Except[1])
}

func TestParseNetworkExceptOutsideBlock(t *testing.T) {
	_, err := ParseNetwork(policyv1alpha1.Network{
		Cidr:   "10.0.0.0/8",
		Except: []string{"192.168.0.0/16"},
	})
	assert.Error(t, err)
}

func TestParseNetworksFailsOnFirstBadEntry(t *testing.T) {
	_, err := ParseNetworks([]policyv1alpha1.Network{
		{Cidr: "10.0.0.0/8"},
		{Cidr: "not-a-cidr"},
	})
	assert.Error(t, err)
}

func TestParseCIDRs(t *testing.T) {
	nets, err := ParseCIDRs([]string{"10.0.0.0/8", " 192.168.0.0/16"})
	require.NoError(t, err)
	require.Len(t, nets, 2)
	assert.Equal(t, netip.MustParsePrefix("10.0.0.0/8"), nets[0].Net)
	assert.Equal(t, netip.MustParsePrefix("192.168.0.0/16"), nets[1].Net)

	_, err = ParseCIDRs([]string{"10.0.0.0/8", "not-a-cidr"})
	assert.Error(t, err)
}

func candidate(prefix, ns, name string, age time.Duration) CIDRCandidate {
	c := CIDRCandidate{
		Prefix:    netip.MustParsePrefix(prefix),
		Namespace: ns,
		Name:      name,
	}
	if age > 0 {
		c.CreatedAt = time.Now().Add(-age)
	}
	return c
}

func TestMostSpecificPrefersSmallerBlock(t *testing.T) {
	winner, ok := MostSpecific([]CIDRCandidate{
		candidate("10.0.0.0/8", "a", "wide", time.Hour),
		candidate("10.1.0.0/16", "b", "narrow", time.Minute),
	}, netip.MustParseAddr("10.1.2.3"), "")
	require.True(t, ok)
	assert.Equal(t, "narrow", winner.Name)
}

func TestMostSpecificPrefersSourceNamespaceOnEqualBlocks(t *testing.T) {
	winner, ok := MostSpecific([]CIDRCandidate{
		candidate("10.0.0.0/8", "other", "remote", time.Hour),
		candidate("10.0.0.0/8", "local", "mine", time.Minute),
	}, netip.MustParseAddr("10.1.2.3"), "local")
	require.True(t, ok)
	assert.Equal(t, "mine", winner.Name)
}

func TestMostSpecificPrefersOldest(t *testing.T) {
	winner, ok := MostSpecific([]CIDRCandidate{
		candidate("10.0.0.0/8", "ns", "young", time.Minute),
		candidate("10.0.0.0/8", "ns", "old", time.Hour),
	}, netip.MustParseAddr("10.1.2.3"), "")
	require.True(t, ok)
	assert.Equal(t, "old", winner.Name)
}

func TestMostSpecificZeroTimestampSortsLast(t *testing.T) {
	winner, ok := MostSpecific([]CIDRCandidate{
		candidate("10.0.0.0/8", "ns", "unstamped", 0),
		candidate("10.0.0.0/8", "ns", "stamped", time.Minute),
	}, netip.MustParseAddr("10.1.2.3"), "")
	require.True(t, ok)
	assert.Equal(t, "stamped", winner.Name)
}

func TestMostSpecificLexicalTieBreak(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	winner, ok := MostSpecific([]CIDRCandidate{
		{Prefix: netip.MustParsePrefix("10.0.0.0/8"), Namespace: "b", Name: "x", CreatedAt: at},
		{Prefix: netip.MustParsePrefix("10.0.0.0/8"), Namespace: "a", Name: "y", CreatedAt: at},
	}, netip.MustParseAddr("10.1.2.3"), "")
	require.True(t, ok)
	assert.Equal(t, "a", winner.Namespace)
}

func TestMostSpecificNoneContaining(t *testing.T) {
	_, ok := MostSpecific([]CIDRCandidate{
		candidate("10.0.0.0/8", "ns", "a", time.Minute),
	}, netip.MustParseAddr("192.168.1.1"), "")
	assert.False(t, ok)
}

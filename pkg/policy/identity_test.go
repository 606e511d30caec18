package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentityMatchAny(t *testing.T) {
	m, err := ParseIdentityMatch("*")
	require.NoError(t, err)
	assert.True(t, m.Any)
	assert.True(t, m.Matches("anything.at.all"))
}

func TestParseIdentityMatchExact(t *testing.T) {
	m, err := ParseIdentityMatch("web.apps.serviceaccount.identity.cluster.local")
	require.NoError(t, err)
	assert.Equal(t, "web.apps.serviceaccount.identity.cluster.local", m.Exact)
	assert.True(t, m.Matches("web.apps.serviceaccount.identity.cluster.local"))
	assert.False(t, m.Matches("other.apps.serviceaccount.identity.cluster.local"))
}

func TestParseIdentityMatchSpiffeKeptExact(t *testing.T) {
	m, err := ParseIdentityMatch("spiffe://cluster.local/ns/apps/sa/web")
	require.NoError(t, err)
	assert.Equal(t, "spiffe://cluster.local/ns/apps/sa/web", m.Exact)
}

func TestParseIdentityMatchSuffix(t *testing.T) {
	m, err := ParseIdentityMatch("*.apps.serviceaccount.identity.cluster.local")
	require.NoError(t, err)
	assert.True(t, m.Matches("web.apps.serviceaccount.identity.cluster.local"))
	assert.False(t, m.Matches("web.other.serviceaccount.identity.cluster.local"))
	// the wildcard must consume at least one label
	assert.False(t, m.Matches("apps.serviceaccount.identity.cluster.local"))
}

func TestZeroIdentityMatchMatchesNothing(t *testing.T) {
	var m IdentityMatch
	assert.False(t, m.Matches("web.apps.serviceaccount.identity.cluster.local"))
	assert.False(t, m.Matches(""))
}

func TestParseIdentityMatchRejectsMidWildcard(t *testing.T) {
	for _, s := range []string{
		"web.*.cluster.local",
		"*.ap*s.cluster.local",
		"*..cluster.local",
		"",
		"  ",
	} {
		_, err := ParseIdentityMatch(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestServiceAccountIdentity(t *testing.T) {
	c := ClusterInfo{IdentityDomain: "cluster.local"}
	assert.Equal(t,
		"web.apps.serviceaccount.identity.cluster.local",
		c.ServiceAccountIdentity("apps", "web"))
}

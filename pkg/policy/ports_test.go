package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortSet(t *testing.T) {
	ports, err := ParsePortSet("25,587,3306")
	require.NoError(t, err)
	assert.Equal(t, 3, ports.Cardinality())
	assert.True(t, ports.Contains(25))
	assert.True(t, ports.Contains(587))
	assert.True(t, ports.Contains(3306))
}

func TestParsePortSetRanges(t *testing.T) {
	ports, err := ParsePortSet("80, 8000-8002")
	require.NoError(t, err)
	assert.Equal(t, 4, ports.Cardinality())
	assert.True(t, ports.Contains(80))
	assert.True(t, ports.Contains(8000))
	assert.True(t, ports.Contains(8001))
	assert.True(t, ports.Contains(8002))
	assert.False(t, ports.Contains(8003))
}

func TestParsePortSetEmpty(t *testing.T) {
	ports, err := ParsePortSet("")
	require.NoError(t, err)
	assert.Equal(t, 0, ports.Cardinality())

	ports, err = ParsePortSet("  ")
	require.NoError(t, err)
	assert.Equal(t, 0, ports.Cardinality())
}

func TestParsePortSetSingleElementRange(t *testing.T) {
	ports, err := ParsePortSet("443-443")
	require.NoError(t, err)
	assert.Equal(t, 1, ports.Cardinality())
	assert.True(t, ports.Contains(443))
}

func TestParsePortSetUpperBound(t *testing.T) {
	ports, err := ParsePortSet("65535")
	require.NoError(t, err)
	assert.True(t, ports.Contains(65535))
}

func TestParsePortSetRejectsInvalid(t *testing.T) {
	for _, s := range []string{
		"0",
		"80,0",
		"8080-80",
		"65536",
		"http",
		"80-",
		"-80",
	} {
		_, err := ParsePortSet(s)
		assert.Error(t, err, "input %q", s)
	}
}

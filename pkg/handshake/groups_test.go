package handshake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupGroup_Known(t *testing.T) {
	g, err := LookupGroup("X25519")
	require.NoError(t, err)
	assert.Equal(t, Classical, g.Class)
	assert.True(t, g.Embedded())

	g, err = LookupGroup("X25519MLKEM768")
	require.NoError(t, err)
	assert.Equal(t, Hybrid, g.Class)
	assert.True(t, g.Embedded())
}

func TestLookupGroup_ExecOnly(t *testing.T) {
	g, err := LookupGroup("SecP256r1MLKEM768")
	require.NoError(t, err)
	assert.Equal(t, Hybrid, g.Class)
	assert.False(t, g.Embedded())
}

func TestLookupGroup_Unknown(t *testing.T) {
	_, err := LookupGroup("FrodoKEM")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key-exchange group")
}

func TestKnownGroups_Sorted(t *testing.T) {
	names := KnownGroups()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
	assert.Contains(t, names, "X25519")
	assert.Contains(t, names, "X25519MLKEM768")
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "classical", Classical.String())
	assert.Equal(t, "hybrid", Hybrid.String())
}

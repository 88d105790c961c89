package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllIncludesEverything(t *testing.T) {
	f, err := Parse(" ALL ")
	require.NoError(t, err)
	assert.True(t, f.IsAll())
	for _, id := range []string{"0001", "S0002", "ZZZ9999", "anything"} {
		assert.True(t, f.Includes(id), id)
	}
	assert.True(t, NewAll().Includes("0042"))
}

func TestNumericRange(t *testing.T) {
	f, err := Parse("1-3")
	require.NoError(t, err)
	assert.True(t, f.Includes("0001"))
	assert.True(t, f.Includes("0002"))
	assert.True(t, f.Includes("0003"))
	assert.False(t, f.Includes("0004"))
	assert.False(t, f.Includes("S0001"))
}

func TestPrefixedRange(t *testing.T) {
	for _, expr := range []string{"S1-2", "s1-S2", "S1 - 2"} {
		t.Run(expr, func(t *testing.T) {
			f, err := Parse(expr)
			require.NoError(t, err)
			assert.True(t, f.Includes("S0001"))
			assert.True(t, f.Includes("S0002"))
			assert.False(t, f.Includes("S0003"))
			assert.False(t, f.Includes("0001"))
			assert.False(t, f.Includes("OVA0001"))
		})
	}
}

func TestBareIdsAndWhitespace(t *testing.T) {
	f, err := Parse(" 5 , ova1,\t12 ")
	require.NoError(t, err)
	assert.True(t, f.Includes("0005"))
	assert.True(t, f.Includes("OVA0001"))
	assert.True(t, f.Includes("000012"))
	assert.False(t, f.Includes("0006"))
	assert.False(t, f.Includes("0001"))
}

func TestUnparseableLiteral(t *testing.T) {
	f, err := Parse("movie")
	require.NoError(t, err)
	assert.True(t, f.Includes("MOVIE"))
	assert.False(t, f.Includes("0001"))
}

func TestInvalidTokensKeepValidOnes(t *testing.T) {
	f, err := Parse("3-1,A1-B2,1-,2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reversed")
	assert.Contains(t, err.Error(), "mixes prefixes")
	assert.Contains(t, err.Error(), "invalid range")
	assert.True(t, f.Includes("0002"))
	assert.False(t, f.Includes("0003"))
}

func TestEmptyExpressionFailsClosed(t *testing.T) {
	f, err := Parse("")
	require.NoError(t, err)
	assert.True(t, f.Empty())
	assert.False(t, f.Includes("0001"))
	var zero Filter
	assert.False(t, zero.Includes("0001"))
}

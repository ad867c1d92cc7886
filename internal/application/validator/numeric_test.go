package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumericClaims(t *testing.T) {
	claims := ParseNumericClaims("The strategy rotates defensively when VIX > 25 and drawdown < -15%.")
	require.Len(t, claims, 2)
	assert.Equal(t, "VIX", claims[0].Subject)
	assert.Equal(t, ">", claims[0].Operator)
	assert.Equal(t, 25.0, claims[0].Value)
	assert.Equal(t, "DRAWDOWN", claims[1].Subject)
	assert.InDelta(t, -0.15, claims[1].Value, 1e-9)
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(25, 27, 0.20))
	assert.False(t, WithinTolerance(25, 40, 0.20))
	assert.True(t, WithinTolerance(0, 0, 0.20))
}

func TestAnyWithinTolerance(t *testing.T) {
	assert.True(t, AnyWithinTolerance(25, []float64{10, 24, 60}, 0.20))
	assert.False(t, AnyWithinTolerance(25, []float64{10, 60}, 0.20))
}

func TestContainsKeyword(t *testing.T) {
	assert.True(t, ContainsKeyword("We rotate into defensives during a VIX spike.", VolatilityKeywords))
	assert.False(t, ContainsKeyword("We rotate based on momentum.", VolatilityKeywords))
}

package logictree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition_LiteralThreshold(t *testing.T) {
	cond, err := ParseCondition("VIXY_price > 25")
	require.NoError(t, err)
	assert.Equal(t, "VIXY", cond.LeftTicker)
	assert.Equal(t, "price", cond.LeftMetric)
	assert.Equal(t, ">", cond.Operator)
	require.NotNil(t, cond.RightLiteral)
	assert.Equal(t, 25.0, *cond.RightLiteral)
	assert.False(t, cond.RightIsTicker)
}

func TestParseCondition_QualifiedIndicatorRHS(t *testing.T) {
	cond, err := ParseCondition("SPY_price > SPY_200d_ma")
	require.NoError(t, err)
	assert.Equal(t, "SPY", cond.LeftTicker)
	assert.Equal(t, "price", cond.LeftMetric)
	assert.True(t, cond.RightIsTicker)
	assert.Equal(t, "SPY", cond.RightTicker)
	assert.Equal(t, "200d_ma", cond.RightMetric)
}

func TestParseCondition_RejectsBooleanOperator(t *testing.T) {
	_, err := ParseCondition("VIX_price > 25 and SPY_200d_ma > 0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boolean operator")
}

func TestParseCondition_RejectsUnknownOperand(t *testing.T) {
	_, err := ParseCondition("vix_index > 25")
	require.Error(t, err)
}

func TestParseCondition_NegativeLiteral(t *testing.T) {
	cond, err := ParseCondition("SPY_30d_return < -5")
	require.NoError(t, err)
	require.NotNil(t, cond.RightLiteral)
	assert.Equal(t, -5.0, *cond.RightLiteral)
}

func TestParseCondition_RSIMetric(t *testing.T) {
	cond, err := ParseCondition("QQQ_rsi_14 >= 70")
	require.NoError(t, err)
	assert.Equal(t, "QQQ", cond.LeftTicker)
	assert.Equal(t, "rsi_14", cond.LeftMetric)
}

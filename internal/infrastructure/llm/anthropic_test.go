package llm

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

func TestToAnthropicMessages_Count(t *testing.T) {
	msgs := []agent.Message{
		{Role: agent.RoleUser, Content: "hi"},
		{Role: agent.RoleAssistant, Content: "hello"},
		{Role: agent.RoleTool, Content: "result", ToolCallID: "call-1"},
	}
	out := toAnthropicMessages(msgs)
	require.Len(t, out, 3)
}

func TestToAnthropicTools(t *testing.T) {
	tools := []agent.Tool{
		fakeTool{name: "fetch_fred_series", desc: "fetches fred series", schema: map[string]any{"series_id": "string"}},
	}
	out := toAnthropicTools(tools)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].OfTool)
	assert.Equal(t, "fetch_fred_series", out[0].OfTool.Name)
}

func TestClassifyAnthropicError_RateLimit(t *testing.T) {
	err := classifyAnthropicError(&anthropic.Error{StatusCode: 429})
	var provErr *domainerrors.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domainerrors.ProviderErrorRateLimit, provErr.Class)
}

func TestClassifyAnthropicError_Auth(t *testing.T) {
	err := classifyAnthropicError(&anthropic.Error{StatusCode: 403})
	var provErr *domainerrors.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domainerrors.ProviderErrorAuth, provErr.Class)
}

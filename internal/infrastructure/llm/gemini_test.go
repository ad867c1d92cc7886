package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

func TestToGeminiContents_Count(t *testing.T) {
	msgs := []agent.Message{
		{Role: agent.RoleUser, Content: "hi"},
		{Role: agent.RoleAssistant, Content: "hello"},
	}
	out := toGeminiContents(msgs)
	require.Len(t, out, 2)
	for _, c := range out {
		require.NotNil(t, c)
	}
}

func TestToGeminiTools(t *testing.T) {
	tools := []agent.Tool{
		fakeTool{name: "search_macro_corpus", desc: "searches macro corpus", schema: map[string]any{"query": "string"}},
	}
	out := toGeminiTools(tools)
	require.Len(t, out, 1)
	require.Len(t, out[0].FunctionDeclarations, 1)
	assert.Equal(t, "search_macro_corpus", out[0].FunctionDeclarations[0].Name)
}

func TestClassifyGeminiError_AlwaysNetwork(t *testing.T) {
	err := classifyGeminiError(errors.New("boom"))
	var provErr *domainerrors.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domainerrors.ProviderErrorNetwork, provErr.Class)
	assert.Equal(t, "gemini", provErr.Provider)
}

package agent

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	responses []ChatResponse
	errs      []error
	calls     []ChatRequest
}

func (f *fakeClient) Complete(_ context.Context, req ChatRequest) (ChatResponse, error) {
	f.calls = append(f.calls, req)
	idx := len(f.calls) - 1
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], err
	}
	return ChatResponse{}, err
}

var fixedSchema = map[string]any{
	"type":     "object",
	"required": []any{"name"},
	"properties": map[string]any{
		"name": map[string]any{"type": "string"},
	},
}

func TestRuntime_Run_Success(t *testing.T) {
	client := &fakeClient{
		responses: []ChatResponse{
			{Content: `{"name":"SPY/AGG core"}`, PromptTokens: 10, CompletionTokens: 5},
		},
	}
	rt := NewRuntime(map[string]ChatClient{"openai": client}, nil)

	result, err := rt.Run(context.Background(), RunRequest{
		Stage:        "generate",
		ModelID:      "openai:gpt-4.1",
		SystemPrompt: "system",
		UserPrompt:   "user",
		OutputSchema: fixedSchema,
		HistoryLimit: HistoryShort,
	})

	require.NoError(t, err)
	assert.Equal(t, "SPY/AGG core", result.Output["name"])
	assert.Len(t, client.calls, 1)
}

func TestRuntime_Run_SchemaRetryThenSucceeds(t *testing.T) {
	client := &fakeClient{
		responses: []ChatResponse{
			{Content: `not json`},
			{Content: `{"name":"fixed"}`},
		},
	}
	rt := NewRuntime(map[string]ChatClient{"openai": client}, nil)

	result, err := rt.Run(context.Background(), RunRequest{
		Stage:        "generate",
		ModelID:      "openai:gpt-4.1",
		SystemPrompt: "system",
		UserPrompt:   "user",
		OutputSchema: fixedSchema,
		HistoryLimit: HistoryShort,
	})

	require.NoError(t, err)
	assert.Equal(t, "fixed", result.Output["name"])
	assert.Len(t, client.calls, 2)
}

func TestRuntime_Run_ExhaustsSchemaRetries(t *testing.T) {
	client := &fakeClient{
		responses: []ChatResponse{
			{Content: `not json`},
			{Content: `not json either`},
			{Content: `still not json`},
		},
	}
	rt := NewRuntime(map[string]ChatClient{"openai": client}, nil)

	_, err := rt.Run(context.Background(), RunRequest{
		Stage:        "generate",
		ModelID:      "openai:gpt-4.1",
		SystemPrompt: "system",
		UserPrompt:   "user",
		OutputSchema: fixedSchema,
		HistoryLimit: HistoryShort,
	})

	require.Error(t, err)
	assert.Len(t, client.calls, maxSchemaRetries+1)
}

func TestRuntime_Run_RoutesOpenAICompatibleProvider(t *testing.T) {
	client := &fakeClient{
		responses: []ChatResponse{{Content: `{"name":"ok"}`}},
	}
	rt := NewRuntime(map[string]ChatClient{"openai": client}, nil)

	t.Setenv("DEEPSEEK_API_KEY", "deepseek-secret")
	t.Setenv("OPENAI_API_KEY", "original-openai-key")

	_, err := rt.Run(context.Background(), RunRequest{
		Stage:        "score",
		ModelID:      "deepseek:deepseek-chat",
		SystemPrompt: "system",
		UserPrompt:   "user",
		OutputSchema: fixedSchema,
		HistoryLimit: HistoryShort,
	})

	require.NoError(t, err)
	// Env must be restored after the call returns.
	assert.Equal(t, "original-openai-key", os.Getenv("OPENAI_API_KEY"))
}

// Package llm adapts the three native provider SDKs pulled from the
// retrieved pack (go-openai, anthropic-sdk-go, google.golang.org/genai)
// to the agent.ChatClient interface the Agent Runtime drives.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// OpenAIClient wraps go-openai for both native OpenAI calls and every
// OpenAI-compatible provider (deepseek, kimi, together) routed through
// it by the Agent Runtime's env switch. Grounded on the teacher's
// executor.OpenAICompletionExecutor: client construction per call,
// ChatCompletionRequest shape, error classification on the API error.
type OpenAIClient struct{}

// NewOpenAIClient returns a client that reads OPENAI_API_KEY and
// OPENAI_BASE_URL fresh on every call, matching §6.3's "read once per
// LLM call" requirement — the client holds no cached credentials.
func NewOpenAIClient() *OpenAIClient {
	return &OpenAIClient{}
}

func (c *OpenAIClient) newSDKClient() *openai.Client {
	cfg := openai.DefaultConfig(os.Getenv("OPENAI_API_KEY"))
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	return openai.NewClientWithConfig(cfg)
}

// Complete implements agent.ChatClient.
func (c *OpenAIClient) Complete(ctx context.Context, req agent.ChatRequest) (agent.ChatResponse, error) {
	client := c.newSDKClient()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, toOpenAIMessage(m))
	}

	ccReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxOutputTokens > 0 {
		ccReq.MaxCompletionTokens = req.MaxOutputTokens
	}
	if req.ResponseSchema != nil {
		ccReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if len(req.Tools) > 0 {
		ccReq.Tools = toOpenAITools(req.Tools)
	}

	resp, err := client.CreateChatCompletion(ctx, ccReq)
	if err != nil {
		return agent.ChatResponse{}, classifyOpenAIError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return agent.ChatResponse{}, &domainerrors.ProviderError{
			Provider: "openai",
			Class:    domainerrors.ProviderErrorBadRequest,
			Cause:    fmt.Errorf("no choices returned"),
		}
	}

	choice := resp.Choices[0]
	out := agent.ChatResponse{
		Content:          strings.TrimSpace(choice.Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out, nil
}

func toOpenAIMessage(m agent.Message) openai.ChatCompletionMessage {
	switch m.Role {
	case agent.RoleTool:
		return openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
	case agent.RoleAssistant:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
	default:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content}
	}
}

func toOpenAITools(tools []agent.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.ParametersSchema(),
			},
		})
	}
	return out
}

// classifyOpenAIError maps a go-openai error into the ProviderError
// taxonomy (§7) so the Runtime's back-off policy knows what to retry.
func classifyOpenAIError(provider string, err error) error {
	var apiErr *openai.APIError
	if ok := asOpenAIAPIError(err, &apiErr); ok {
		class := domainerrors.ProviderErrorBadRequest
		switch apiErr.HTTPStatusCode {
		case 429:
			class = domainerrors.ProviderErrorRateLimit
		case 401, 403:
			class = domainerrors.ProviderErrorAuth
		default:
			if apiErr.HTTPStatusCode >= 500 {
				class = domainerrors.ProviderErrorNetwork
			}
		}
		return &domainerrors.ProviderError{Provider: provider, Class: class, Cause: err}
	}
	return &domainerrors.ProviderError{Provider: provider, Class: domainerrors.ProviderErrorNetwork, Cause: err}
}

func asOpenAIAPIError(err error, target **openai.APIError) bool {
	if apiErr, ok := err.(*openai.APIError); ok {
		*target = apiErr
		return true
	}
	return false
}

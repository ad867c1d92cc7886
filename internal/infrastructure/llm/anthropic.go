package llm

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// AnthropicClient wraps the native Anthropic Messages API.
type AnthropicClient struct{}

// NewAnthropicClient returns a client that reads ANTHROPIC_API_KEY fresh
// on every call.
func NewAnthropicClient() *AnthropicClient {
	return &AnthropicClient{}
}

// defaultMaxTokens is used when a call does not specify a reasoning
// output-token budget; Anthropic requires max_tokens on every request.
const defaultMaxTokens = 4096

// Complete implements agent.ChatClient.
func (c *AnthropicClient) Complete(ctx context.Context, req agent.ChatRequest) (agent.ChatResponse, error) {
	client := anthropic.NewClient(option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")))

	maxTokens := int64(req.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return agent.ChatResponse{}, classifyAnthropicError(err)
	}

	out := agent.ChatResponse{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}

	var textParts []string
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, b.Text)
		case anthropic.ToolUseBlock:
			var args map[string]any
			_ = json.Unmarshal(b.Input, &args)
			out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}
	out.Content = strings.TrimSpace(strings.Join(textParts, "\n"))

	return out, nil
}

func toAnthropicMessages(messages []agent.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case agent.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case agent.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

func toAnthropicTools(tools []agent.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.ParametersSchema(),
				},
			},
		})
	}
	return out
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if ok := asAnthropicAPIError(err, &apiErr); ok {
		class := domainerrors.ProviderErrorBadRequest
		switch apiErr.StatusCode {
		case 429:
			class = domainerrors.ProviderErrorRateLimit
		case 401, 403:
			class = domainerrors.ProviderErrorAuth
		default:
			if apiErr.StatusCode >= 500 {
				class = domainerrors.ProviderErrorNetwork
			}
		}
		return &domainerrors.ProviderError{Provider: "anthropic", Class: class, Cause: err}
	}
	return &domainerrors.ProviderError{Provider: "anthropic", Class: domainerrors.ProviderErrorNetwork, Cause: err}
}

func asAnthropicAPIError(err error, target **anthropic.Error) bool {
	if apiErr, ok := err.(*anthropic.Error); ok {
		*target = apiErr
		return true
	}
	return false
}

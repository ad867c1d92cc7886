package llm

import (
	"context"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// GeminiClient wraps the Google-native genai SDK, grounded on the
// pack's own client-construction pattern in
// theRebelliousNerd-codenerd/internal/embedding/genai.go (that repo
// only exercises EmbedContent; this client exercises GenerateContent
// for chat completion instead).
type GeminiClient struct{}

// NewGeminiClient returns a client that reads GOOGLE_API_KEY fresh on
// every call.
func NewGeminiClient() *GeminiClient {
	return &GeminiClient{}
}

// Complete implements agent.ChatClient.
func (c *GeminiClient) Complete(ctx context.Context, req agent.ChatRequest) (agent.ChatResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: os.Getenv("GOOGLE_API_KEY")})
	if err != nil {
		return agent.ChatResponse{}, &domainerrors.ProviderError{Provider: "gemini", Class: domainerrors.ProviderErrorAuth, Cause: err}
	}

	contents := toGeminiContents(req.Messages)

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
	}
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return agent.ChatResponse{}, classifyGeminiError(err)
	}
	if len(resp.Candidates) == 0 {
		return agent.ChatResponse{}, &domainerrors.ProviderError{
			Provider: "gemini",
			Class:    domainerrors.ProviderErrorBadRequest,
		}
	}

	out := agent.ChatResponse{}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	var textParts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
		if part.FunctionCall != nil {
			out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
				ID:        part.FunctionCall.Name,
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}
	out.Content = strings.TrimSpace(strings.Join(textParts, "\n"))

	return out, nil
}

func toGeminiContents(messages []agent.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == agent.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

func toGeminiTools(tools []agent.Tool) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func classifyGeminiError(err error) error {
	// The genai SDK surfaces transport/HTTP errors without a stable typed
	// error the way go-openai's APIError does; this domain treats every
	// Gemini failure as a transient network error so the Runtime's
	// back-off policy retries it a bounded number of times before giving
	// up, rather than guessing at an unstable error shape.
	return &domainerrors.ProviderError{Provider: "gemini", Class: domainerrors.ProviderErrorNetwork, Cause: err}
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// maxToolIterations bounds the number of tool-call round-trips within a
// single Run, guarding against a misbehaving model looping forever.
const maxToolIterations = 6

// maxSchemaRetries bounds the number of structured-output fix-retries
// (§4.1: "retries with an identical fix-prompt ... up to a bounded
// number of times").
const maxSchemaRetries = 2

// Runtime is the Agent Runtime (C1): a provider-agnostic wrapper
// enforcing history limits, tool-result compression, reasoning-model
// settings, and provider routing around a single logical LLM call.
type Runtime struct {
	// Clients is keyed by canonical provider name: "openai", "anthropic",
	// "gemini". OpenAI-compatible providers (deepseek, kimi, together)
	// are routed through Clients["openai"] with a temporary env switch.
	Clients map[string]ChatClient

	Compressor   *Compressor
	Backoff      BackoffPolicy
	CallTimeout  time.Duration

	// Metrics is nil unless TRACK_TOKENS is enabled; Run skips recording
	// when it is nil.
	Metrics Metrics
}

// NewRuntime builds a Runtime with the default provider backoff policy.
func NewRuntime(clients map[string]ChatClient, compressor *Compressor) *Runtime {
	return &Runtime{
		Clients:     clients,
		Compressor:  compressor,
		Backoff:     DefaultProviderBackoff(),
		CallTimeout: 90 * time.Second,
	}
}

// Run executes the §4.1 contract: run(model_id, system_prompt,
// user_prompt, *, output_schema, tools, history_limit, reasoning) ->
// output_schema.
func (rt *Runtime) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	start := time.Now()
	spec, bareModel, err := ParseModelID(req.ModelID)
	if err != nil {
		return RunResult{}, err
	}

	client, ok := rt.clientFor(spec)
	if !ok {
		return RunResult{}, fmt.Errorf("no chat client configured for provider %q", spec.Name)
	}

	reasoning := req.Reasoning
	if !reasoning.Enabled && reasoning.OutputTokensMax == 0 {
		if IsReasoningModel(bareModel) {
			reasoning = ReasoningDefaults()
		} else {
			reasoning = NonReasoningDefaults()
		}
	}

	history := TrimHistory(req.History, req.HistoryLimit)
	messages := append(append([]Message{}, history...), Message{Role: RoleUser, Content: req.UserPrompt})

	registry := NewToolRegistry(req.Tools)

	log.Debug().
		Str("provider", spec.Name).
		Str("model", bareModel).
		Int("history_len", len(messages)).
		Bool("reasoning", reasoning.Enabled).
		Msg("agent runtime: starting call")

	var lastResp ChatResponse
	fixNote := ""

	for schemaAttempt := 0; schemaAttempt <= maxSchemaRetries; schemaAttempt++ {
		callMessages := messages
		if fixNote != "" {
			callMessages = append(append([]Message{}, messages...), Message{Role: RoleUser, Content: fixNote})
		}

		resp, toolTrace, err := rt.converse(ctx, spec, client, req, bareModel, reasoning, callMessages, registry)
		if err != nil {
			return RunResult{}, err
		}
		lastResp = resp
		messages = append(messages, toolTrace...)

		output, parseErr := decodeOutput(resp)
		if parseErr == nil {
			if schemaErr := ValidateOutput(req.OutputSchema, output, req.Stage, req.ModelID); schemaErr == nil {
				messages = append(messages, Message{Role: RoleAssistant, Content: resp.Content})
				if rt.Metrics != nil {
					rt.Metrics.RecordAIRequest(resp.PromptTokens, resp.CompletionTokens, time.Since(start))
				}
				return RunResult{
					Output:           output,
					UpdatedHistory:   messages,
					PromptTokens:     resp.PromptTokens,
					CompletionTokens: resp.CompletionTokens,
				}, nil
			} else if schemaAttempt == maxSchemaRetries {
				return RunResult{}, schemaErr
			} else {
				fixNote = fmt.Sprintf("Your previous response failed schema validation: %s\nReturn ONLY a corrected JSON object conforming to the schema.", schemaErr.Error())
			}
		} else if schemaAttempt == maxSchemaRetries {
			return RunResult{}, &domainerrors.SchemaError{
				ModelID: req.ModelID,
				Stage:   req.Stage,
				Detail:  parseErr.Error(),
				Cause:   parseErr,
			}
		} else {
			fixNote = fmt.Sprintf("Your previous response was not valid JSON: %s\nReturn ONLY a corrected JSON object.", parseErr.Error())
		}

		messages = append(messages, Message{Role: RoleAssistant, Content: lastResp.Content})
	}

	return RunResult{}, fmt.Errorf("exhausted schema retries for model %s", req.ModelID)
}

// converse runs one provider call, resolving any tool calls the model
// requests before returning its final response. Returns the response and
// the trace of tool-call/tool-result messages appended along the way.
func (rt *Runtime) converse(
	ctx context.Context,
	spec ProviderSpec,
	client ChatClient,
	req RunRequest,
	bareModel string,
	reasoning Reasoning,
	messages []Message,
	registry *ToolRegistry,
) (ChatResponse, []Message, error) {
	var trace []Message
	current := messages
	timeoutRetried := false

	for iter := 0; iter < maxToolIterations; iter++ {
		callCtx, cancel := context.WithTimeout(ctx, rt.CallTimeout)
		resp, err := rt.callWithBackoff(callCtx, spec, client, ChatRequest{
			Model:           bareModel,
			System:          req.SystemPrompt,
			Messages:        current,
			ResponseSchema:  req.OutputSchema,
			Tools:           req.Tools,
			MaxOutputTokens: reasoning.OutputTokensMax,
			ReasoningHints:  reasoning.Enabled,
		})
		cancel()
		if err != nil {
			if callCtx.Err() != nil {
				if !timeoutRetried && ctx.Err() == nil {
					timeoutRetried = true
					iter--
					continue
				}
				return ChatResponse{}, nil, &domainerrors.TimeoutError{Operation: "agent_runtime.converse"}
			}
			return ChatResponse{}, nil, err
		}

		if len(resp.ToolCalls) == 0 {
			return resp, trace, nil
		}

		for _, call := range resp.ToolCalls {
			result, toolErr := rt.invokeTool(ctx, registry, req, call)
			if toolErr != nil {
				result = fmt.Sprintf("error: %v", toolErr)
			}
			msg := Message{Role: RoleTool, Content: result, ToolCallID: call.ID, ToolName: call.Name}
			trace = append(trace, msg)
			current = append(current, msg)
		}
	}

	return ChatResponse{}, trace, fmt.Errorf("exceeded max tool iterations (%d)", maxToolIterations)
}

func (rt *Runtime) invokeTool(ctx context.Context, registry *ToolRegistry, req RunRequest, call ToolCall) (string, error) {
	tool, ok := registry.Lookup(call.Name)
	if !ok {
		return "", fmt.Errorf("model requested unregistered tool %q", call.Name)
	}
	raw, err := tool.Invoke(ctx, call.Arguments)
	if err != nil {
		return "", err
	}
	if rt.Compressor.ShouldCompress(call.Name, raw, req.CompressTools) {
		return rt.Compressor.Compress(ctx, call.Name, raw), nil
	}
	return raw, nil
}

// callWithBackoff wraps client.Complete with the Runtime's back-off
// policy and, for OpenAI-compatible providers, the scoped env switch
// that must be reverted before this call returns on every exit path.
func (rt *Runtime) callWithBackoff(ctx context.Context, spec ProviderSpec, client ChatClient, req ChatRequest) (ChatResponse, error) {
	var resp ChatResponse
	err := rt.Backoff.Do(ctx, func(attempt int) error {
		return WithOpenAICompatibleEnv(spec, func() error {
			var callErr error
			resp, callErr = client.Complete(ctx, req)
			return callErr
		})
	})
	return resp, err
}

func (rt *Runtime) clientFor(spec ProviderSpec) (ChatClient, bool) {
	if spec.OpenAICompatible {
		c, ok := rt.Clients["openai"]
		return c, ok
	}
	c, ok := rt.Clients[spec.Name]
	return c, ok
}

func decodeOutput(resp ChatResponse) (map[string]any, error) {
	if resp.RawJSON != nil {
		return resp.RawJSON, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resp.Content), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Package agent implements the provider-agnostic Agent Runtime (C1):
// per-stage adaptive history, tool-result compression, provider routing,
// reasoning-model detection, structured-output retry, and deadline
// enforcement around a single LLM call.
package agent

import (
	"context"
	"time"
)

// Role is a chat message role, mirrored across every provider.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the rolling conversation the Runtime trims and
// replays on every call.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string // set on Role == RoleTool
	ToolName   string // set on Role == RoleTool
}

// ToolCall is a provider-requested invocation of a registered Tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Tool is anything the Agent Runtime can offer an LLM call. Tools carry
// no compression hook of their own; the Runtime's Compressor decides per
// call whether a tool's result is compressed (§9 design notes:
// compression is a pluggable post-processor, not a global behavior).
type Tool interface {
	Name() string
	Description() string
	// ParametersSchema is a JSON-Schema object describing Arguments.
	ParametersSchema() map[string]any
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// HistoryLimit is the per-call adaptive-trimming budget (§4.1). Only
// three values are meaningful in this domain; the type exists so callers
// cannot pass an arbitrary int by accident.
type HistoryLimit int

const (
	HistoryShort  HistoryLimit = 5
	HistoryMedium HistoryLimit = 10
	HistoryLong   HistoryLimit = 20
)

// Reasoning carries provider-specific sampling hints applied only when
// the resolved model is classified as a reasoning model.
type Reasoning struct {
	Enabled         bool
	OutputTokensMax int
}

// Metrics receives token usage for every completed Run call, when the
// Runtime is configured with one (§6.3: gated by TRACK_TOKENS). Defined
// here rather than imported from the monitoring package so this
// application-layer package never depends on infrastructure;
// *monitoring.MetricsCollector satisfies it structurally.
type Metrics interface {
	RecordAIRequest(promptTokens, completionTokens int, latency time.Duration)
}

// RunRequest is the full input to Runtime.Run, matching the §4.1
// contract: run(model_id, system_prompt, user_prompt, *, output_schema,
// tools, history_limit, reasoning) -> output_schema.
type RunRequest struct {
	// Stage names the calling stage operator, used only for error context
	// and logging (e.g. "generate", "score").
	Stage        string
	ModelID      string
	SystemPrompt string
	UserPrompt   string
	History      []Message // prior turns; trimmed to HistoryLimit before the call
	OutputSchema map[string]any
	Tools        []Tool
	HistoryLimit HistoryLimit
	Reasoning    Reasoning
	// CompressTools names the subset of Tools whose results are eligible
	// for compression on this call; nil/empty disables compression.
	CompressTools []string
}

// RunResult is the Runtime's output: the structured JSON the caller
// decodes into its schema type, plus the updated history tail so the
// caller can thread it into the next call in the same stage.
type RunResult struct {
	Output       map[string]any
	UpdatedHistory []Message
	PromptTokens     int
	CompletionTokens int
}

package agent

import (
	"context"
	"fmt"
)

// compressionThreshold is the raw-result length above which a data-heavy
// tool result becomes eligible for compression (§4.1: "only when the raw
// result exceeds a threshold (≈200 chars)").
const compressionThreshold = 200

// compressionHardCap bounds the length of a compressed result regardless
// of what the summarization model returns.
const compressionHardCap = 600

// dataHeavyTools is the small named set of tools whose results may be
// compressed. Tool identity and every other tool's results pass through
// untouched (§4.1).
var dataHeavyTools = map[string]bool{
	"fetch_price_history":   true,
	"fetch_time_series":     true,
	"search_macro_corpus":   true,
	"fetch_fred_series":     true,
}

// Compressor performs tool-result compression via a separate small-model
// summarization call. It is opt-in per stage (RunRequest.CompressTools)
// and gated additionally by a process-wide enable flag (COMPRESS_MCP_RESULTS,
// §6.3), matching §9's "pluggable post-processor on the Tool interface"
// design note rather than a global always-on behavior.
type Compressor struct {
	Enabled           bool
	SummarizationModel string
	Client            ChatClient
}

// ShouldCompress reports whether a given tool's result is eligible for
// compression on this call: the tool is data-heavy, the call opted in,
// compression is globally enabled, and the raw result is long enough to
// be worth summarizing.
func (c *Compressor) ShouldCompress(toolName string, rawResult string, requestedTools []string) bool {
	if c == nil || !c.Enabled {
		return false
	}
	if !dataHeavyTools[toolName] {
		return false
	}
	if len(rawResult) <= compressionThreshold {
		return false
	}
	for _, name := range requestedTools {
		if name == toolName {
			return true
		}
	}
	return false
}

// Compress summarizes rawResult down to at most compressionHardCap
// characters using the Compressor's summarization model. On any error
// from the summarization call, the raw result is returned unchanged —
// compression is a best-effort optimization, never a hard dependency.
func (c *Compressor) Compress(ctx context.Context, toolName, rawResult string) string {
	if c == nil || c.Client == nil {
		return rawResult
	}

	prompt := fmt.Sprintf(
		"Summarize the following %s tool output in under %d characters, preserving every number and ticker symbol:\n\n%s",
		toolName, compressionHardCap, rawResult,
	)

	resp, err := c.Client.Complete(ctx, ChatRequest{
		Model:           c.SummarizationModel,
		System:          "You compress tool output for reuse in a later LLM call. Be terse and numeric.",
		Messages:        []Message{{Role: RoleUser, Content: prompt}},
		MaxOutputTokens: 512,
	})
	if err != nil {
		return rawResult
	}

	summary := resp.Content
	if len(summary) > compressionHardCap {
		summary = summary[:compressionHardCap]
	}
	if summary == "" {
		return rawResult
	}
	return summary
}

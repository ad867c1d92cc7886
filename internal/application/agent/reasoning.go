package agent

import "strings"

// nonReasoningPrefixes is the configured allow-list of bare model-name
// prefixes (case-insensitive) that are NOT reasoning models (§4.1,
// GLOSSARY). Anything else is treated as a reasoning model by default.
var nonReasoningPrefixes = []string{
	"gpt-4o",
	"gpt-4.1",
	"gpt-3.5",
	"claude-3-haiku",
	"claude-3-5-haiku",
	"gemini-1.5-flash",
	"gemini-2.0-flash",
}

// IsReasoningModel reports whether bareModelName (the part of a
// "provider:name" model id after the colon) should receive reasoning
// defaults: larger output-token budgets and provider-specific sampling
// hints. A model is a reasoning model unless its name starts with one
// of the configured non-reasoning prefixes.
func IsReasoningModel(bareModelName string) bool {
	lower := strings.ToLower(bareModelName)
	for _, prefix := range nonReasoningPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

// ReasoningDefaults returns the sampling hints applied when a call
// targets a reasoning model.
func ReasoningDefaults() Reasoning {
	return Reasoning{
		Enabled:         true,
		OutputTokensMax: 32000,
	}
}

// NonReasoningDefaults returns the sampling hints applied when a call
// targets a non-reasoning model.
func NonReasoningDefaults() Reasoning {
	return Reasoning{
		Enabled:         false,
		OutputTokensMax: 4096,
	}
}

package agent

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ChatClient is the minimal surface the Runtime needs from a concrete
// provider SDK wrapper (infrastructure/llm/*.go implements one per
// native provider). Kept deliberately thin: the Runtime owns history
// trimming, compression, and retry; the client owns wire-format
// translation only.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// ChatRequest is the provider-agnostic shape a ChatClient translates
// into its SDK's native request.
type ChatRequest struct {
	Model           string
	System          string
	Messages        []Message
	ResponseSchema  map[string]any
	Tools           []Tool
	MaxOutputTokens int
	ReasoningHints  bool
}

// ChatResponse is the provider-agnostic shape every ChatClient returns.
type ChatResponse struct {
	Content          string
	RawJSON          map[string]any
	ToolCalls        []ToolCall
	PromptTokens     int
	CompletionTokens int
}

// ProviderSpec describes one recognized provider prefix (§4.1).
type ProviderSpec struct {
	Name string
	// OpenAICompatible providers are routed through the "openai" client
	// by temporarily rewriting OPENAI_API_KEY/OPENAI_BASE_URL.
	OpenAICompatible bool
	APIKeyEnv        string
	BaseURLEnv       string // only set when OpenAICompatible
	BaseURLDefault   string // only set when OpenAICompatible
}

// providerRegistry maps the provider prefix of a "provider:name" model
// id to its routing spec (§4.1, §9: "small provider-registry mapping
// prefix -> {base_url, env_key, reasoning_default}").
var providerRegistry = map[string]ProviderSpec{
	"openai": {
		Name:      "openai",
		APIKeyEnv: "OPENAI_API_KEY",
	},
	"anthropic": {
		Name:      "anthropic",
		APIKeyEnv: "ANTHROPIC_API_KEY",
	},
	"gemini": {
		Name:      "gemini",
		APIKeyEnv: "GOOGLE_API_KEY",
	},
	"deepseek": {
		Name:             "deepseek",
		OpenAICompatible: true,
		APIKeyEnv:        "DEEPSEEK_API_KEY",
		BaseURLEnv:       "OPENAI_BASE_URL",
		BaseURLDefault:   "https://api.deepseek.com/v1",
	},
	"kimi": {
		Name:             "kimi",
		OpenAICompatible: true,
		APIKeyEnv:        "KIMI_API_KEY",
		BaseURLEnv:       "OPENAI_BASE_URL",
		BaseURLDefault:   "https://api.moonshot.cn/v1",
	},
	"together": {
		Name:             "together",
		OpenAICompatible: true,
		APIKeyEnv:        "TOGETHER_API_KEY",
		BaseURLEnv:       "OPENAI_BASE_URL",
		BaseURLDefault:   "https://api.together.xyz/v1",
	},
}

// ParseModelID splits "provider:name" into its provider spec and bare
// model name.
func ParseModelID(modelID string) (ProviderSpec, string, error) {
	provider, name, ok := strings.Cut(modelID, ":")
	if !ok || provider == "" || name == "" {
		return ProviderSpec{}, "", fmt.Errorf("model id %q is not of the form provider:name", modelID)
	}
	spec, ok := providerRegistry[provider]
	if !ok {
		return ProviderSpec{}, "", fmt.Errorf("unrecognized provider %q in model id %q", provider, modelID)
	}
	return spec, name, nil
}

// envSwitchGuard serializes and scopes the OPENAI_API_KEY/OPENAI_BASE_URL
// mutation that routing an OpenAI-compatible provider through the
// "openai" client requires (§5, §9: global env mutation must be guarded
// by a scoped resource that restores prior values on every exit path,
// serialized by a mutex).
var envSwitchGuard sync.Mutex

// WithOpenAICompatibleEnv temporarily overrides OPENAI_API_KEY and
// OPENAI_BASE_URL for the duration of fn, restoring their previous
// values (including absence) on every return path, and serializes
// concurrent callers so two in-flight routed calls never interleave
// their env mutations.
func WithOpenAICompatibleEnv(spec ProviderSpec, fn func() error) error {
	if !spec.OpenAICompatible {
		return fn()
	}

	envSwitchGuard.Lock()
	defer envSwitchGuard.Unlock()

	prevKey, hadKey := os.LookupEnv("OPENAI_API_KEY")
	prevBase, hadBase := os.LookupEnv("OPENAI_BASE_URL")

	restore := func() {
		if hadKey {
			os.Setenv("OPENAI_API_KEY", prevKey)
		} else {
			os.Unsetenv("OPENAI_API_KEY")
		}
		if hadBase {
			os.Setenv("OPENAI_BASE_URL", prevBase)
		} else {
			os.Unsetenv("OPENAI_BASE_URL")
		}
	}
	defer restore()

	routedKey := os.Getenv(spec.APIKeyEnv)
	os.Setenv("OPENAI_API_KEY", routedKey)

	// A pre-existing OPENAI_BASE_URL value is treated as an explicit
	// operator override for this provider; otherwise fall back to the
	// provider's known default endpoint.
	baseURL := spec.BaseURLDefault
	if hadBase && prevBase != "" {
		baseURL = prevBase
	}
	os.Setenv("OPENAI_BASE_URL", baseURL)

	return fn()
}

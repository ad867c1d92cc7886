// Package config loads process configuration from environment variables
// (§6.3). Kept as plain env lookups with typed fallbacks, the same shape
// as the teacher's own Config/Load/getEnv, widened to the provider
// credential, compression, and checkpoint-persistence env vars this
// domain reads.
package config

import (
	"os"
	"strconv"
)

// Config is every environment-sourced setting the pipeline reads at
// startup. Provider API keys are also read at call time (§6.3: "read
// once per LLM call"): each llm client reads its own key on every call,
// and agent.WithOpenAICompatibleEnv reads the routed provider's key.
// COMPRESS_MCP_RESULTS and SUMMARIZATION_MODEL are read only here.
type Config struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	GoogleAPIKey    string
	DeepSeekAPIKey  string
	KimiAPIKey      string
	TogetherAPIKey  string

	DefaultModel string

	CompressMCPResults bool
	SummarizationModel string
	TrackTokens        bool

	LogLevel  string
	LogFormat string

	CheckpointDriver string // "memory" or "postgres"
	CheckpointDSN    string

	SymphonyURL    string
	SymphonyAPIKey string
}

// Load reads Config from the process environment.
func Load() *Config {
	return &Config{
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
		DeepSeekAPIKey:  getEnv("DEEPSEEK_API_KEY", ""),
		KimiAPIKey:      getEnv("KIMI_API_KEY", ""),
		TogetherAPIKey:  getEnv("TOGETHER_API_KEY", ""),

		DefaultModel: getEnv("DEFAULT_MODEL", "openai:gpt-4o"),

		CompressMCPResults: getEnvBool("COMPRESS_MCP_RESULTS", false),
		SummarizationModel: getEnv("SUMMARIZATION_MODEL", "openai:gpt-4o-mini"),
		TrackTokens:        getEnvBool("TRACK_TOKENS", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CheckpointDriver: getEnv("CHECKPOINT_DRIVER", "memory"),
		CheckpointDSN:    getEnv("CHECKPOINT_DSN", ""),

		SymphonyURL:    getEnv("SYMPHONY_URL", "https://api.symphony.example/v1/save"),
		SymphonyAPIKey: getEnv("SYMPHONY_API_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

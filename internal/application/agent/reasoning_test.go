package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReasoningModel(t *testing.T) {
	cases := map[string]bool{
		"gpt-4o":              false,
		"gpt-4o-mini":         false,
		"GPT-4O":              false,
		"gpt-4.1":             false,
		"o1-preview":          true,
		"claude-3-5-sonnet":   true,
		"claude-3-5-haiku":    false,
		"gemini-2.5-pro":      true,
		"gemini-2.0-flash":    false,
		"deepseek-reasoner":   true,
	}
	for model, want := range cases {
		assert.Equal(t, want, IsReasoningModel(model), model)
	}
}

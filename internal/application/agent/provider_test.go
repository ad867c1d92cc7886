package agent

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelID(t *testing.T) {
	spec, name, err := ParseModelID("anthropic:claude-sonnet-4")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", spec.Name)
	assert.Equal(t, "claude-sonnet-4", name)

	_, _, err = ParseModelID("not-a-valid-id")
	assert.Error(t, err)

	_, _, err = ParseModelID("unknownprovider:foo")
	assert.Error(t, err)
}

func TestWithOpenAICompatibleEnv_RestoresPriorValues(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "prior-key")
	t.Setenv("OPENAI_BASE_URL", "https://prior.example.com")
	t.Setenv("DEEPSEEK_API_KEY", "deepseek-key")

	spec := providerRegistry["deepseek"]

	var seenKey, seenBase string
	err := WithOpenAICompatibleEnv(spec, func() error {
		seenKey = os.Getenv("OPENAI_API_KEY")
		seenBase = os.Getenv("OPENAI_BASE_URL")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "deepseek-key", seenKey)
	assert.Equal(t, "https://prior.example.com", seenBase)
	assert.Equal(t, "prior-key", os.Getenv("OPENAI_API_KEY"))
	assert.Equal(t, "https://prior.example.com", os.Getenv("OPENAI_BASE_URL"))
}

func TestWithOpenAICompatibleEnv_NoopForNativeProvider(t *testing.T) {
	called := false
	err := WithOpenAICompatibleEnv(providerRegistry["anthropic"], func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/config"
)

func TestBuild_EmptyProviderReturnsNilProvider(t *testing.T) {
	t.Parallel()
	p, err := Build(config.Config{}, nil)
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestBuild_MissingAPIKeyReturnsNilProvider(t *testing.T) {
	t.Parallel()
	p, err := Build(config.Config{LLMProvider: "openai"}, nil)
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestBuild_OpenAIWithKeyReturnsProvider(t *testing.T) {
	t.Parallel()
	p, err := Build(config.Config{LLMProvider: "openai", OpenAIAPIKey: "sk-test"}, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestBuild_AnthropicWithKeyReturnsProvider(t *testing.T) {
	t.Parallel()
	p, err := Build(config.Config{LLMProvider: "anthropic", AnthropicAPIKey: "sk-test"}, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestBuild_UnknownProviderErrors(t *testing.T) {
	t.Parallel()
	_, err := Build(config.Config{LLMProvider: "bogus"}, nil)
	require.Error(t, err)
}

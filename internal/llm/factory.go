package llm

import (
	"net/http"

	"hyperfind/internal/apperr"
	"hyperfind/internal/config"
)

// Build selects and constructs a Provider from cfg.LLMProvider. An empty
// provider or a missing API key yields (nil, nil): callers (the RAG
// controller) treat a nil Provider as "run in deterministic fallback mode"
// rather than a hard failure.
func Build(cfg config.Config, httpClient *http.Client) (Provider, error) {
	switch cfg.LLMProvider {
	case "":
		return nil, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.LLMBaseURL, httpClient), nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, nil
		}
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.LLMBaseURL, httpClient), nil
	default:
		return nil, apperr.Newf(apperr.BadConfig, "llm.Build", "unknown LLM provider %q", cfg.LLMProvider)
	}
}

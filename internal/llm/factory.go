package llm

import (
	"fmt"
)

// NewProvider creates a chat provider for providerType ("ollama" or "openai").
// An empty baseURL selects the provider's public default.
func NewProvider(providerType, baseURL, model, apiKey string) (Provider, error) {
	if model == "" {
		return nil, fmt.Errorf("no chat model configured for provider %s", providerType)
	}
	switch providerType {
	case "openai":
		if apiKey == "" && baseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, baseURL, model), nil

	case "ollama":
		return NewOllamaProvider(baseURL, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

package llm

import (
	"fmt"
	"os"
)

// apiKeyEnv names the environment variable holding each hosted provider's key.
var apiKeyEnv = map[string]string{
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"google":     "GOOGLE_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "anthropic", "openai", "google", "openrouter", "ollama".
// Hosted providers read their API key from the environment; ollama reads
// OLLAMA_HOST and falls back to localhost.
func NewProvider(providerType string, model string) (Provider, error) {
	if providerType == "ollama" {
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = defaultOllamaHost
		}
		return NewOllamaProvider(host, model), nil
	}

	env, ok := apiKeyEnv[providerType]
	if !ok {
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
	apiKey := os.Getenv(env)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable is not set", env)
	}

	switch providerType {
	case "anthropic":
		return NewAnthropicProvider(apiKey, model), nil
	case "openai":
		return NewOpenAIProvider(apiKey, model), nil
	case "google":
		return NewGoogleProvider(apiKey, model), nil
	default:
		return NewOpenRouterProvider(apiKey, model), nil
	}
}

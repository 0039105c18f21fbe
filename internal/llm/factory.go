package llm

import (
	"errors"
	"fmt"
	"os"
)

// ErrMissingAPIKey means the provider's credentials are not in the
// environment. The server keeps running with identification disabled.
var ErrMissingAPIKey = errors.New("api key not set")

// apiKeyEnv names the environment variable holding each hosted provider's key.
var apiKeyEnv = map[string]string{
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"google":     "GOOGLE_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// NewProvider creates the vision provider named by providerType: anthropic,
// openai, google, openrouter or ollama. Ollama needs no key and reads its
// host from OLLAMA_HOST.
func NewProvider(providerType string, model string) (Provider, error) {
	if providerType == "ollama" {
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil
	}

	env, ok := apiKeyEnv[providerType]
	if !ok {
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
	apiKey := os.Getenv(env)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w (%s)", providerType, ErrMissingAPIKey, env)
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

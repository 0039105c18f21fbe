package llm

import "context"

// Provider is a chat model that can look at images. Messages carrying
// Images are sent in the provider's native image format.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name is the provider key used in config and metric labels.
	Name() string
}

var (
	_ Provider = (*OpenAIProvider)(nil)
	_ Provider = (*OpenRouterProvider)(nil)
	_ Provider = (*AnthropicProvider)(nil)
	_ Provider = (*GoogleProvider)(nil)
	_ Provider = (*OllamaProvider)(nil)
	_ Provider = (*RateLimitedProvider)(nil)
)

package ai

import "context"

// Request is a provider-agnostic text generation call.
type Request struct {
	System    string
	User      string
	Model     string
	MaxTokens int
	// JSON asks the provider for a single JSON object.
	JSON bool
}

type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Provider is an external text-generation capability.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

// Selector picks the provider and resolves the model name to use for it.
// Empty arguments mean "use the configured default".
type Selector interface {
	Select(provider, model string) (Provider, string, error)
}

package llm

import "context"

// Provider defines the interface for LLM providers. Implementations
// perform exactly one network call per Complete and never retry; retry
// policy, if any, belongs to the caller.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Package llm is the adapter boundary to the OpenAI-compatible completion
// provider. Provider framing never leaks past this package: callers only see
// domain.UpstreamEvent values.
package llm

import "context"

// Provider opens streaming completions and lists models.
type Provider interface {
	// OpenStream sends req and returns the response stream once headers
	// arrive. A non-success status yields *StatusError.
	OpenStream(ctx context.Context, req *ChatCompletionRequest) (*Stream, error)

	// ListModels retrieves the models the provider offers.
	ListModels(ctx context.Context) ([]Model, error)
}

var (
	_ Provider = (*Client)(nil)
	_ Provider = (*MockClient)(nil)
)

package llm

import "context"

// Provider answers chat requests. Implementations make exactly one call per
// Complete; retries and pacing are the caller's concern.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

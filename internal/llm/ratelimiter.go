package llm

import (
	"context"

	"github.com/ziadkadry99/coderag/internal/ratelimit"
)

// RateLimitedProvider spaces out completions through a shared limiter.
// Passing the embedding limiter makes chat and embedding calls share one
// budget against the same backend.
type RateLimitedProvider struct {
	provider Provider
	limiter  *ratelimit.Limiter
}

// NewRateLimitedProvider wraps provider. A nil limiter never blocks.
func NewRateLimitedProvider(provider Provider, limiter *ratelimit.Limiter) Provider {
	return &RateLimitedProvider{provider: provider, limiter: limiter}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

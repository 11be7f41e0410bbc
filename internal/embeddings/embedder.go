// Package embeddings turns chunk text into vectors through an external
// provider, with caching, retry and a rate-limited worker pool.
package embeddings

import "context"

// Embedder generates an embedding vector for a single text.
type Embedder interface {
	// Embed returns the vector for text. Implementations honour ctx
	// cancellation and deadlines.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name identifies the provider and model, e.g. "ollama/bge-m3".
	Name() string
}

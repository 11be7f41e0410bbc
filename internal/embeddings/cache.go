package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder memoises vectors in an LRU keyed by the SHA-256 of the
// model name and text. Identical chunks (license headers, generated code)
// are embedded once per process.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with a cache of at most size entries.
// size <= 0 returns inner unchanged.
func NewCachedEmbedder(inner Embedder, size int) Embedder {
	if size <= 0 {
		return inner
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return inner
	}
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (c *CachedEmbedder) Name() string { return c.inner.Name() }

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int { return c.cache.Len() }

func (c *CachedEmbedder) key(text string) string {
	h := sha256.New()
	h.Write([]byte(c.inner.Name()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

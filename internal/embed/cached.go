package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the fingerprint cache. At 3072 dims a full
// cache is ~100MB, which is acceptable for a long-lived server.
const DefaultCacheSize = 8192

// CachedEmbedder wraps an Embedder with an in-memory fingerprint cache.
// Entries live for the process lifetime and are never persisted.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with an LRU of the given size.
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Fingerprint is the 16-char hex cache key for a text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

// Embed returns a cached vector or delegates to the inner embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Fingerprint(text)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, v)
	return v, nil
}

// EmbedBatch serves cached slots and forwards only uncached texts,
// order preserving. Failed batches surface as nil slots.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var uncached []string
	var uncachedIdx []int

	for i, text := range texts {
		if v, ok := c.cache.Get(Fingerprint(text)); ok {
			results[i] = v
			continue
		}
		uncached = append(uncached, text)
		uncachedIdx = append(uncachedIdx, i)
	}

	if len(uncached) == 0 {
		return results, nil
	}

	fresh, err := c.inner.EmbedBatch(ctx, uncached)
	if err != nil {
		return nil, err
	}
	for j, v := range fresh {
		if v == nil {
			continue
		}
		results[uncachedIdx[j]] = v
		c.cache.Add(Fingerprint(uncached[j]), v)
	}
	return results, nil
}

// Dimensions returns the inner embedding dimension.
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// ModelName returns the inner model identifier.
func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

// Available delegates to the inner embedder.
func (c *CachedEmbedder) Available(ctx context.Context) bool { return c.inner.Available(ctx) }

// Close closes the inner embedder.
func (c *CachedEmbedder) Close() error { return c.inner.Close() }

// Len reports the number of cached vectors.
func (c *CachedEmbedder) Len() int { return c.cache.Len() }

var _ Embedder = (*CachedEmbedder)(nil)

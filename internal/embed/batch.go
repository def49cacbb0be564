package embed

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchEmbedder fans texts out to the provider in fixed-size batches with
// a bounded worker pool. A batch that fails after one retry degrades to
// nil slots instead of failing the whole call.
type BatchEmbedder struct {
	inner     Embedder
	batchSize int
	workers   int
	logger    *slog.Logger
}

// NewBatchEmbedder wraps inner with batching and concurrency limits.
func NewBatchEmbedder(inner Embedder, batchSize, workers int, logger *slog.Logger) *BatchEmbedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchEmbedder{inner: inner, batchSize: batchSize, workers: workers, logger: logger}
}

// Embed generates an embedding for a single text, retrying once.
func (b *BatchEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := b.inner.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}

	delay := retryDelayMin + time.Duration(rand.Int63n(int64(retryDelayMax-retryDelayMin)))
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}
	return b.inner.Embed(ctx, text)
}

// EmbedBatch returns one slot per input text, in order. Slots from failed
// batches are nil; the caller treats missing vectors as a degrade.
func (b *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		g.Go(func() error {
			batch := texts[start:end]

			vecs, err := b.inner.EmbedBatch(gctx, batch)
			if err != nil {
				// One retry with a short randomized backoff; a second
				// failure leaves the slots nil.
				delay := retryDelayMin +
					time.Duration(rand.Int63n(int64(retryDelayMax-retryDelayMin)))
				select {
				case <-gctx.Done():
					return nil
				case <-time.After(delay):
				}

				vecs, err = b.inner.EmbedBatch(gctx, batch)
				if err != nil {
					b.logger.Warn("embedding batch failed",
						slog.Int("start", start),
						slog.Int("size", len(batch)),
						slog.String("error", err.Error()))
					return nil
				}
			}

			for i, v := range vecs {
				if start+i < len(results) {
					results[start+i] = v
				}
			}
			return nil
		})
	}

	// Workers swallow their own failures, so this only propagates
	// context cancellation.
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Dimensions returns the inner embedding dimension.
func (b *BatchEmbedder) Dimensions() int { return b.inner.Dimensions() }

// ModelName returns the inner model identifier.
func (b *BatchEmbedder) ModelName() string { return b.inner.ModelName() }

// Available delegates to the inner embedder.
func (b *BatchEmbedder) Available(ctx context.Context) bool { return b.inner.Available(ctx) }

// Close closes the inner embedder.
func (b *BatchEmbedder) Close() error { return b.inner.Close() }

var _ Embedder = (*BatchEmbedder)(nil)

// Package embed generates text embeddings through the Gemini API, with a
// process-lifetime fingerprint cache and bounded concurrent batching.
package embed

import (
	"context"
	"time"
)

// Batching constants.
const (
	// DefaultBatchSize is how many texts go to the provider per call.
	DefaultBatchSize = 50

	// DefaultWorkers bounds the concurrent provider calls per EmbedBatch.
	DefaultWorkers = 4

	// DefaultDimensions matches gemini-embedding-001 output.
	DefaultDimensions = 3072

	// retryDelayMin/Max bound the single-retry backoff window.
	retryDelayMin = 1 * time.Second
	retryDelayMax = 2 * time.Second
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, order
	// preserving. A nil slot marks a text whose batch failed.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// Package store persists knowledge chunks and serves both retrieval legs:
// ANN over an HNSW graph and BM25 over a lazily built Bleve index. Chunk
// metadata lives in a SQLite table; decay scoring drives the memory
// lifecycle.
package store

import "fmt"

// ArchivedScore is the decay-score sentinel marking an archived chunk.
const ArchivedScore = -1.0

// Chunk is the retrieval unit.
type Chunk struct {
	ID           int64
	Text         string
	Vector       []float32
	Source       string // POSIX-normalized path-like string
	Timestamp    int64  // creation epoch seconds
	Metadata     string // opaque JSON blob
	LastAccessed int64  // epoch seconds
	AccessCount  int64
	DecayScore   float64
}

// Archived reports whether the chunk carries the archive sentinel.
func (c *Chunk) Archived() bool { return c.DecayScore == ArchivedScore }

// VectorResult is one ANN hit.
type VectorResult struct {
	ChunkID  int64
	Distance float32
	Score    float32
}

// KeywordResult is one BM25 hit.
type KeywordResult struct {
	ChunkID      int64
	Score        float64
	MatchedTerms []string
}

// RescoreStats summarizes a batch decay rescore pass.
type RescoreStats struct {
	Total    int     `json:"total"`
	Rescored int     `json:"rescored"`
	Stale    int     `json:"stale"`
	Archived int     `json:"archived"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
}

// Options configures a Store.
type Options struct {
	// Dimensions is the embedding dimension D. 0 means infer from the
	// first added vector.
	Dimensions int
	// HalfLifeDays is H for the importance-weighted decay formula.
	HalfLifeDays float64
	// StaleThreshold marks chunks stale when V1 decay drops below it.
	StaleThreshold float64
	// ArchiveLogPath receives one JSON line per archived chunk.
	ArchiveLogPath string
}

// DefaultOptions returns store defaults matching the production layout.
func DefaultOptions() Options {
	return Options{
		HalfLifeDays:   30,
		StaleThreshold: 0.05,
	}
}

// ErrDimensionMismatch is returned when a vector's length does not match
// the table's dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

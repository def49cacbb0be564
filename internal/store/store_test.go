package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndCount(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, Options{Dimensions: 3})

	chunks := []Chunk{
		{Text: "jwt authentication middleware", Source: "docs\\auth.md", Vector: []float32{1, 0, 0}},
		{Text: "database connection pooling", Source: "docs/db.md", Vector: []float32{0, 1, 0}},
		{Text: "plain note without a vector", Source: "docs/note.md"},
	}
	require.NoError(t, s.Add(ctx, chunks))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Ids were assigned and sources normalized to forward slashes.
	assert.Positive(t, chunks[0].ID)
	assert.Equal(t, "docs/auth.md", chunks[0].Source)

	got, err := s.Get(ctx, []int64{chunks[0].ID, 9999, chunks[2].ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "jwt authentication middleware", got[0].Text)
	assert.Nil(t, got[1].Vector)
	assert.NotZero(t, got[0].Timestamp)
	assert.Equal(t, 1.0, got[0].DecayScore)
}

func TestVectorSearch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, Options{Dimensions: 3})

	chunks := []Chunk{
		{Text: "alpha", Vector: []float32{1, 0, 0}},
		{Text: "beta", Vector: []float32{0, 1, 0}},
		{Text: "gamma", Vector: []float32{0.9, 0.1, 0}},
	}
	require.NoError(t, s.Add(ctx, chunks))

	results, err := s.VectorSearch(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, chunks[0].ID, results[0].ChunkID)
	assert.Equal(t, chunks[2].ID, results[1].ChunkID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestVectorSearchPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, Options{Dimensions: 3}, nil)
	require.NoError(t, err)
	chunks := []Chunk{{Text: "persisted", Vector: []float32{0, 0, 1}}}
	require.NoError(t, s.Add(ctx, chunks))
	require.NoError(t, s.Close())

	s2, err := Open(dir, Options{Dimensions: 3}, nil)
	require.NoError(t, err)
	defer s2.Close()

	results, err := s2.VectorSearch(ctx, []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunks[0].ID, results[0].ChunkID)
}

func TestKeywordSearch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, Options{})

	require.NoError(t, s.Add(ctx, []Chunk{
		{Text: "redis cache invalidation strategies"},
		{Text: "kubernetes deployment rollout"},
	}))

	results, err := s.KeywordSearch(ctx, "redis cache", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Positive(t, results[0].Score)

	// Chunks added after the index is built are searchable too.
	extra := []Chunk{{Text: "grpc streaming backpressure"}}
	require.NoError(t, s.Add(ctx, extra))

	results, err = s.KeywordSearch(ctx, "grpc backpressure", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, extra[0].ID, results[0].ChunkID)
}

func TestRefreshChunk(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, Options{})

	chunks := []Chunk{{Text: "refresh target chunk"}}
	require.NoError(t, s.Add(ctx, chunks))

	ok, err := s.RefreshChunk(ctx, "refresh target")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RefreshChunk(ctx, "refresh target")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, []int64{chunks[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].AccessCount)
	assert.NotZero(t, got[0].LastAccessed)

	ok, err = s.RefreshChunk(ctx, "no such prefix")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.RefreshChunk(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArchiveChunk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "archive.jsonl")

	s, err := Open(filepath.Join(dir, "vector"), Options{Dimensions: 3, ArchiveLogPath: logPath}, nil)
	require.NoError(t, err)
	defer s.Close()

	chunks := []Chunk{
		{Text: "obsolete migration notes", Source: "docs/old.md", Vector: []float32{1, 0, 0}},
		{Text: "current runbook", Source: "docs/run.md", Vector: []float32{0, 1, 0}},
	}
	require.NoError(t, s.Add(ctx, chunks))

	ok, err := s.ArchiveChunk(ctx, "obsolete migration")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.Get(ctx, []int64{chunks[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Archived())

	// Archived chunks disappear from both retrieval legs.
	vres, err := s.VectorSearch(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	for _, r := range vres {
		assert.NotEqual(t, chunks[0].ID, r.ChunkID)
	}
	kres, err := s.KeywordSearch(ctx, "obsolete migration", 5)
	require.NoError(t, err)
	for _, r := range kres {
		assert.NotEqual(t, chunks[0].ID, r.ChunkID)
	}

	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()
	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var rec archiveRecord
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
	assert.Equal(t, chunks[0].ID, rec.ChunkID)
	assert.Equal(t, "docs/old.md", rec.Source)
	assert.Contains(t, rec.Text, "obsolete")
}

func TestBatchRescoreDecay(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, Options{StaleThreshold: 0.05})

	old := time.Now().AddDate(0, -6, 0).Unix()
	require.NoError(t, s.Add(ctx, []Chunk{
		{Text: "fresh and popular", LastAccessed: time.Now().Unix()},
		{Text: "stale and forgotten", Timestamp: old, LastAccessed: old},
	}))

	stats, err := s.BatchRescoreDecay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Rescored)
	assert.Equal(t, 1, stats.Stale)
	assert.Less(t, stats.MinScore, stats.MaxScore)

	report, err := s.DecayReport(ctx, 1)
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, "stale and forgotten", report[0].Text)
}

func TestDecayScore(t *testing.T) {
	now := time.Now()

	fresh := &Chunk{Timestamp: now.Unix(), AccessCount: 10}
	old := &Chunk{Timestamp: now.AddDate(0, 0, -30).Unix(), AccessCount: 10}
	assert.Greater(t, DecayScore(fresh, now), DecayScore(old, now))

	// No stamps at all counts as fresh.
	blank := &Chunk{}
	assert.InDelta(t, minAccessFactor, DecayScore(blank, now), 1e-9)

	// Access counts boost, floored at the minimum factor.
	untouched := &Chunk{Timestamp: now.Unix()}
	popular := &Chunk{Timestamp: now.Unix(), AccessCount: 100}
	assert.InDelta(t, minAccessFactor, DecayScore(untouched, now), 1e-9)
	assert.Greater(t, DecayScore(popular, now), DecayScore(untouched, now))
}

func TestDecayScoreV2HalfLife(t *testing.T) {
	now := time.Now()
	c := &Chunk{Timestamp: now.AddDate(0, 0, -30).Unix()}

	// At exactly one half-life the decay factor is 0.5.
	got := DecayScoreV2(c, 1.0, 30, now)
	assert.InDelta(t, 0.5, got, 0.01)

	// Importance scales linearly.
	assert.InDelta(t, got*2, DecayScoreV2(c, 2.0, 30, now), 0.01)

	// Non-positive half-life falls back to 30 days.
	assert.InDelta(t, got, DecayScoreV2(c, 1.0, 0, now), 1e-9)
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0.25, -1.5, 3.75}
	assert.Equal(t, v, decodeVector(encodeVector(v)))
	assert.Nil(t, encodeVector(nil))
	assert.Nil(t, decodeVector(nil))
}

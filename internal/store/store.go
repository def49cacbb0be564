package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// tableName is the canonical chunk table. An earlier *_rebuild table name
// existed only as a migration artifact and is not recognized.
const tableName = "knowledge_chunks_cloud"

const schema = `
CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	text          TEXT    NOT NULL,
	vector        BLOB,
	source        TEXT    NOT NULL DEFAULT '',
	timestamp     INTEGER NOT NULL DEFAULT 0,
	metadata      TEXT    NOT NULL DEFAULT '{}',
	last_accessed INTEGER NOT NULL DEFAULT 0,
	access_count  INTEGER NOT NULL DEFAULT 0,
	decay_score   REAL    NOT NULL DEFAULT 1.0
);
CREATE INDEX IF NOT EXISTS idx_chunks_decay ON ` + tableName + ` (decay_score);
`

// Store owns the chunk table plus both retrieval indexes. Writers are
// serialized; readers run concurrently.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	vec    *vectorIndex
	opts   Options
	dir    string
	logger *slog.Logger

	// bm25 is nil until the first keyword search builds it.
	bm25Mu sync.Mutex
	bm25   *bm25Index
}

// Open opens (or creates) the store under dir.
func Open(dir string, opts Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HalfLifeDays == 0 {
		opts.HalfLifeDays = DefaultOptions().HalfLifeDays
	}
	if opts.StaleThreshold == 0 {
		opts.StaleThreshold = DefaultOptions().StaleThreshold
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	dsn := filepath.Join(dir, "chunks.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open chunk table: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{
		db:     db,
		vec:    newVectorIndex(opts.Dimensions),
		opts:   opts,
		dir:    dir,
		logger: logger,
	}

	indexPath := s.vectorIndexPath()
	if _, err := os.Stat(indexPath + ".meta"); err == nil {
		if err := s.vec.load(indexPath); err != nil {
			// A stale or corrupt graph is rebuilt from the table.
			logger.Warn("vector index load failed, rebuilding",
				slog.String("path", indexPath),
				slog.String("error", err.Error()))
			s.vec = newVectorIndex(opts.Dimensions)
			if err := s.rebuildVectorIndex(context.Background()); err != nil {
				db.Close()
				return nil, err
			}
		}
	} else if err := s.rebuildVectorIndex(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) vectorIndexPath() string { return filepath.Join(s.dir, "vectors.hnsw") }

// Add appends chunks. Sources are normalized to forward slashes; missing
// timestamps default to now. Chunk IDs are assigned by the table.
func (s *Store) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+tableName+`
		(text, vector, source, timestamp, metadata, last_accessed, access_count, decay_score)
		VALUES (?, ?, ?, ?, ?, ?, 0, 1.0)`)
	if err != nil {
		return fmt.Errorf("prepare add: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		c.Source = filepath.ToSlash(c.Source)
		if c.Timestamp == 0 {
			c.Timestamp = now
		}
		metadata := c.Metadata
		if metadata == "" {
			metadata = "{}"
		}

		res, err := stmt.ExecContext(ctx, c.Text, encodeVector(c.Vector), c.Source,
			c.Timestamp, metadata, c.LastAccessed)
		if err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("chunk id: %w", err)
		}
		c.ID = id

		if len(c.Vector) > 0 {
			ids = append(ids, id)
			vectors = append(vectors, c.Vector)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add: %w", err)
	}

	if len(ids) > 0 {
		if err := s.vec.add(ids, vectors); err != nil {
			return fmt.Errorf("index vectors: %w", err)
		}
		if err := s.vec.save(s.vectorIndexPath()); err != nil {
			s.logger.Warn("vector index save failed", slog.String("error", err.Error()))
		}
	}

	// Keep the keyword index in sync once it exists.
	s.bm25Mu.Lock()
	if s.bm25 != nil {
		if err := s.bm25.indexChunks(chunks); err != nil {
			s.logger.Warn("bm25 incremental index failed", slog.String("error", err.Error()))
		}
	}
	s.bm25Mu.Unlock()

	return nil
}

// Count returns the number of chunks, archived included.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableName).Scan(&n)
	return n, err
}

// Get fetches chunks by id, preserving input order. Unknown ids are
// silently skipped.
func (s *Store) Get(ctx context.Context, ids []int64) ([]Chunk, error) {
	chunks := make([]Chunk, 0, len(ids))
	for _, id := range ids {
		c, err := s.getOne(ctx, id)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func (s *Store) getOne(ctx context.Context, id int64) (Chunk, error) {
	var c Chunk
	var vec []byte
	err := s.db.QueryRowContext(ctx, `SELECT id, text, vector, source, timestamp,
		metadata, last_accessed, access_count, decay_score
		FROM `+tableName+` WHERE id = ?`, id).
		Scan(&c.ID, &c.Text, &vec, &c.Source, &c.Timestamp, &c.Metadata,
			&c.LastAccessed, &c.AccessCount, &c.DecayScore)
	if err != nil {
		return Chunk{}, err
	}
	c.Vector = decodeVector(vec)
	return c, nil
}

// VectorSearch returns the k nearest non-archived chunks.
func (s *Store) VectorSearch(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	results, err := s.vec.search(query, k)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// KeywordSearch runs BM25 over chunk text, building the index on first
// use. Creation is idempotent.
func (s *Store) KeywordSearch(ctx context.Context, query string, k int) ([]KeywordResult, error) {
	idx, err := s.ensureBM25(ctx)
	if err != nil {
		return nil, err
	}
	return idx.search(ctx, query, k)
}

func (s *Store) ensureBM25(ctx context.Context) (*bm25Index, error) {
	s.bm25Mu.Lock()
	defer s.bm25Mu.Unlock()

	if s.bm25 != nil {
		return s.bm25, nil
	}

	idx, err := newBM25Index()
	if err != nil {
		return nil, err
	}

	chunks, err := s.allChunks(ctx, false)
	if err != nil {
		idx.close()
		return nil, err
	}
	if err := idx.indexChunks(chunks); err != nil {
		idx.close()
		return nil, err
	}

	s.logger.Debug("bm25 index built", slog.Int("chunks", len(chunks)))
	s.bm25 = idx
	return idx, nil
}

// allChunks loads every chunk; includeArchived controls sentinel rows.
// Vectors are not loaded.
func (s *Store) allChunks(ctx context.Context, includeArchived bool) ([]Chunk, error) {
	q := `SELECT id, text, source, timestamp, metadata, last_accessed, access_count, decay_score
		FROM ` + tableName
	if !includeArchived {
		q += ` WHERE decay_score >= 0`
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Text, &c.Source, &c.Timestamp, &c.Metadata,
			&c.LastAccessed, &c.AccessCount, &c.DecayScore); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DecayReport returns up to limit non-archived chunks, stalest first.
func (s *Store) DecayReport(ctx context.Context, limit int) ([]Chunk, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, source, timestamp, metadata,
		last_accessed, access_count, decay_score
		FROM `+tableName+` WHERE decay_score >= 0
		ORDER BY decay_score ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("decay report: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Text, &c.Source, &c.Timestamp, &c.Metadata,
			&c.LastAccessed, &c.AccessCount, &c.DecayScore); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// RefreshChunk marks the first chunk whose text starts with prefix as
// fresh: last_accessed=now, access_count+1. Returns false when nothing
// matches.
func (s *Store) RefreshChunk(ctx context.Context, prefix string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.firstByPrefix(ctx, prefix)
	if err != nil || !ok {
		return false, err
	}

	_, err = s.db.ExecContext(ctx, `UPDATE `+tableName+`
		SET last_accessed = ?, access_count = access_count + 1
		WHERE id = ?`, time.Now().Unix(), id)
	if err != nil {
		return false, fmt.Errorf("refresh chunk: %w", err)
	}
	return true, nil
}

// archiveRecord is one line in the archive log.
type archiveRecord struct {
	ChunkID    int64  `json:"chunk_id"`
	Text       string `json:"text"`
	Source     string `json:"source"`
	ArchivedAt string `json:"archived_at"`
}

// ArchiveChunk sets the archive sentinel on the first chunk matching
// prefix, removes it from both indexes, and appends a record to the
// archive log.
func (s *Store) ArchiveChunk(ctx context.Context, prefix string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.firstByPrefix(ctx, prefix)
	if err != nil || !ok {
		return false, err
	}

	c, err := s.getOne(ctx, id)
	if err != nil {
		return false, err
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE `+tableName+`
		SET decay_score = ? WHERE id = ?`, ArchivedScore, id); err != nil {
		return false, fmt.Errorf("archive chunk: %w", err)
	}

	s.vec.remove([]int64{id})
	s.bm25Mu.Lock()
	if s.bm25 != nil {
		_ = s.bm25.delete([]int64{id})
	}
	s.bm25Mu.Unlock()

	if s.opts.ArchiveLogPath != "" {
		rec := archiveRecord{
			ChunkID:    id,
			Text:       truncate(c.Text, 200),
			Source:     c.Source,
			ArchivedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := appendJSONLine(s.opts.ArchiveLogPath, rec); err != nil {
			// The archive itself succeeded; the log is best effort.
			s.logger.Warn("archive log append failed", slog.String("error", err.Error()))
		}
	}

	return true, nil
}

// firstByPrefix returns the id of the first non-archived chunk whose text
// starts with prefix.
func (s *Store) firstByPrefix(ctx context.Context, prefix string) (int64, bool, error) {
	if prefix == "" {
		return 0, false, nil
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM `+tableName+`
		WHERE decay_score >= 0 AND text LIKE ? || '%'
		ORDER BY id LIMIT 1`, prefix).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("prefix lookup: %w", err)
	}
	return id, true, nil
}

// BatchRescoreDecay recomputes every non-archived chunk's decay score and
// rewrites the table rows under the writer lock.
func (s *Store) BatchRescoreDecay(ctx context.Context) (RescoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, err := s.allChunks(ctx, false)
	if err != nil {
		return RescoreStats{}, err
	}

	now := time.Now()
	stats := RescoreStats{Total: len(chunks), MinScore: math.Inf(1), MaxScore: math.Inf(-1)}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RescoreStats{}, fmt.Errorf("begin rescore: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE `+tableName+` SET decay_score = ? WHERE id = ?`)
	if err != nil {
		return RescoreStats{}, fmt.Errorf("prepare rescore: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		score := DecayScore(&chunks[i], now)
		if _, err := stmt.ExecContext(ctx, score, chunks[i].ID); err != nil {
			return RescoreStats{}, fmt.Errorf("rescore chunk %d: %w", chunks[i].ID, err)
		}
		stats.Rescored++
		if score < s.opts.StaleThreshold {
			stats.Stale++
		}
		if score < stats.MinScore {
			stats.MinScore = score
		}
		if score > stats.MaxScore {
			stats.MaxScore = score
		}
	}

	if err := tx.Commit(); err != nil {
		return RescoreStats{}, fmt.Errorf("commit rescore: %w", err)
	}

	if stats.Rescored == 0 {
		stats.MinScore, stats.MaxScore = 0, 0
	}

	var archived int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableName+`
		WHERE decay_score < 0`).Scan(&archived); err == nil {
		stats.Archived = archived
	}

	return stats, nil
}

// rebuildVectorIndex reconstructs the HNSW graph from stored vectors.
func (s *Store) rebuildVectorIndex(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, vector FROM `+tableName+`
		WHERE decay_score >= 0 AND vector IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("rebuild vector index: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var vectors [][]float32
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}
		vec := decodeVector(blob)
		if len(vec) == 0 {
			continue
		}
		ids = append(ids, id)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return s.vec.add(ids, vectors)
}

// Close flushes the vector index and closes the table.
func (s *Store) Close() error {
	if s.vec.count() > 0 {
		if err := s.vec.save(s.vectorIndexPath()); err != nil {
			s.logger.Warn("vector index save on close failed", slog.String("error", err.Error()))
		}
	}
	s.bm25Mu.Lock()
	if s.bm25 != nil {
		_ = s.bm25.close()
		s.bm25 = nil
	}
	s.bm25Mu.Unlock()
	return s.db.Close()
}

// encodeVector packs float32s little-endian; nil stays nil.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// appendJSONLine appends one JSON object per line, creating parents as
// needed.
func appendJSONLine(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(data, '\n'))
	return err
}

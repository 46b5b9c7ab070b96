// Package sqlite implements the persistent vector store. The db path is an
// opaque directory owned by this package; inside it lives a single SQLite
// database holding chunk text, metadata and embeddings. Similarity search is
// brute-force cosine over all stored vectors, which is plenty for a
// single-machine corpus of transcripts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"cvector/internal/domain"
	"cvector/internal/vectorstore"
)

const dbFileName = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id     TEXT PRIMARY KEY,
	source_id    TEXT NOT NULL,
	source_path  TEXT NOT NULL,
	seq          INTEGER NOT NULL,
	text         TEXT NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	start_time   REAL,
	end_time     REAL,
	has_times    INTEGER NOT NULL DEFAULT 0,
	language     TEXT,
	embedding    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_source_path ON chunks(source_path);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is a SQLite-backed domain.VectorStore.
type Store struct {
	db   *sql.DB
	path string
}

var _ domain.VectorStore = (*Store)(nil)

// Open creates the db directory if needed and opens (or initializes) the
// index database inside it.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", domain.ErrStoreUnavailable, dbPath, err)
	}
	file := filepath.Join(dbPath, dbFileName)
	db, err := sql.Open("sqlite3", file+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrStoreUnavailable, file, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: initializing schema: %v", domain.ErrStoreUnavailable, err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Upsert writes one record per chunk, keyed by chunk id. Re-upserting an
// existing id overwrites the record in place. The whole batch is applied in
// one transaction, so a failure leaves no partial writes.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) (domain.UpsertResult, error) {
	var res domain.UpsertResult
	if len(chunks) != len(vectors) {
		return res, fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidQuery, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return res, nil
	}

	dim, err := s.dimension(ctx)
	if err != nil {
		return res, err
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return res, fmt.Errorf("%w: empty vector for chunk %s", domain.ErrDimensionMismatch, chunks[i].ID)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return res, fmt.Errorf("%w: chunk %s has dimension %d, store expects %d", domain.ErrDimensionMismatch, chunks[i].ID, len(v), dim)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("%w: begin upsert: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('dimension', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprint(dim)); err != nil {
		return res, fmt.Errorf("%w: recording dimension: %v", domain.ErrStoreUnavailable, err)
	}

	existsStmt, err := tx.PrepareContext(ctx, `SELECT 1 FROM chunks WHERE chunk_id = ?`)
	if err != nil {
		return res, fmt.Errorf("%w: preparing upsert: %v", domain.ErrStoreUnavailable, err)
	}
	defer existsStmt.Close()

	upsertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, source_id, source_path, seq, text,
			start_offset, end_offset, start_time, end_time, has_times, language, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			source_id = excluded.source_id,
			source_path = excluded.source_path,
			seq = excluded.seq,
			text = excluded.text,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			has_times = excluded.has_times,
			language = excluded.language,
			embedding = excluded.embedding`)
	if err != nil {
		return res, fmt.Errorf("%w: preparing upsert: %v", domain.ErrStoreUnavailable, err)
	}
	defer upsertStmt.Close()

	for i, ch := range chunks {
		var one int
		err := existsStmt.QueryRowContext(ctx, ch.ID).Scan(&one)
		switch {
		case err == sql.ErrNoRows:
			res.Inserted++
		case err != nil:
			return domain.UpsertResult{}, fmt.Errorf("%w: checking chunk %s: %v", domain.ErrStoreUnavailable, ch.ID, err)
		default:
			res.Updated++
		}

		hasTimes := 0
		if ch.HasTimes {
			hasTimes = 1
		}
		if _, err := upsertStmt.ExecContext(ctx,
			ch.ID, ch.SourceID, ch.SourcePath, ch.Index, ch.Text,
			ch.StartOffset, ch.EndOffset, ch.StartTime, ch.EndTime, hasTimes,
			ch.Language, encodeVector(vectors[i])); err != nil {
			return domain.UpsertResult{}, fmt.Errorf("%w: writing chunk %s: %v", domain.ErrStoreUnavailable, ch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("%w: committing upsert: %v", domain.ErrStoreUnavailable, err)
	}
	return res, nil
}

// Query scans all stored vectors, scores them with cosine similarity and
// returns the topK best, ordered by descending score with ascending chunk id
// as the tie break.
func (s *Store) Query(ctx context.Context, vector []float64, topK int) ([]domain.RetrievalResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k %d must be >= 1", domain.ErrInvalidQuery, topK)
	}
	dim, err := s.dimension(ctx)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		return nil, nil // empty store
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query vector has dimension %d, store expects %d", domain.ErrDimensionMismatch, len(vector), dim)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, source_path, seq, text, start_time, end_time, embedding
		FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning chunks: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var results []domain.RetrievalResult
	for rows.Next() {
		var r domain.RetrievalResult
		var blob []byte
		var startTime, endTime sql.NullFloat64
		if err := rows.Scan(&r.ChunkID, &r.SourcePath, &r.Index, &r.Text, &startTime, &endTime, &blob); err != nil {
			return nil, fmt.Errorf("%w: reading chunk row: %v", domain.ErrStoreUnavailable, err)
		}
		r.StartTime = startTime.Float64
		r.EndTime = endTime.Float64
		r.Score = vectorstore.Cosine(vector, decodeVector(blob))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading chunk rows: %v", domain.ErrStoreUnavailable, err)
	}
	return vectorstore.Rank(results, topK), nil
}

// Stats reports the chunk count, distinct source files and on-disk size of
// the index.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&stats.TotalChunks); err != nil {
		return stats, fmt.Errorf("%w: counting chunks: %v", domain.ErrStoreUnavailable, err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT source_path FROM chunks ORDER BY source_path`)
	if err != nil {
		return stats, fmt.Errorf("%w: listing source files: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return stats, fmt.Errorf("%w: reading source file: %v", domain.ErrStoreUnavailable, err)
		}
		stats.Files = append(stats.Files, p)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("%w: listing source files: %v", domain.ErrStoreUnavailable, err)
	}
	stats.TotalSourceFiles = len(stats.Files)
	stats.StorageBytes = s.storageBytes()
	return stats, nil
}

// Clear irreversibly deletes all persisted records. Clearing an empty store
// succeeds.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin clear: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("%w: clearing chunks: %v", domain.ErrStoreUnavailable, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meta WHERE key = 'dimension'`); err != nil {
		return fmt.Errorf("%w: clearing metadata: %v", domain.ErrStoreUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing clear: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// dimension returns the recorded embedding dimensionality, or zero for an
// empty store.
func (s *Store) dimension(ctx context.Context) (int, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'dimension'`).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("%w: reading dimension: %v", domain.ErrStoreUnavailable, err)
	}
	var dim int
	if _, err := fmt.Sscanf(value, "%d", &dim); err != nil {
		return 0, fmt.Errorf("%w: corrupt dimension %q", domain.ErrStoreUnavailable, value)
	}
	return dim, nil
}

func (s *Store) storageBytes() int64 {
	var total int64
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return 0
	}
	for _, e := range entries {
		if info, err := e.Info(); err == nil && !info.IsDir() {
			total += info.Size()
		}
	}
	return total
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float64 {
	v := make([]float64, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return v
}

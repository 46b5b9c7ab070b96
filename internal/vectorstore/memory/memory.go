// Package memory implements an in-memory vector store with the same
// contract as the persistent one. It backs unit tests and throwaway runs
// where nothing should touch disk.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cvector/internal/domain"
	"cvector/internal/vectorstore"
)

type record struct {
	chunk  domain.Chunk
	vector []float64
}

// Store keeps records in a map keyed by chunk id, guarded by a RWMutex so
// concurrent upserts from parallel ingestion pipelines are safe.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]record
}

var _ domain.VectorStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]record)}
}

// Upsert writes one record per chunk keyed by chunk id; existing ids are
// overwritten in place. Dimensionality is validated for the whole batch
// before anything is written.
func (s *Store) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float64) (domain.UpsertResult, error) {
	var res domain.UpsertResult
	if len(chunks) != len(vectors) {
		return res, fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidQuery, len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
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
	s.dimension = dim

	for i, ch := range chunks {
		if _, ok := s.records[ch.ID]; ok {
			res.Updated++
		} else {
			res.Inserted++
		}
		s.records[ch.ID] = record{chunk: ch, vector: vectors[i]}
	}
	return res, nil
}

// Query scores every record with cosine similarity and returns the topK best.
func (s *Store) Query(_ context.Context, vector []float64, topK int) ([]domain.RetrievalResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k %d must be >= 1", domain.ErrInvalidQuery, topK)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, store expects %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	results := make([]domain.RetrievalResult, 0, len(s.records))
	for _, rec := range s.records {
		results = append(results, domain.RetrievalResult{
			ChunkID:    rec.chunk.ID,
			Score:      vectorstore.Cosine(vector, rec.vector),
			Text:       rec.chunk.Text,
			SourcePath: rec.chunk.SourcePath,
			Index:      rec.chunk.Index,
			StartTime:  rec.chunk.StartTime,
			EndTime:    rec.chunk.EndTime,
		})
	}
	return vectorstore.Rank(results, topK), nil
}

// Stats reports chunk and source counts. StorageBytes approximates the text
// payload held in memory.
func (s *Store) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := domain.StoreStats{TotalChunks: len(s.records)}
	seen := make(map[string]struct{})
	for _, rec := range s.records {
		stats.StorageBytes += int64(len(rec.chunk.Text) + 8*len(rec.vector))
		if _, ok := seen[rec.chunk.SourcePath]; !ok {
			seen[rec.chunk.SourcePath] = struct{}{}
			stats.Files = append(stats.Files, rec.chunk.SourcePath)
		}
	}
	sort.Strings(stats.Files)
	stats.TotalSourceFiles = len(stats.Files)
	return stats, nil
}

// Clear drops every record. Clearing an empty store succeeds.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]record)
	s.dimension = 0
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvector/internal/domain"
)

func TestUpsertAndQuery(t *testing.T) {
	s := New()
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "a:0", SourceID: "a", SourcePath: "/a.mp3", Text: "alpha"},
		{ID: "a:1", SourceID: "a", SourcePath: "/a.mp3", Text: "beta", Index: 1},
	}
	res, err := s.Upsert(ctx, chunks, [][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertResult{Inserted: 2}, res)

	res, err = s.Upsert(ctx, chunks[:1], [][]float64{{1, 0}})
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertResult{Updated: 1}, res)

	results, err := s.Query(ctx, []float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a:0", results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestDimensionGuard(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Upsert(ctx, []domain.Chunk{{ID: "a:0"}}, [][]float64{{1, 0, 0}})
	require.NoError(t, err)

	_, err = s.Upsert(ctx, []domain.Chunk{{ID: "b:0"}}, [][]float64{{1}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = s.Query(ctx, []float64{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChunks)
}

func TestClear(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Upsert(ctx, []domain.Chunk{{ID: "a:0", SourcePath: "/a.mp3", Text: "x"}}, [][]float64{{1, 0}})
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChunks)

	_, err = s.Query(ctx, []float64{1, 0}, 5)
	require.NoError(t, err)
}

func TestInvalidTopK(t *testing.T) {
	s := New()
	_, err := s.Query(context.Background(), []float64{1}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

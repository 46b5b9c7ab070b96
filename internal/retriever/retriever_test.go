package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvector/internal/domain"
	"cvector/internal/vectorstore/memory"
)

type fixedEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[text], nil
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	store := memory.New()
	_, err := store.Upsert(context.Background(), []domain.Chunk{
		{ID: "a:0", SourcePath: "/m/a.mp4", Text: "about risk"},
		{ID: "b:0", SourcePath: "/m/b.mp4", Text: "about cooking"},
	}, [][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)

	emb := &fixedEmbedder{vectors: map[string][]float64{"what about risk?": {1, 0.1}}}
	r := New(emb, store)

	results, err := r.Retrieve(context.Background(), "what about risk?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a:0", results[0].ChunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRetrieveEmptyStore(t *testing.T) {
	r := New(&fixedEmbedder{vectors: map[string][]float64{"q": {1, 0}}}, memory.New())

	results, err := r.Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	r := New(&fixedEmbedder{err: errors.New("endpoint down")}, memory.New())

	_, err := r.Retrieve(context.Background(), "q", 5)
	assert.ErrorContains(t, err, "embedding question")
}

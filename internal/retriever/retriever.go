// Package retriever turns a question into ranked context chunks.
package retriever

import (
	"context"
	"fmt"

	"cvector/internal/domain"
)

// Retriever embeds questions with the same embedder used at ingestion and
// delegates ranking to the vector store. Using any other embedder would make
// similarity scores meaningless; the store rejects mismatched dimensionality.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
}

// New creates a retriever over the given embedder and store.
func New(embedder domain.Embedder, store domain.VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve returns the topK stored chunks most similar to the question,
// ordered by descending similarity.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]domain.RetrievalResult, error) {
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	return r.store.Query(ctx, vector, topK)
}

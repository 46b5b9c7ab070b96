// Package vectorstore holds the similarity math and result ranking shared by
// the store implementations. The store contract itself is domain.VectorStore.
package vectorstore

import (
	"math"
	"sort"

	"cvector/internal/domain"
)

// Cosine returns the cosine similarity of two equal-length vectors.
// Zero vectors score zero.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank orders results by descending score, breaking ties by ascending chunk
// id so repeated queries are deterministic, and truncates to topK.
func Rank(results []domain.RetrievalResult, topK int) []domain.RetrievalResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results
}

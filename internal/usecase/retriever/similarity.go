package retriever

import (
	"math"
	"slices"

	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
)

// Similarity returns the cosine similarity of a and b.
// Components missing from the shorter vector count as 0; a zero-magnitude vector scores 0.
// The result is clamped to [-1, 1] and a vector scores exactly 1 against itself.
func Similarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i, v := range a {
		x := float64(v)
		normA += x * x
		if i < len(b) {
			dot += x * float64(b[i])
		}
	}
	for _, v := range b {
		y := float64(v)
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	if dot == normA && dot == normB {
		return 1
	}
	return max(-1, min(1, dot/math.Sqrt(normA*normB)))
}

// rank scores every entry against query and returns the best topK.
// Non-finite scores are dropped; equal scores keep index order.
func rank(index catalog.Index, query []float32, topK int) []catalog.ScoredEntry {
	scored := make([]catalog.ScoredEntry, 0, index.Len())
	for _, e := range index.Entries() {
		score := Similarity(query, e.Embedding)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		scored = append(scored, catalog.ScoredEntry{Entry: e, Score: score})
	}

	slices.SortStableFunc(scored, func(a, b catalog.ScoredEntry) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

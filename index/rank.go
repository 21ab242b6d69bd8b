package index

import (
	"fmt"
	"math"
	"sort"

	"casebrief-backend/models"
)

// CosineSimilarity returns the cosine similarity of two equal-length vectors.
// Unequal lengths are a programming error and fail fast. A zero vector has
// similarity 0 with everything.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}
	return dot / denom, nil
}

// Rank scores every record against the query vector and returns results
// sorted by similarity descending, filtered to minSimilarity, truncated to
// topK. Ties preserve original record order, which callers rely on for
// determinism.
func Rank(query []float64, records []models.EmbeddingRecord, topK int, minSimilarity float64) ([]models.RetrievalResult, error) {
	results := make([]models.RetrievalResult, 0, len(records))
	for _, rec := range records {
		sim, err := CosineSimilarity(query, rec.Vector)
		if err != nil {
			return nil, err
		}
		if sim < minSimilarity {
			continue
		}
		results = append(results, models.RetrievalResult{
			ChunkID:      rec.ChunkID,
			OriginFile:   rec.OriginFile,
			CategoryTag:  rec.CategoryTag,
			PageEstimate: rec.PageEstimate,
			Text:         rec.Text,
			Similarity:   sim,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if topK >= 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// RankByCategory ranks only records carrying the given category tag. When no
// record matches the tag the result is empty, not an error; callers fall back
// to the unfiltered case.
func RankByCategory(query []float64, records []models.EmbeddingRecord, tag string, topK int, minSimilarity float64) ([]models.RetrievalResult, error) {
	var scoped []models.EmbeddingRecord
	for _, rec := range records {
		if rec.CategoryTag == tag {
			scoped = append(scoped, rec)
		}
	}
	if len(scoped) == 0 {
		return nil, nil
	}
	return Rank(query, scoped, topK, minSimilarity)
}

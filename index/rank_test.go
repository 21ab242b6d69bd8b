package index

import (
	"testing"

	"casebrief-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float64{0.3, 0.8, 0.1}
	b := []float64{0.5, 0.2, 0.9}

	ab, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	ba, err := CosineSimilarity(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	a := []float64{0.3, 0.8, 0.1}

	sim, err := CosineSimilarity(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-12)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	sim, err := CosineSimilarity([]float64{0, 0, 0}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosineSimilarity_LengthMismatchFailsFast(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
	assert.Error(t, err)
}

func records() []models.EmbeddingRecord {
	return []models.EmbeddingRecord{
		{ChunkID: "a#0", OriginFile: "a.txt", CategoryTag: "switzerland", Vector: []float64{1, 0}, Text: "alpha"},
		{ChunkID: "b#0", OriginFile: "b.txt", CategoryTag: "germany", Vector: []float64{0, 1}, Text: "beta"},
		{ChunkID: "c#0", OriginFile: "c.txt", CategoryTag: "switzerland", Vector: []float64{1, 1}, Text: "gamma"},
		{ChunkID: "d#0", OriginFile: "d.txt", CategoryTag: "germany", Vector: []float64{1, 0}, Text: "delta"},
	}
}

func TestRank_SortedAndFiltered(t *testing.T) {
	results, err := Rank([]float64{1, 0}, records(), -1, 0.5)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Similarity, 0.5)
	}
	// The orthogonal record is filtered out.
	for _, r := range results {
		assert.NotEqual(t, "b#0", r.ChunkID)
	}
}

func TestRank_TopKTruncation(t *testing.T) {
	results, err := Rank([]float64{1, 0}, records(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = Rank([]float64{1, 0}, records(), 100, 0)
	require.NoError(t, err)
	assert.Len(t, results, 4, "topK larger than the record set returns everything")
}

func TestRank_TiesPreserveRecordOrder(t *testing.T) {
	// a#0 and d#0 both score 1.0 against the query; a#0 comes first in the
	// record set and must stay first.
	results, err := Rank([]float64{1, 0}, records(), -1, 0.99)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a#0", results[0].ChunkID)
	assert.Equal(t, "d#0", results[1].ChunkID)
}

func TestRankByCategory_ScopesToTag(t *testing.T) {
	results, err := RankByCategory([]float64{1, 0}, records(), "switzerland", -1, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "switzerland", r.CategoryTag)
	}
}

func TestRankByCategory_UnknownTagIsEmptyNotError(t *testing.T) {
	results, err := RankByCategory([]float64{1, 0}, records(), "france", -1, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

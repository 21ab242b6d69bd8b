package index

import (
	"strings"
	"testing"

	"casebrief-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildEvidenceBlock_EmptyProducesMarker(t *testing.T) {
	assert.Equal(t, NoEvidenceMarker, BuildEvidenceBlock(nil, 5))
	assert.Equal(t, NoEvidenceMarker, BuildEvidenceBlock([]models.RetrievalResult{}, 5))
}

func TestBuildEvidenceBlock_FormatsProvenance(t *testing.T) {
	results := []models.RetrievalResult{
		{OriginFile: "asylum_act.pdf", PageEstimate: 3, Similarity: 0.91, Text: "Article 5 text."},
		{OriginFile: "handbook.txt", PageEstimate: 1, Similarity: 0.72, Text: "Guidance text."},
	}

	block := BuildEvidenceBlock(results, 5)

	assert.Contains(t, block, "[SOURCE: asylum_act.pdf | page ~3 | similarity 0.91]")
	assert.Contains(t, block, "Article 5 text.")
	assert.Contains(t, block, "[SOURCE: handbook.txt | page ~1 | similarity 0.72]")
	assert.Contains(t, block, "Guidance text.")

	// Results stay in ranked order.
	assert.Less(t, strings.Index(block, "asylum_act.pdf"), strings.Index(block, "handbook.txt"))
}

func TestBuildEvidenceBlock_CapsToMax(t *testing.T) {
	results := []models.RetrievalResult{
		{OriginFile: "one.txt", Similarity: 0.9, Text: "first"},
		{OriginFile: "two.txt", Similarity: 0.8, Text: "second"},
		{OriginFile: "three.txt", Similarity: 0.7, Text: "third"},
	}

	block := BuildEvidenceBlock(results, 2)

	assert.Contains(t, block, "first")
	assert.Contains(t, block, "second")
	assert.NotContains(t, block, "third")
}

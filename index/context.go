package index

import (
	"fmt"
	"strings"

	"casebrief-backend/models"
)

// NoEvidenceMarker is emitted instead of an empty block so downstream
// generation can distinguish "no evidence found" from "evidence present but
// empty".
const NoEvidenceMarker = "[NO RELEVANT SOURCE MATERIAL FOUND]"

const evidenceSeparator = "\n---\n"

// BuildEvidenceBlock formats ranked retrieval results into one bounded
// evidence block for generation prompts. Results are emitted in the order
// given, up to max entries.
func BuildEvidenceBlock(results []models.RetrievalResult, max int) string {
	if len(results) == 0 {
		return NoEvidenceMarker
	}
	if max > 0 && max < len(results) {
		results = results[:max]
	}

	var builder strings.Builder
	for i, r := range results {
		if i > 0 {
			builder.WriteString(evidenceSeparator)
		}
		builder.WriteString(fmt.Sprintf("[SOURCE: %s | page ~%d | similarity %.2f]\n", r.OriginFile, r.PageEstimate, r.Similarity))
		builder.WriteString(r.Text)
	}
	return builder.String()
}

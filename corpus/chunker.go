package corpus

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"casebrief-backend/models"
)

// DefaultChunkSize and DefaultChunkOverlap are the corpus processing defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// UnknownCategoryTag is assigned to files directly at the corpus root.
const UnknownCategoryTag = "unknown"

// SplitText splits text into segments of at most size characters, each
// segment after the first starting size-overlap characters past the previous
// segment's start. The final segment may be shorter than size. Empty text
// yields zero segments. overlap >= size is a configuration error.
// Size and overlap count runes, not bytes, so multibyte text never splits
// mid-character.
func SplitText(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got size=%d overlap=%d", size, overlap)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	stride := size - overlap
	var segments []string
	for start := 0; start < len(runes); start += stride {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments, nil
}

// ChunkDocument splits an extracted document into provenance-tagged chunks.
// Chunk ids are deterministic ("path#ordinal") so cached embedding records
// rejoin recomputed chunks across restarts.
func ChunkDocument(doc Document, size, overlap int) ([]models.Chunk, error) {
	segments, err := SplitText(doc.Text, size, overlap)
	if err != nil {
		return nil, err
	}

	tag := CategoryTag(doc.Path)
	stride := size - overlap
	totalChars := utf8.RuneCountInString(doc.Text)

	chunks := make([]models.Chunk, 0, len(segments))
	for i, segment := range segments {
		chunks = append(chunks, models.Chunk{
			ID:           fmt.Sprintf("%s#%d", doc.Path, i),
			OriginFile:   doc.Name,
			OriginPath:   doc.Path,
			CategoryTag:  tag,
			PageEstimate: PageEstimate(i*stride, totalChars, doc.UnitCount),
			Ordinal:      i,
			Text:         segment,
		})
	}
	return chunks, nil
}

// ChunkAll chunks every document. A size/overlap misconfiguration fails the
// whole call; it is not a per-document condition.
func ChunkAll(docs []Document, size, overlap int) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, doc := range docs {
		cs, err := ChunkDocument(doc, size, overlap)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, cs...)
	}
	return chunks, nil
}

// CategoryTag derives the provenance tag from the first path segment relative
// to the corpus root. Files directly at the root get the unknown tag.
func CategoryTag(relPath string) string {
	relPath = filepathToSlash(relPath)
	idx := strings.Index(relPath, "/")
	if idx <= 0 {
		return UnknownCategoryTag
	}
	return relPath[:idx]
}

// PageEstimate maps a character offset to an approximate page number, floored
// at 1. Best-effort only: it assumes characters distribute evenly over units.
func PageEstimate(charOffset, totalChars, totalUnits int) int {
	if totalChars <= 0 || totalUnits <= 0 {
		return 1
	}
	charsPerUnit := float64(totalChars) / float64(totalUnits)
	page := int(math.Ceil(float64(charOffset) / charsPerUnit))
	if page < 1 {
		page = 1
	}
	if page > totalUnits {
		page = totalUnits
	}
	return page
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

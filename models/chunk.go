package models

// Chunk is a bounded, provenance-tagged slice of extracted document text.
// Chunks are created in bulk when the corpus is processed and are immutable;
// a corpus change regenerates all of them.
type Chunk struct {
	ID           string `json:"id"`
	OriginFile   string `json:"origin_file"`
	OriginPath   string `json:"origin_path"`
	CategoryTag  string `json:"category_tag"`
	PageEstimate int    `json:"page_estimate"`
	Ordinal      int    `json:"ordinal"`
	Text         string `json:"text"`
}

// EmbeddingRecord pairs a chunk id with its vector. Chunk text is deliberately
// excluded to keep the persisted cache compact; it is rejoined by id at load
// time.
type EmbeddingRecord struct {
	ChunkID      string    `json:"chunk_id"`
	Vector       []float64 `json:"vector"`
	OriginFile   string    `json:"origin_file"`
	CategoryTag  string    `json:"category_tag"`
	PageEstimate int       `json:"page_estimate"`

	// Text is populated at load time from the live chunk set and is never
	// persisted. Empty when the record's chunk no longer exists.
	Text string `json:"-"`
}

// RetrievalResult is one ranked, query-scoped hit against the index.
type RetrievalResult struct {
	ChunkID      string  `json:"chunk_id"`
	OriginFile   string  `json:"origin_file"`
	CategoryTag  string  `json:"category_tag"`
	PageEstimate int     `json:"page_estimate"`
	Text         string  `json:"text"`
	Similarity   float64 `json:"similarity"`
}

// Package index owns the persisted embedding cache and similarity retrieval
// over it. The in-memory table is read-only after Initialize and safe for
// concurrent readers.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"casebrief-backend/models"
)

// CacheVersion is bumped whenever the persisted schema or the embedding model
// changes incompatibly. A cache with any other version is discarded on load.
const CacheVersion = 1

// DefaultBatchSize matches the embedding API's batch limit.
const DefaultBatchSize = 100

// Embedder is the embedding capability the store depends on. A call embeds
// one batch of document texts and may fail per batch.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
}

// persistedCache is the on-disk cache document.
type persistedCache struct {
	Version    int                      `json:"version"`
	CreatedAt  time.Time                `json:"created_at"`
	Embeddings []models.EmbeddingRecord `json:"embeddings"`
}

// Service holds the chunk table and embedding records for one corpus
// snapshot. Construct with NewService, call Initialize once, then treat as
// immutable.
type Service struct {
	mu          sync.Mutex
	initialized bool

	cachePath string
	embedder  Embedder
	batchSize int

	chunks  map[string]models.Chunk
	records []models.EmbeddingRecord
}

// NewService creates an index service persisting its cache at cachePath.
func NewService(cachePath string, embedder Embedder) *Service {
	return &Service{
		cachePath: cachePath,
		embedder:  embedder,
		batchSize: DefaultBatchSize,
	}
}

// Initialize loads the persisted cache if one is usable, otherwise computes
// embeddings for the given chunks and persists them. Calling Initialize again
// after it has succeeded is a no-op: a corpus snapshot is embedded at most
// once.
func (s *Service) Initialize(ctx context.Context, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	s.chunks = make(map[string]models.Chunk, len(chunks))
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}

	if records, ok := s.loadCache(); ok {
		s.records = records
		s.initialized = true
		log.Printf("Embedding cache loaded: %d records", len(records))
		return nil
	}

	records, err := s.computeRecords(ctx, chunks)
	if err != nil {
		return err
	}
	s.records = records

	if err := s.saveCache(records); err != nil {
		// The in-memory table is still usable; the next restart recomputes.
		log.Printf("Warning: failed to persist embedding cache: %v", err)
	}

	s.initialized = true
	return nil
}

// Records returns the embedding records with chunk text rejoined. The
// returned slice must be treated as read-only.
func (s *Service) Records() []models.EmbeddingRecord {
	return s.records
}

// Count returns the number of usable embedding records.
func (s *Service) Count() int {
	return len(s.records)
}

// loadCache deserializes the persisted cache and rejoins record text from the
// live chunk set. Returns ok=false when no usable cache exists; a missing or
// unparsable file is never fatal.
func (s *Service) loadCache() ([]models.EmbeddingRecord, bool) {
	data, err := os.ReadFile(s.cachePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false
	}
	if err != nil {
		log.Printf("Warning: failed to read embedding cache %s: %v", s.cachePath, err)
		return nil, false
	}

	var cache persistedCache
	if err := json.Unmarshal(data, &cache); err != nil {
		log.Printf("Warning: embedding cache %s is unparsable, recomputing: %v", s.cachePath, err)
		return nil, false
	}
	if cache.Version != CacheVersion {
		log.Printf("Warning: embedding cache version %d is incompatible (want %d), recomputing", cache.Version, CacheVersion)
		return nil, false
	}

	orphaned := 0
	records := make([]models.EmbeddingRecord, 0, len(cache.Embeddings))
	for _, rec := range cache.Embeddings {
		if chunk, ok := s.chunks[rec.ChunkID]; ok {
			rec.Text = chunk.Text
		} else {
			// Degraded, non-fatal: the chunk disappeared from the corpus.
			rec.Text = ""
			orphaned++
		}
		records = append(records, rec)
	}
	if orphaned > 0 {
		log.Printf("Warning: %d cached embedding records no longer resolve to a chunk", orphaned)
	}

	return records, true
}

// computeRecords embeds chunks in fixed-size batches. A failed batch is
// logged and skipped; the run completes with partial coverage rather than
// aborting.
func (s *Service) computeRecords(ctx context.Context, chunks []models.Chunk) ([]models.EmbeddingRecord, error) {
	if s.embedder == nil {
		return nil, errors.New("embedder not set")
	}

	records := make([]models.EmbeddingRecord, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			log.Printf("Warning: embedding batch %d-%d failed, continuing: %v", start, end-1, err)
			continue
		}
		if len(vectors) != len(batch) {
			log.Printf("Warning: embedding batch %d-%d returned %d vectors for %d chunks, skipping", start, end-1, len(vectors), len(batch))
			continue
		}

		for i, c := range batch {
			records = append(records, models.EmbeddingRecord{
				ChunkID:      c.ID,
				Vector:       vectors[i],
				OriginFile:   c.OriginFile,
				CategoryTag:  c.CategoryTag,
				PageEstimate: c.PageEstimate,
				Text:         c.Text,
			})
		}
	}

	return records, nil
}

// saveCache persists records through a temp file renamed into place, so a
// crash mid-write never corrupts an existing cache.
func (s *Service) saveCache(records []models.EmbeddingRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.cachePath), "embeddings-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cache := persistedCache{
		Version:    CacheVersion,
		CreatedAt:  time.Now().UTC(),
		Embeddings: records,
	}

	// Encode straight to the file so the serialized cache is never held in
	// memory alongside the record table.
	if err := json.NewEncoder(tmp).Encode(&cache); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode embedding cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.cachePath); err != nil {
		return fmt.Errorf("failed to replace embedding cache: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"casebrief-backend/corpus"
	"casebrief-backend/gemini"
	"casebrief-backend/index"
	"casebrief-backend/storage"

	"github.com/joho/godotenv"
)

// build-index extracts the source corpus, chunks it and computes the
// persisted embedding cache offline, so a server start never pays for a cold
// embedding run. Rerun with -force after a corpus change.
func main() {
	force := flag.Bool("force", false, "discard any existing cache and re-embed the whole corpus")
	chunkSize := flag.Int("chunk-size", corpus.DefaultChunkSize, "chunk size in characters")
	chunkOverlap := flag.Int("chunk-overlap", corpus.DefaultChunkOverlap, "chunk overlap in characters")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	documentsDir := os.Getenv("DOCUMENTS_DIR")
	if documentsDir == "" {
		documentsDir = "./documents"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	cachePath := filepath.Join(dataDir, "embeddings.json")

	if *force {
		if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
			log.Fatalf("Failed to remove existing cache: %v", err)
		}
		log.Println("✓ Discarded existing embedding cache")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY is required to build the index")
	}

	ctx := context.Background()

	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	defer client.Close()

	// Extraction reads local disk. Mirror a remote corpus into the documents
	// directory first, so the built index matches the configured backend.
	docStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if _, ok := docStorage.(*storage.LocalStorage); !ok {
		local, err := storage.NewLocalStorage(documentsDir)
		if err != nil {
			log.Fatalf("Failed to create documents directory: %v", err)
		}
		if err := storage.Sync(ctx, docStorage, local); err != nil {
			log.Fatalf("Failed to sync corpus: %v", err)
		}
		log.Printf("✓ Synced remote corpus into %s", documentsDir)
	}

	extractor := corpus.NewExtractor(documentsDir)
	docs, err := extractor.ExtractAll()
	if err != nil {
		log.Fatalf("Failed to extract corpus: %v", err)
	}
	if len(docs) == 0 {
		log.Fatalf("No documents found under %s", documentsDir)
	}
	log.Printf("✓ Extracted %d documents from %s", len(docs), documentsDir)

	chunks, err := corpus.ChunkAll(docs, *chunkSize, *chunkOverlap)
	if err != nil {
		log.Fatalf("Failed to chunk corpus: %v", err)
	}
	log.Printf("✓ Split corpus into %d chunks", len(chunks))

	indexService := index.NewService(cachePath, client)
	if err := indexService.Initialize(ctx, chunks); err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}

	fmt.Println("\n✅ Embedding index built successfully!")
	fmt.Printf("   Cache: %s\n", cachePath)
	fmt.Printf("   Embeddings: %d of %d chunks\n", indexService.Count(), len(chunks))
}

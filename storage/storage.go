package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrPathEscapes is returned when a document path would resolve outside the
// corpus root.
var ErrPathEscapes = errors.New("document path escapes the corpus root")

// ErrNotFound is returned when no document exists at the given path.
var ErrNotFound = errors.New("document not found")

// Storage serves corpus documents by their path relative to the corpus root.
// Paths keep the category folder structure, so the first segment of a stored
// path doubles as the document's category tag.
type Storage interface {
	// Open retrieves a document by relative path
	Open(ctx context.Context, relPath string) (io.ReadCloser, error)

	// Put stores a document at the given relative path
	Put(ctx context.Context, relPath string, data io.Reader) error

	// Remove deletes a document by relative path
	Remove(ctx context.Context, relPath string) error

	// List returns the relative paths of every stored document
	List(ctx context.Context) ([]string, error)
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Prefix     string // Key prefix within the bucket
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewStorageFromEnv creates a storage instance from environment variables
func NewStorageFromEnv() (Storage, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = "local" // Default to local for development
	}

	cfg := StorageConfig{
		Type: StorageType(storageType),
	}

	switch StorageType(storageType) {
	case StorageTypeLocal:
		localPath := os.Getenv("DOCUMENTS_DIR")
		if localPath == "" {
			localPath = "./documents"
		}
		cfg.LocalPath = localPath
		return NewLocalStorage(cfg.LocalPath)

	case StorageTypeS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Prefix = os.Getenv("AWS_S3_PREFIX")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1" // Default region
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}

		return NewS3Storage(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}

// CleanRelPath normalizes a document path and rejects anything that would
// resolve outside the corpus root: absolute paths, backslash separators, and
// traversal via "..".
func CleanRelPath(relPath string) (string, error) {
	if relPath == "" || strings.Contains(relPath, "\\") {
		return "", ErrPathEscapes
	}

	cleaned := path.Clean("/" + relPath)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrPathEscapes
	}

	return cleaned, nil
}

// ContentType determines the response content type from a document filename
func ContentType(filename string) string {
	switch filepath.Ext(filename) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

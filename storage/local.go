package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorage implements Storage interface for a local corpus directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Open retrieves a document from the local corpus directory
func (s *LocalStorage) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	cleaned, err := CleanRelPath(relPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(cleaned)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, relPath)
		}
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	return file, nil
}

// Put stores a document in the local corpus directory
func (s *LocalStorage) Put(ctx context.Context, relPath string, data io.Reader) error {
	cleaned, err := CleanRelPath(relPath)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleaned))

	// Create the category directory structure
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath) // Clean up on error
		return fmt.Errorf("failed to write document: %w", err)
	}

	return nil
}

// List walks the local corpus directory and returns every document path
// relative to the root, slash-separated.
func (s *LocalStorage) List(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return paths, nil
}

// Remove deletes a document from the local corpus directory
func (s *LocalStorage) Remove(ctx context.Context, relPath string) error {
	cleaned, err := CleanRelPath(relPath)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(s.basePath, filepath.FromSlash(cleaned)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

package storage

import (
	"context"
	"fmt"
)

// Sync mirrors every document from src into dest and removes dest documents
// that no longer exist in src. Extraction and the embedding index read from
// local disk, so a remote corpus gets materialized with Sync before indexing;
// keeping the same relative paths means served document links and chunk ids
// agree across backends.
func Sync(ctx context.Context, src, dest Storage) error {
	srcPaths, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list source documents: %w", err)
	}
	destPaths, err := dest.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list destination documents: %w", err)
	}

	want := make(map[string]bool, len(srcPaths))
	for _, p := range srcPaths {
		want[p] = true
	}
	for _, p := range destPaths {
		if want[p] {
			continue
		}
		if err := dest.Remove(ctx, p); err != nil {
			return fmt.Errorf("failed to remove stale document %s: %w", p, err)
		}
	}

	for _, p := range srcPaths {
		reader, err := src.Open(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to open source document %s: %w", p, err)
		}
		err = dest.Put(ctx, p, reader)
		reader.Close()
		if err != nil {
			return fmt.Errorf("failed to copy document %s: %w", p, err)
		}
	}

	return nil
}

package corpus

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is the extracted text of one source file plus the unit count
// (page count for PDFs) used for chunk position estimation.
type Document struct {
	Path      string // relative to the corpus root, forward slashes
	Name      string
	Text      string
	UnitCount int
}

// Extractor walks a document root and extracts text per eligible file.
type Extractor struct {
	root string
}

// NewExtractor creates an extractor rooted at the given directory.
func NewExtractor(root string) *Extractor {
	return &Extractor{root: root}
}

// ExtractAll discovers and extracts every eligible file under the root.
// A missing root yields an empty result, not an error: the system runs in
// degraded mode with zero documents. A file that cannot be read or parsed is
// skipped with a warning and contributes nothing.
func (e *Extractor) ExtractAll() ([]Document, error) {
	if _, err := os.Stat(e.root); os.IsNotExist(err) {
		log.Printf("Warning: document root %s does not exist, running with empty corpus", e.root)
		return nil, nil
	}

	var docs []Document
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("Warning: cannot access %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !eligible(d.Name()) {
			return nil
		}

		doc, err := e.extractFile(path)
		if err != nil {
			log.Printf("Warning: failed to extract %s: %v", path, err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk document root: %w", err)
	}

	return docs, nil
}

// eligible reports whether a filename has an extractable extension.
func eligible(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md":
		return true
	default:
		return false
	}
}

func (e *Extractor) extractFile(path string) (Document, error) {
	rel, err := filepath.Rel(e.root, path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to resolve relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)

	doc := Document{
		Path: rel,
		Name: filepath.Base(path),
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, pages, err := extractPDF(path)
		if err != nil {
			return Document{}, err
		}
		doc.Text = text
		doc.UnitCount = pages
		return doc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read file: %w", err)
	}
	doc.Text = string(data)
	doc.UnitCount = 1
	return doc, nil
}

// extractPDF returns the plain text of a PDF and its page count. Pages that
// fail to parse are skipped.
func extractPDF(path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	var builder strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text != "" {
			if builder.Len() > 0 {
				builder.WriteString("\n\n")
			}
			builder.WriteString(text)
		}
	}

	if numPages < 1 {
		numPages = 1
	}
	return builder.String(), numPages, nil
}

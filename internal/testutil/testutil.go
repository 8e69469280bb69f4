package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"unisearch/internal/index"
)

// DiscardLogger returns a logger that drops everything. Keeps test output
// readable.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// BasicSchema returns a schema suitable for most tests. The title and body
// fields go through the unicode analyzer.
func BasicSchema() *index.Schema {
	return &index.Schema{
		DefaultAnalyzer: index.AnalyzerUnicode,
		Fields: []index.FieldDef{
			{Name: "title", Type: index.FieldTypeText, Analyzer: index.AnalyzerUnicode, Stored: true, Indexed: true, Positions: true, Highlight: true},
			{Name: "body", Type: index.FieldTypeText, Analyzer: index.AnalyzerUnicode, Stored: true, Indexed: true, Positions: true, Highlight: true},
			{Name: "tags", Type: index.FieldTypeKeyword, Stored: true, Indexed: true},
			{Name: "price", Type: index.FieldTypeNumeric, Stored: true, Indexed: true},
			{Name: "published_at", Type: index.FieldTypeDate, Stored: true, Indexed: true},
			{Name: "metadata", Type: index.FieldTypeStoredOnly, Stored: true, Indexed: false},
		},
	}
}

// OpenMemoryIndex creates an in-memory index with the basic schema and
// arranges for it to be closed when the test finishes.
func OpenMemoryIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, err := index.OpenInMemory("test", BasicSchema(), index.NewRegistry(), DiscardLogger())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

// SampleDocuments returns a small document set exercising apostrophes,
// diacritics and dash compounds.
func SampleDocuments() []index.Document {
	return []index.Document{
		{ID: "doc-1", Fields: map[string]any{
			"title": "Sam's Guide to Full-Text Search",
			"body":  "Full-text search is a technique for searching documents",
			"tags":  "search",
			"price": 12.50,
		}},
		{ID: "doc-2", Fields: map[string]any{
			"title": "State-of-the-Art Query Processing",
			"body":  "Boolean queries combine multiple search terms using AND OR operators",
			"tags":  "advanced",
			"price": 29.99,
		}},
		{ID: "doc-3", Fields: map[string]any{
			"title": "Café Reviews for the Naïve Reader",
			"body":  "An opinionated tour of the city's co-op cafés",
			"tags":  "food",
			"price": 7.00,
		}},
		{ID: "doc-4", Fields: map[string]any{
			"title": "Ranking and Relevance",
			"body":  "BM25 is a ranking function used by search engines to estimate relevance",
			"tags":  "scoring",
			"price": 18.25,
		}},
	}
}

// AssertFileExists checks that a file exists at the given path.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected file to exist: %s", path)
	}
}

// AssertDirExists checks that a directory exists at the given path.
func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("expected directory to exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory", path)
	}
}

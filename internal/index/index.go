package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/blugelabs/bluge"
	blugeanalysis "github.com/blugelabs/bluge/analysis"
	"github.com/blugelabs/bluge/search/highlight"

	"unisearch/internal/storage"
)

const (
	SchemaFileName = "schema.json"
	StoreDirName   = "store"
)

var (
	ErrIndexClosed = errors.New("index is closed")
	ErrBatchEmpty  = errors.New("batch contains no documents")
)

// Limits on a single ingest batch and search request.
const (
	MaxBatchSize = 10000
	MaxTopK      = 1000
)

// Index couples an engine writer with its schema sidecar. The schema drives
// field conversion and per-field analyzer selection; the engine handles
// everything below the analysis chain.
type Index struct {
	name     string
	schema   *Schema
	registry *Registry
	logger   *slog.Logger

	mu     sync.RWMutex
	writer *bluge.Writer
	closed bool
}

// Create initializes a new on-disk index under dir: the schema sidecar is
// written first, then the engine store is opened in a subdirectory so the
// engine's files and ours never mix.
func Create(dir, name string, schema *Schema, reg *Registry, logger *slog.Logger) (*Index, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}
	if err := storage.EnsureDir(dir); err != nil {
		return nil, err
	}

	schema.Version = 1
	schema.CreatedAt = time.Now().UTC()
	if err := WriteSchema(filepath.Join(dir, SchemaFileName), schema); err != nil {
		return nil, err
	}

	return open(dir, name, schema, reg, logger)
}

// Open loads an existing index from dir, verifying the schema sidecar.
func Open(dir, name string, reg *Registry, logger *slog.Logger) (*Index, error) {
	schema, err := LoadSchema(filepath.Join(dir, SchemaFileName))
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}
	return open(dir, name, schema, reg, logger)
}

func open(dir, name string, schema *Schema, reg *Registry, logger *slog.Logger) (*Index, error) {
	cfg := bluge.DefaultConfig(filepath.Join(dir, StoreDirName))
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	return &Index{
		name:     name,
		schema:   schema,
		registry: reg,
		logger:   logger.With("index", name),
		writer:   writer,
	}, nil
}

// OpenInMemory creates an ephemeral index backed by memory only. Used by
// tests and the analyze endpoint.
func OpenInMemory(name string, schema *Schema, reg *Registry, logger *slog.Logger) (*Index, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	schema.Version = 1
	schema.CreatedAt = time.Now().UTC()
	return &Index{
		name:     name,
		schema:   schema,
		registry: reg,
		logger:   logger.With("index", name),
		writer:   writer,
	}, nil
}

// Name returns the index name.
func (ix *Index) Name() string { return ix.name }

// Schema returns the index schema.
func (ix *Index) Schema() *Schema { return ix.schema }

// AnalyzerResolver returns a lookup suitable for query construction: it maps
// a field name to the analyzer its indexed terms were produced with.
func (ix *Index) AnalyzerResolver() func(field string) *blugeanalysis.Analyzer {
	return func(field string) *blugeanalysis.Analyzer {
		a, err := ix.registry.Get(ix.schema.AnalyzerFor(field))
		if err != nil {
			return nil
		}
		return a
	}
}

// Ingest upserts a batch of documents. Documents with an _id already present
// in the index are replaced.
func (ix *Index) Ingest(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return ErrBatchEmpty
	}
	if len(docs) > MaxBatchSize {
		return fmt.Errorf("batch of %d documents exceeds limit of %d", len(docs), MaxBatchSize)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := bluge.NewBatch()
	for i, doc := range docs {
		bdoc, err := ix.schema.toBluge(doc, ix.registry)
		if err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
		batch.Update(bdoc.ID(), bdoc)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return ErrIndexClosed
	}
	if err := ix.writer.Batch(batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	ix.logger.Info("batch ingested", "docs", len(docs))
	return nil
}

// Delete removes documents by identifier. Missing identifiers are ignored.
func (ix *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > MaxBatchSize {
		return fmt.Errorf("delete batch of %d ids exceeds limit of %d", len(ids), MaxBatchSize)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := bluge.NewBatch()
	for _, id := range ids {
		batch.Delete(bluge.Identifier(id))
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return ErrIndexClosed
	}
	if err := ix.writer.Batch(batch); err != nil {
		return fmt.Errorf("apply delete batch: %w", err)
	}
	ix.logger.Info("documents deleted", "count", len(ids))
	return nil
}

// SearchRequest describes a search over the index. Highlight names stored
// text fields whose best matching fragment should be returned per hit.
type SearchRequest struct {
	Query     bluge.Query
	TopK      int
	From      int
	Highlight []string
}

// Hit is a single search result.
type Hit struct {
	ID         string            `json:"_id"`
	Score      float64           `json:"_score"`
	Fields     map[string]any    `json:"fields,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchResult is the response to a search.
type SearchResult struct {
	Hits     []Hit   `json:"hits"`
	Total    uint64  `json:"total"`
	MaxScore float64 `json:"max_score"`
	TookMS   int64   `json:"took_ms"`
}

// Search runs a query and collects the top hits with stored fields and, when
// requested, highlighted fragments.
func (ix *Index) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.TopK <= 0 {
		req.TopK = 10
	}
	if req.TopK > MaxTopK {
		return nil, fmt.Errorf("top_k %d exceeds limit of %d", req.TopK, MaxTopK)
	}
	if req.From < 0 {
		return nil, fmt.Errorf("from must be non-negative, got %d", req.From)
	}
	for _, field := range req.Highlight {
		def := ix.schema.Field(field)
		if def == nil {
			return nil, fmt.Errorf("%w: %q", ErrDocUnknownField, field)
		}
		if !def.Highlight {
			return nil, fmt.Errorf("field %q is not enabled for highlighting", field)
		}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return nil, ErrIndexClosed
	}

	reader, err := ix.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open reader: %w", err)
	}
	defer reader.Close()

	start := time.Now()
	search := bluge.NewTopNSearch(req.TopK, req.Query).
		SetFrom(req.From).
		WithStandardAggregations()
	if len(req.Highlight) > 0 {
		search = search.IncludeLocations()
	}

	dmi, err := reader.Search(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	highlighter := highlight.NewHTMLHighlighter()
	result := &SearchResult{Hits: []Hit{}}

	match, err := dmi.Next()
	for err == nil && match != nil {
		hit := Hit{Score: match.Score, Fields: map[string]any{}}
		stored := map[string][]byte{}
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				hit.ID = string(value)
				return true
			}
			stored[field] = append([]byte(nil), value...)
			hit.Fields[field] = decodeStored(ix.schema.Field(field), value)
			return true
		})
		if visitErr != nil {
			return nil, fmt.Errorf("load stored fields: %w", visitErr)
		}

		for _, field := range req.Highlight {
			tlm, ok := match.Locations[field]
			if !ok {
				continue
			}
			value, ok := stored[field]
			if !ok {
				continue
			}
			if fragment := highlighter.BestFragment(tlm, value); fragment != "" {
				if hit.Highlights == nil {
					hit.Highlights = map[string]string{}
				}
				hit.Highlights[field] = fragment
			}
		}

		result.Hits = append(result.Hits, hit)
		match, err = dmi.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	agg := dmi.Aggregations()
	result.Total = agg.Count()
	result.MaxScore = agg.Metric("max_score")
	result.TookMS = time.Since(start).Milliseconds()
	return result, nil
}

// DocCount returns the number of live documents in the index.
func (ix *Index) DocCount(ctx context.Context) (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return 0, ErrIndexClosed
	}
	reader, err := ix.writer.Reader()
	if err != nil {
		return 0, fmt.Errorf("open reader: %w", err)
	}
	defer reader.Close()
	return reader.Count()
}

// Close releases the underlying writer. Further operations fail with
// ErrIndexClosed.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil
	}
	ix.closed = true
	if err := ix.writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

// decodeStored turns a stored byte value back into the shape it was ingested
// with, according to the field definition.
func decodeStored(def *FieldDef, value []byte) any {
	if def == nil {
		return string(value)
	}
	switch def.Type {
	case FieldTypeNumeric:
		if n, err := bluge.DecodeNumericFloat64(value); err == nil {
			return n
		}
		return string(value)
	case FieldTypeDate:
		if t, err := bluge.DecodeDateTime(value); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
		return string(value)
	case FieldTypeStoredOnly:
		return jsonRaw(value)
	default:
		return string(value)
	}
}

// jsonRaw defers parsing of stored_only payloads to the response encoder.
type jsonRaw []byte

func (r jsonRaw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

package index_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisearch/internal/index"
	"unisearch/internal/query"
	"unisearch/internal/testutil"
)

func ingestSamples(t *testing.T, ix *index.Index) {
	t.Helper()
	require.NoError(t, ix.Ingest(context.Background(), testutil.SampleDocuments()))
}

func searchMatch(t *testing.T, ix *index.Index, field, text string, req index.SearchRequest) *index.SearchResult {
	t.Helper()
	bq, err := query.ToBluge(
		&query.MatchQuery{Field: field, Text: text},
		query.AnalyzerResolver(ix.AnalyzerResolver()),
	)
	require.NoError(t, err)
	req.Query = bq
	result, err := ix.Search(context.Background(), req)
	require.NoError(t, err)
	return result
}

func TestIndexIngestAndSearch(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	ingestSamples(t, ix)

	count, err := ix.DocCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	result := searchMatch(t, ix, "body", "search", index.SearchRequest{})
	assert.Equal(t, uint64(3), result.Total)
}

func TestIndexSearch_ApostropheElision(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	ingestSamples(t, ix)

	// "Sam's" is indexed as "sams"; both query spellings must match.
	for _, q := range []string{"Sam's", "sams"} {
		result := searchMatch(t, ix, "title", q, index.SearchRequest{})
		require.Equal(t, uint64(1), result.Total, "query %q", q)
		assert.Equal(t, "doc-1", result.Hits[0].ID)
	}
}

func TestIndexSearch_AccentFolding(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	ingestSamples(t, ix)

	for _, q := range []string{"café", "cafe", "Cafés"} {
		result := searchMatch(t, ix, "title", q, index.SearchRequest{})
		if strings.Contains(q, "s") {
			// "Cafés" analyzes to "cafes", a distinct term.
			assert.Equal(t, uint64(0), result.Total, "query %q", q)
			continue
		}
		require.Equal(t, uint64(1), result.Total, "query %q", q)
		assert.Equal(t, "doc-3", result.Hits[0].ID)
	}
}

func TestIndexSearch_DashCompound(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	ingestSamples(t, ix)

	// The compound token makes the concatenated spelling searchable.
	result := searchMatch(t, ix, "title", "stateoftheart", index.SearchRequest{})
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "doc-2", result.Hits[0].ID)

	// The sub-tokens remain searchable too.
	result = searchMatch(t, ix, "title", "art", index.SearchRequest{})
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "doc-2", result.Hits[0].ID)
}

func TestIndexSearch_Highlight(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	ingestSamples(t, ix)

	result := searchMatch(t, ix, "body", "relevance", index.SearchRequest{
		Highlight: []string{"body"},
	})
	require.Equal(t, uint64(1), result.Total)
	require.Contains(t, result.Hits[0].Highlights, "body")
	assert.Contains(t, result.Hits[0].Highlights["body"], "<mark>relevance</mark>")
}

func TestIndexSearch_HighlightUnknownField(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	ingestSamples(t, ix)

	bq, err := query.ToBluge(&query.MatchAllQuery{}, query.AnalyzerResolver(ix.AnalyzerResolver()))
	require.NoError(t, err)
	_, err = ix.Search(context.Background(), index.SearchRequest{
		Query:     bq,
		Highlight: []string{"no_such_field"},
	})
	assert.Error(t, err)
}

func TestIndexDelete(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	ingestSamples(t, ix)

	require.NoError(t, ix.Delete(context.Background(), []string{"doc-1", "missing-id"}))

	count, err := ix.DocCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	result := searchMatch(t, ix, "title", "sams", index.SearchRequest{})
	assert.Equal(t, uint64(0), result.Total)
}

func TestIndexDelete_BatchLimit(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)

	ids := make([]string, index.MaxBatchSize+1)
	for i := range ids {
		ids[i] = "doc"
	}
	err := ix.Delete(context.Background(), ids)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestIndexIngestUpsert(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	ingestSamples(t, ix)

	require.NoError(t, ix.Ingest(context.Background(), []index.Document{
		{ID: "doc-1", Fields: map[string]any{"title": "Replacement Title"}},
	}))

	count, err := ix.DocCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	result := searchMatch(t, ix, "title", "replacement", index.SearchRequest{})
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "doc-1", result.Hits[0].ID)
}

func TestIndexIngest_Errors(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	ctx := context.Background()

	assert.ErrorIs(t, ix.Ingest(ctx, nil), index.ErrBatchEmpty)

	err := ix.Ingest(ctx, []index.Document{{Fields: map[string]any{"title": "no id"}}})
	assert.ErrorIs(t, err, index.ErrDocMissingID)

	err = ix.Ingest(ctx, []index.Document{{ID: "x", Fields: map[string]any{"bogus": "v"}}})
	assert.ErrorIs(t, err, index.ErrDocUnknownField)

	err = ix.Ingest(ctx, []index.Document{{ID: "x", Fields: map[string]any{"price": "not a number"}}})
	assert.ErrorIs(t, err, index.ErrDocBadValue)
}

func TestIndexClosed(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	require.NoError(t, ix.Close())

	ctx := context.Background()
	assert.ErrorIs(t, ix.Ingest(ctx, testutil.SampleDocuments()), index.ErrIndexClosed)
	_, err := ix.DocCount(ctx)
	assert.ErrorIs(t, err, index.ErrIndexClosed)

	// Close is idempotent.
	assert.NoError(t, ix.Close())
}

func TestIndexCreateOpenDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "books")
	reg := index.NewRegistry()
	logger := testutil.DiscardLogger()

	ix, err := index.Create(dir, "books", testutil.BasicSchema(), reg, logger)
	require.NoError(t, err)
	ingestSamples(t, ix)
	require.NoError(t, ix.Close())

	testutil.AssertFileExists(t, filepath.Join(dir, index.SchemaFileName))
	testutil.AssertDirExists(t, filepath.Join(dir, index.StoreDirName))

	reopened, err := index.Open(dir, "books", reg, logger)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestIndexNumericAndDateStored(t *testing.T) {
	ix := testutil.OpenMemoryIndex(t)
	require.NoError(t, ix.Ingest(context.Background(), []index.Document{
		{ID: "d1", Fields: map[string]any{
			"title":        "Priced Item",
			"price":        42.5,
			"published_at": "2024-06-01T12:00:00Z",
		}},
	}))

	result := searchMatch(t, ix, "title", "priced", index.SearchRequest{})
	require.Equal(t, uint64(1), result.Total)

	fields := result.Hits[0].Fields
	assert.Equal(t, 42.5, fields["price"])
	assert.Equal(t, "2024-06-01T12:00:00Z", fields["published_at"])
}

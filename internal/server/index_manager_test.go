package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisearch/internal/index"
	"unisearch/internal/testutil"
)

func newManager(t *testing.T) (*IndexManager, string) {
	t.Helper()
	dir := t.TempDir()
	mgr, err := NewIndexManager(dir, testutil.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr, dir
}

func TestIndexManagerLifecycle(t *testing.T) {
	mgr, _ := newManager(t)

	require.NoError(t, mgr.CreateIndex("books", testutil.BasicSchema()))

	assert.ErrorIs(t, mgr.CreateIndex("books", testutil.BasicSchema()), ErrIndexExists)

	ix, err := mgr.GetIndex("books")
	require.NoError(t, err)
	assert.Equal(t, "books", ix.Name())

	assert.Equal(t, []string{"books"}, mgr.ListIndexes())

	require.NoError(t, mgr.DeleteIndex("books"))
	_, err = mgr.GetIndex("books")
	assert.ErrorIs(t, err, ErrIndexNotFound)
	assert.ErrorIs(t, mgr.DeleteIndex("books"), ErrIndexNotFound)
}

func TestIndexManagerInvalidNames(t *testing.T) {
	mgr, _ := newManager(t)

	for _, name := range []string{"", "UPPER", "has space", "../escape", "-leading", strings.Repeat("x", 65)} {
		err := mgr.CreateIndex(name, testutil.BasicSchema())
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestIndexManagerCreateOverUnloadedIndex(t *testing.T) {
	mgr, dir := newManager(t)
	require.NoError(t, mgr.CreateIndex("books", testutil.BasicSchema()))
	require.NoError(t, mgr.Close())

	// Corrupt the schema so the index is skipped at the next startup.
	schemaPath := filepath.Join(dir, "books", index.SchemaFileName)
	require.NoError(t, os.WriteFile(schemaPath, []byte("garbage"), 0o644))

	reloaded, err := NewIndexManager(dir, testutil.DiscardLogger())
	require.NoError(t, err)
	defer reloaded.Close()

	_, err = reloaded.GetIndex("books")
	require.ErrorIs(t, err, ErrIndexNotFound)

	// Creating over the unloaded directory must refuse, not clobber it.
	assert.ErrorIs(t, reloaded.CreateIndex("books", testutil.BasicSchema()), ErrIndexExists)
	testutil.AssertFileExists(t, schemaPath)
}

func TestIndexManagerReload(t *testing.T) {
	mgr, dir := newManager(t)
	require.NoError(t, mgr.CreateIndex("books", testutil.BasicSchema()))
	require.NoError(t, mgr.Close())

	reloaded, err := NewIndexManager(dir, testutil.DiscardLogger())
	require.NoError(t, err)
	defer reloaded.Close()

	ix, err := reloaded.GetIndex("books")
	require.NoError(t, err)
	assert.Equal(t, "books", ix.Name())
}

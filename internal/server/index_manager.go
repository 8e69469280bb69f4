package server

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"unisearch/internal/index"
	"unisearch/internal/storage"
)

var (
	ErrIndexNotFound = errors.New("index not found")
	ErrIndexExists   = errors.New("index already exists")
	ErrInvalidName   = errors.New("invalid index name")
)

// Index names become directory names, so the charset is restricted.
var indexNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// IndexManager manages multiple indexes within a single process. Each index
// lives in its own subdirectory of the data directory.
type IndexManager struct {
	dataDir  string
	logger   *slog.Logger
	registry *index.Registry

	mu      sync.RWMutex
	indexes map[string]*index.Index
}

// NewIndexManager creates an IndexManager rooted at the given data directory
// and opens every index already on disk.
func NewIndexManager(dataDir string, logger *slog.Logger) (*IndexManager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := storage.EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	mgr := &IndexManager{
		dataDir:  dataDir,
		logger:   logger,
		registry: index.NewRegistry(),
		indexes:  make(map[string]*index.Index),
	}

	if err := mgr.loadExistingIndexes(); err != nil {
		return nil, fmt.Errorf("load existing indexes: %w", err)
	}

	return mgr, nil
}

// loadExistingIndexes discovers and opens all indexes on disk. An index that
// fails to open is skipped and logged, not fatal.
func (m *IndexManager) loadExistingIndexes() error {
	names, err := storage.ListSubdirs(m.dataDir)
	if err != nil {
		return err
	}

	for _, name := range names {
		m.logger.Info("loading index", "name", name)
		ix, err := index.Open(m.indexDir(name), name, m.registry, m.logger)
		if err != nil {
			m.logger.Error("failed to load index", "name", name, "error", err)
			continue
		}
		m.indexes[name] = ix
		m.logger.Info("index loaded", "name", name)
	}
	return nil
}

func (m *IndexManager) indexDir(name string) string {
	return filepath.Join(m.dataDir, name)
}

// CreateIndex creates a new index with the given schema.
func (m *IndexManager) CreateIndex(name string, schema *index.Schema) error {
	if !indexNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.indexes[name]; exists {
		return ErrIndexExists
	}

	// An index directory can exist on disk without being loaded, e.g. when it
	// failed to open at startup. Never adopt or clobber it.
	if _, err := os.Stat(filepath.Join(m.indexDir(name), index.SchemaFileName)); err == nil {
		return fmt.Errorf("%w: %q is on disk but not loaded", ErrIndexExists, name)
	}

	ix, err := index.Create(m.indexDir(name), name, schema, m.registry, m.logger)
	if err != nil {
		_ = os.RemoveAll(m.indexDir(name))
		return err
	}

	m.indexes[name] = ix
	m.logger.Info("index created", "name", name)
	return nil
}

// DeleteIndex closes an index and removes all its data.
func (m *IndexManager) DeleteIndex(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ix, exists := m.indexes[name]
	if !exists {
		return ErrIndexNotFound
	}

	if err := ix.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(m.indexDir(name)); err != nil {
		return fmt.Errorf("remove index directory: %w", err)
	}

	delete(m.indexes, name)
	m.logger.Info("index deleted", "name", name)
	return nil
}

// GetIndex returns the index with the given name.
func (m *IndexManager) GetIndex(name string) (*index.Index, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ix, exists := m.indexes[name]
	if !exists {
		return nil, ErrIndexNotFound
	}
	return ix, nil
}

// ListIndexes returns the names of all loaded indexes.
func (m *IndexManager) ListIndexes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.indexes))
	for name := range m.indexes {
		names = append(names, name)
	}
	return names
}

// Registry exposes the shared analyzer registry.
func (m *IndexManager) Registry() *index.Registry {
	return m.registry
}

// Close closes all open indexes.
func (m *IndexManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, ix := range m.indexes {
		if err := ix.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close index %q: %w", name, err)
		}
		delete(m.indexes, name)
	}
	return firstErr
}

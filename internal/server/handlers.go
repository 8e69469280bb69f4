package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"unisearch/internal/analysis"
	"unisearch/internal/index"
	"unisearch/internal/query"
)

// Limit on request body size, generous enough for a full ingest batch.
const maxBodyBytes = 32 << 20

// Handler holds the HTTP handlers for the API.
type Handler struct {
	mgr    *IndexManager
	logger *slog.Logger
}

// NewHandler creates a new Handler backed by the given IndexManager.
func NewHandler(mgr *IndexManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{mgr: mgr, logger: logger}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Index lifecycle.
	mux.HandleFunc("GET /indexes", h.handleListIndexes)
	mux.HandleFunc("POST /indexes", h.handleCreateIndex)
	mux.HandleFunc("GET /indexes/{name}", h.handleGetIndex)
	mux.HandleFunc("DELETE /indexes/{name}", h.handleDeleteIndex)

	// Document ingestion and deletion.
	mux.HandleFunc("POST /indexes/{name}/documents", h.handleIngestDocuments)
	mux.HandleFunc("DELETE /indexes/{name}/documents", h.handleDeleteDocuments)

	// Search.
	mux.HandleFunc("POST /indexes/{name}/search", h.handleSearch)

	// Analysis introspection.
	mux.HandleFunc("POST /analyze", h.handleAnalyze)
}

// --- Index Lifecycle ---

func (h *Handler) handleListIndexes(w http.ResponseWriter, r *http.Request) {
	names := h.mgr.ListIndexes()

	infos := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		ix, err := h.mgr.GetIndex(name)
		if err != nil {
			continue
		}
		infos = append(infos, indexInfo(r.Context(), ix))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"indexes": infos,
	})
}

func (h *Handler) handleCreateIndex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string           `json:"name"`
		DefaultAnalyzer string           `json:"default_analyzer"`
		Fields          []index.FieldDef `json:"fields"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "index name is required")
		return
	}

	schema := &index.Schema{
		DefaultAnalyzer: req.DefaultAnalyzer,
		Fields:          req.Fields,
	}

	if err := h.mgr.CreateIndex(req.Name, schema); err != nil {
		if errors.Is(err, ErrIndexExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"status": "created",
		"name":   req.Name,
	})
}

func (h *Handler) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	ix, ok := h.lookupIndex(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, indexInfo(r.Context(), ix))
}

func (h *Handler) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.mgr.DeleteIndex(name); err != nil {
		if errors.Is(err, ErrIndexNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"name":   name,
	})
}

// --- Document Ingestion ---

func (h *Handler) handleIngestDocuments(w http.ResponseWriter, r *http.Request) {
	ix, ok := h.lookupIndex(w, r)
	if !ok {
		return
	}

	var req struct {
		Documents []index.Document `json:"documents"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "no documents provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if err := ix.Ingest(ctx, req.Documents); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "indexed",
		"documents_received": len(req.Documents),
	})
}

// --- Document Deletion ---

func (h *Handler) handleDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	ix, ok := h.lookupIndex(w, r)
	if !ok {
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "document ids are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if err := ix.Delete(ctx, req.IDs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "deleted",
		"count":  len(req.IDs),
	})
}

// --- Search ---

type searchRequest struct {
	Query     json.RawMessage `json:"query"`
	TopK      int             `json:"top_k"`
	From      int             `json:"from"`
	Highlight []string        `json:"highlight"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ix, ok := h.lookupIndex(w, r)
	if !ok {
		return
	}

	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.Query) == 0 {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	ast, err := query.Parse(req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}
	ast = query.Rewrite(ast)

	bq, err := query.ToBluge(ast, query.AnalyzerResolver(ix.AnalyzerResolver()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := ix.Search(ctx, index.SearchRequest{
		Query:     bq,
		TopK:      req.TopK,
		From:      req.From,
		Highlight: req.Highlight,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- Analysis ---

type analyzeRequest struct {
	Analyzer string `json:"analyzer"`
	Text     string `json:"text"`
}

type analyzeToken struct {
	Term     string `json:"term"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Position int    `json:"position"`
}

// analyzerRaw is a pseudo-analyzer name: the bare unicode tokenizer with no
// filters, so terms keep their original case and accents.
const analyzerRaw = "raw"

// handleAnalyze runs text through a named analyzer and returns the produced
// terms with their byte offsets and positions. Useful for debugging schemas.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Analyzer == "" {
		req.Analyzer = index.AnalyzerUnicode
	}

	if req.Analyzer == analyzerRaw {
		tokens := make([]analyzeToken, 0, 8)
		stream := analysis.NewUnicodeTokenizer().Tokenize(req.Text)
		for stream.Advance() {
			tok := stream.Token()
			tokens = append(tokens, analyzeToken{
				Term:     tok.Text,
				Start:    tok.OffsetFrom,
				End:      tok.OffsetTo,
				Position: int(tok.Position),
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"analyzer": analyzerRaw,
			"tokens":   tokens,
		})
		return
	}

	a, err := h.mgr.Registry().Get(req.Analyzer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stream := a.Analyze([]byte(req.Text))
	tokens := make([]analyzeToken, 0, len(stream))
	position := -1
	for _, tok := range stream {
		position += tok.PositionIncr
		tokens = append(tokens, analyzeToken{
			Term:     string(tok.Term),
			Start:    tok.Start,
			End:      tok.End,
			Position: position,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analyzer": req.Analyzer,
		"tokens":   tokens,
	})
}

// --- Helpers ---

func (h *Handler) lookupIndex(w http.ResponseWriter, r *http.Request) (*index.Index, bool) {
	name := r.PathValue("name")
	ix, err := h.mgr.GetIndex(name)
	if err != nil {
		if errors.Is(err, ErrIndexNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return ix, true
}

func indexInfo(ctx context.Context, ix *index.Index) map[string]interface{} {
	info := map[string]interface{}{
		"name":             ix.Name(),
		"schema_version":   ix.Schema().Version,
		"fields":           len(ix.Schema().Fields),
		"default_analyzer": ix.Schema().AnalyzerFor(""),
	}
	if count, err := ix.DocCount(ctx); err == nil {
		info["doc_count"] = count
	}
	return info
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"message": message,
		},
	})
}

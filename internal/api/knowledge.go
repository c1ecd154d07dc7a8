package api

import (
	"encoding/json"
	"net/http"

	"github.com/asterhq/aster/internal/knowledge"
	"github.com/asterhq/aster/internal/log"
)

// knowledgeHandler serves direct knowledge base management endpoints.
// The same store also backs the knowledge_search and knowledge_ingest tools.
type knowledgeHandler struct {
	store    *knowledge.Store
	ingester *knowledge.Ingester
	logger   log.Logger
}

type ingestRequest struct {
	URL string `json:"url"`
}

// ingest handles POST /api/knowledge/ingest.
func (h *knowledgeHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "url is required", h.logger)
		return
	}

	result, err := h.ingester.IngestURL(r.Context(), req.URL)
	if err != nil {
		h.logger.Warn("knowledge ingestion failed", "url", req.URL, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "ingest_failed", err.Error(), h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, result, h.logger)
}

// search handles GET /api/knowledge/search?q=...
func (h *knowledgeHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "q is required", h.logger)
		return
	}

	docs, err := h.store.Search(r.Context(), query, 10)
	if err != nil {
		h.logger.Error("knowledge search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search_failed", "could not search knowledge base", h.logger)
		return
	}
	if docs == nil {
		docs = []knowledge.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs}, h.logger)
}

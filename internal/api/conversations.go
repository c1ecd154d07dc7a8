package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/asterhq/aster/internal/log"
	"github.com/asterhq/aster/internal/session"
)

// conversationHandler serves conversation CRUD endpoints.
type conversationHandler struct {
	store  *session.Store
	logger log.Logger
}

// list handles GET /api/conversations.
func (h *conversationHandler) list(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.store.List(r.Context(), 50)
	if err != nil {
		h.logger.Error("listing conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "could not list conversations", h.logger)
		return
	}
	if conversations == nil {
		conversations = []session.Conversation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations}, h.logger)
}

// messages handles GET /api/conversations/{id}/messages.
func (h *conversationHandler) messages(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.store.Get(r.Context(), id); err != nil {
		h.notFoundOr500(w, id, err)
		return
	}
	history, err := h.store.History(r.Context(), id)
	if err != nil {
		h.notFoundOr500(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": history}, h.logger)
}

// delete handles DELETE /api/conversations/{id}.
func (h *conversationHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.notFoundOr500(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *conversationHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "conversation id must be a UUID", h.logger)
		return uuid.Nil, false
	}
	return id, true
}

func (h *conversationHandler) notFoundOr500(w http.ResponseWriter, id uuid.UUID, err error) {
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
		return
	}
	h.logger.Error("conversation operation failed", "conversation", id, "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "operation failed", h.logger)
}

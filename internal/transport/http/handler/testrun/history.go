package testrun

import (
	"net/http"
	"strconv"

	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
)

// GetHistory handles GET /v1/test/history?limit=N. Entries come back newest
// first; limit is clamped to the store's retention bound.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := h.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	entries, err := h.Storage.ListTestHistory(limit)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load history")
		return
	}
	total, err := h.Storage.CountTestHistory()
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to count history")
		return
	}

	shared.WriteJSON(w, map[string]any{
		"history": entries,
		"total":   total,
	}, http.StatusOK)
}

// ClearHistory handles DELETE /v1/test/history.
func (h *Handlers) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.Storage.ClearTestHistory(); err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to clear history")
		return
	}
	shared.WriteJSON(w, map[string]string{"message": "history cleared"}, http.StatusOK)
}

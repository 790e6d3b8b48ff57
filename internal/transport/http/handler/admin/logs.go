package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
)

// GetRequestLogs handles GET /api/admin/logs with optional filters:
// user_id, role, model, provider, outcome, start_date, end_date (RFC3339),
// limit, offset.
func (h *Handlers) GetRequestLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := storage.LogFilter{
		UserID:   q.Get("user_id"),
		Role:     q.Get("role"),
		Model:    q.Get("model"),
		Provider: q.Get("provider"),
		Outcome:  q.Get("outcome"),
		Limit:    100,
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "start_date must be RFC3339")
			return
		}
		filter.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "end_date must be RFC3339")
			return
		}
		filter.EndDate = &t
	}

	entries, err := h.Ledger.Query(filter)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to query audit log")
		return
	}

	shared.WriteJSON(w, map[string]any{
		"logs":  entries,
		"count": len(entries),
	}, http.StatusOK)
}

// PurgeRequestLogs handles DELETE /api/admin/logs?before_date=RFC3339.
// This is the retention purge, the only deletion path for the audit log.
func (h *Handlers) PurgeRequestLogs(w http.ResponseWriter, r *http.Request) {
	before := r.URL.Query().Get("before_date")
	if before == "" {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "before_date is required")
		return
	}
	t, err := time.Parse(time.RFC3339, before)
	if err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "before_date must be RFC3339")
		return
	}

	n, err := h.Ledger.Purge(t)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to purge audit log")
		return
	}

	shared.WriteJSON(w, map[string]any{"deleted": n}, http.StatusOK)
}

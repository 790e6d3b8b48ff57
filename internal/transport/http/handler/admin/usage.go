package admin

import (
	"net/http"
	"time"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
)

// GetUsageStats handles GET /api/admin/usage with optional user_id, model,
// start_date, end_date (YYYY-MM-DD) filters.
func (h *Handlers) GetUsageStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := storage.StatsFilter{
		UserID: q.Get("user_id"),
		Model:  q.Get("model"),
	}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "end_date must be YYYY-MM-DD")
			return
		}
		filter.EndDate = &t
	}

	stats, err := h.Storage.GetUsageStats(filter)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load usage stats")
		return
	}

	shared.WriteJSON(w, stats, http.StatusOK)
}

// GetDailyUsage handles GET /api/admin/usage/daily?start_date=&end_date=.
// Defaults to the trailing 30 days.
func (h *Handlers) GetDailyUsage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	endDate := time.Now().UTC().Format("2006-01-02")
	startDate := time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
	if v := q.Get("start_date"); v != "" {
		startDate = v
	}
	if v := q.Get("end_date"); v != "" {
		endDate = v
	}

	usage, err := h.Storage.GetDailyUsage(startDate, endDate)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load daily usage")
		return
	}

	shared.WriteJSON(w, map[string]any{
		"daily": usage,
		"count": len(usage),
	}, http.StatusOK)
}

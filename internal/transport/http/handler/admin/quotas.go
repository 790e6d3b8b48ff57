package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/calyptra/modelbench/internal/quota"
	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/storage/models"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
)

// SetQuotaLimit handles PUT /api/admin/quotas. The body is a QuotaLimit;
// setting both maxima to zero keeps the scope unlimited.
func (h *Handlers) SetQuotaLimit(w http.ResponseWriter, r *http.Request) {
	var limit models.QuotaLimit
	if err := json.NewDecoder(r.Body).Decode(&limit); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}

	if err := h.Storage.SetQuotaLimit(&limit); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, err.Error())
			return
		}
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to save quota limit")
		return
	}

	shared.WriteJSON(w, limit, http.StatusOK)
}

// ListQuotaLimits handles GET /api/admin/quotas.
func (h *Handlers) ListQuotaLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := h.Storage.ListQuotaLimits()
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to list quota limits")
		return
	}
	shared.WriteJSON(w, map[string]any{"limits": limits, "total": len(limits)}, http.StatusOK)
}

// DeleteQuotaLimit handles DELETE /api/admin/quotas?scope=user&scope_id=X&period=daily.
func (h *Handlers) DeleteQuotaLimit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := models.QuotaScope(q.Get("scope"))
	period := models.QuotaPeriod(q.Get("period"))
	scopeID := q.Get("scope_id")

	err := h.Storage.DeleteQuotaLimit(scope, scopeID, period)
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "quota limit not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to delete quota limit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuotaStatus pairs a configured limit with its live counter.
type QuotaStatus struct {
	Limit   *models.QuotaLimit   `json:"limit"`
	Counter *models.QuotaCounter `json:"counter"`
}

// GetQuotaStatus handles GET /api/admin/quotas/status. It reports current
// consumption against every configured limit in its active window.
func (h *Handlers) GetQuotaStatus(w http.ResponseWriter, r *http.Request) {
	limits, err := h.Storage.ListQuotaLimits()
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to list quota limits")
		return
	}

	now := time.Now()
	statuses := make([]QuotaStatus, 0, len(limits))
	for _, limit := range limits {
		window := quota.WindowFor(limit.Period, now)
		counter, err := h.Storage.GetQuotaCounter(limit.Scope, limit.ScopeID, limit.Period, window)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load quota counter")
			return
		}
		if counter == nil {
			counter = &models.QuotaCounter{
				Scope: limit.Scope, ScopeID: limit.ScopeID,
				Period: limit.Period, Window: window,
			}
		}
		statuses = append(statuses, QuotaStatus{Limit: limit, Counter: counter})
	}

	shared.WriteJSON(w, map[string]any{"quotas": statuses, "total": len(statuses)}, http.StatusOK)
}

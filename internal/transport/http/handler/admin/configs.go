package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calyptra/modelbench/internal/modelconf"
	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/storage/models"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
)

// CreateConfigRecord handles POST /api/admin/configs. The body is a full
// ConfigRecord; range validation and tier/scope rules apply before anything
// is written.
func (h *Handlers) CreateConfigRecord(w http.ResponseWriter, r *http.Request) {
	var rec models.ConfigRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}

	if err := h.Configs.Create(&rec); err != nil {
		writeConfigError(w, err)
		return
	}
	shared.WriteJSON(w, rec, http.StatusCreated)
}

// ListConfigRecords handles GET /api/admin/configs?tier=MODEL.
func (h *Handlers) ListConfigRecords(w http.ResponseWriter, r *http.Request) {
	tier := models.ConfigTier(r.URL.Query().Get("tier"))
	list, err := h.Configs.List(tier)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to list configuration records")
		return
	}
	shared.WriteJSON(w, map[string]any{"configs": list, "total": len(list)}, http.StatusOK)
}

// GetConfigRecord handles GET /api/admin/configs/{id}.
func (h *Handlers) GetConfigRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Configs.Get(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "configuration record not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load configuration record")
		return
	}
	shared.WriteJSON(w, rec, http.StatusOK)
}

// UpdateConfigRecord handles PUT /api/admin/configs/{id}.
func (h *Handlers) UpdateConfigRecord(w http.ResponseWriter, r *http.Request) {
	var rec models.ConfigRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}
	rec.ID = r.PathValue("id")

	if err := h.Configs.Update(&rec); err != nil {
		writeConfigError(w, err)
		return
	}
	shared.WriteJSON(w, rec, http.StatusOK)
}

// DeleteConfigRecord handles DELETE /api/admin/configs/{id}.
func (h *Handlers) DeleteConfigRecord(w http.ResponseWriter, r *http.Request) {
	err := h.Configs.Delete(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "configuration record not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to delete configuration record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeConfigError maps configuration write errors onto the wire envelope.
func writeConfigError(w http.ResponseWriter, err error) {
	var invalid *modelconf.InvalidOverrideError
	switch {
	case errors.As(err, &invalid):
		shared.WriteErrorDetail(w, http.StatusBadRequest, shared.ErrorDetail{
			Message: err.Error(),
			Kind:    shared.KindInvalidOverride,
			Param:   invalid.Field,
		})
	case errors.Is(err, storage.ErrNotFound):
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "configuration record not found")
	case errors.Is(err, storage.ErrInvalidInput):
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, err.Error())
	default:
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to save configuration record")
	}
}

package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calyptra/modelbench/internal/registry"
	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
)

// RegisterModelRequest is the body for registering a whitelist entry.
type RegisterModelRequest struct {
	ID              string  `json:"id"`
	Provider        string  `json:"provider"`
	DisplayName     string  `json:"display_name"`
	CostPer1KTokens float64 `json:"cost_per_1k_tokens"`
	MaxContext      int     `json:"max_context"`
	SupportsStream  bool    `json:"supports_streaming"`
	SupportsTools   bool    `json:"supports_functions"`
	SupportsVision  bool    `json:"supports_vision"`
	IsLocalFree     bool    `json:"is_local_free"`
}

// RegisterModel handles POST /api/admin/models. New models start enabled.
func (h *Handlers) RegisterModel(w http.ResponseWriter, r *http.Request) {
	var req RegisterModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}

	desc := &storage.ModelDescriptor{
		ID:              req.ID,
		Provider:        req.Provider,
		DisplayName:     req.DisplayName,
		CostPer1KTokens: req.CostPer1KTokens,
		MaxContext:      req.MaxContext,
		SupportsStream:  req.SupportsStream,
		SupportsTools:   req.SupportsTools,
		SupportsVision:  req.SupportsVision,
		Enabled:         true,
		IsLocalFree:     req.IsLocalFree,
	}

	if err := h.Registry.Register(desc); err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidInput):
			shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, err.Error())
		case errors.Is(err, storage.ErrDuplicateKey):
			shared.WriteError(w, http.StatusConflict, shared.KindInvalidRequest, "model already registered")
		default:
			shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to register model")
		}
		return
	}

	shared.WriteJSON(w, desc, http.StatusCreated)
}

// ListModels handles GET /api/admin/models?enabled=true&provider=openai.
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabled") == "true"
	provider := r.URL.Query().Get("provider")

	var list []*storage.ModelDescriptor
	var err error
	if enabledOnly {
		list, err = h.Registry.ListEnabled(provider)
	} else {
		list, err = h.Storage.ListModels(false, provider)
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to list models")
		return
	}

	shared.WriteJSON(w, map[string]any{"models": list, "total": len(list)}, http.StatusOK)
}

// GetModel handles GET /api/admin/models/{id}.
func (h *Handlers) GetModel(w http.ResponseWriter, r *http.Request) {
	desc, err := h.Registry.Resolve(r.PathValue("id"))
	if errors.Is(err, registry.ErrUnknownModel) {
		shared.WriteError(w, http.StatusNotFound, shared.KindUnknownModel, err.Error())
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load model")
		return
	}
	shared.WriteJSON(w, desc, http.StatusOK)
}

// SetEnabledRequest toggles a model's enablement.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetModelEnabled handles PUT /api/admin/models/{id}/enabled. The change is
// attributed to the authenticated admin identity.
func (h *Handlers) SetModelEnabled(w http.ResponseWriter, r *http.Request) {
	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	if err := h.Registry.SetEnabled(id, req.Enabled, "admin"); err != nil {
		if errors.Is(err, registry.ErrUnknownModel) {
			shared.WriteError(w, http.StatusNotFound, shared.KindUnknownModel, err.Error())
			return
		}
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to update model")
		return
	}

	shared.WriteJSON(w, map[string]any{"id": id, "enabled": req.Enabled}, http.StatusOK)
}

// DeleteModel handles DELETE /api/admin/models/{id}.
func (h *Handlers) DeleteModel(w http.ResponseWriter, r *http.Request) {
	err := h.Storage.DeleteModel(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindUnknownModel, "model not registered")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to delete model")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

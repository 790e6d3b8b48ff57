package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
)

// CreateCredentialRequest is the body for storing a provider API key.
type CreateCredentialRequest struct {
	Provider  string `json:"provider"`
	Name      string `json:"name"`
	APIKey    string `json:"api_key"`
	IsDefault bool   `json:"is_default"`
}

// UpdateCredentialRequest carries partial credential updates.
type UpdateCredentialRequest struct {
	Provider  *string `json:"provider"`
	Name      *string `json:"name"`
	APIKey    *string `json:"api_key"`
	IsDefault *bool   `json:"is_default"`
}

// CreateCredential handles POST /api/admin/credentials. The key is
// encrypted at rest; responses only ever carry the masked preview.
func (h *Handlers) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req CreateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}

	if req.Provider == "" || req.Name == "" || req.APIKey == "" {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "provider, name, and api_key are required")
		return
	}

	cred := &storage.Credential{
		Provider:  req.Provider,
		Name:      req.Name,
		APIKey:    req.APIKey,
		IsDefault: req.IsDefault,
	}

	if err := h.Storage.CreateCredential(cred); err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to create credential")
		return
	}

	shared.WriteJSON(w, cred.ToPreview(), http.StatusCreated)
}

// ListCredentials handles GET /api/admin/credentials.
func (h *Handlers) ListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.Storage.ListCredentials()
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to list credentials")
		return
	}

	previews := make([]*storage.CredentialPreview, len(creds))
	for i, c := range creds {
		previews[i] = c.ToPreview()
	}
	shared.WriteJSON(w, map[string]any{"credentials": previews, "total": len(previews)}, http.StatusOK)
}

// GetCredential handles GET /api/admin/credentials/{id}.
func (h *Handlers) GetCredential(w http.ResponseWriter, r *http.Request) {
	cred, err := h.Storage.GetCredential(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "credential not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load credential")
		return
	}
	shared.WriteJSON(w, cred.ToPreview(), http.StatusOK)
}

// UpdateCredential handles PUT /api/admin/credentials/{id}.
func (h *Handlers) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	cred, err := h.Storage.GetCredential(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "credential not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load credential")
		return
	}

	var req UpdateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}

	if req.Provider != nil {
		cred.Provider = *req.Provider
	}
	if req.Name != nil {
		cred.Name = *req.Name
	}
	if req.APIKey != nil {
		cred.APIKey = *req.APIKey
	}
	if req.IsDefault != nil {
		cred.IsDefault = *req.IsDefault
	}
	cred.UpdatedAt = time.Now()

	if err := h.Storage.UpdateCredential(cred); err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to update credential")
		return
	}

	shared.WriteJSON(w, cred.ToPreview(), http.StatusOK)
}

// DeleteCredential handles DELETE /api/admin/credentials/{id}.
func (h *Handlers) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	err := h.Storage.DeleteCredential(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "credential not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to delete credential")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultCredential handles POST /api/admin/credentials/{id}/default.
func (h *Handlers) SetDefaultCredential(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.Storage.SetDefaultCredential(id)
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "credential not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to set default credential")
		return
	}

	cred, err := h.Storage.GetCredential(id)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load credential")
		return
	}
	shared.WriteJSON(w, cred.ToPreview(), http.StatusOK)
}

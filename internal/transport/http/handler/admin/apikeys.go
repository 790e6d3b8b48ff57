package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
)

// Valid scopes and quota roles for client API keys.
var (
	validScopes = map[string]bool{"test": true, "admin": true}
	validRoles  = map[string]bool{"tester": true, "analyst": true, "admin": true}
)

// CreateAPIKeyRequest is the body for creating a client API key.
type CreateAPIKeyRequest struct {
	Name      string   `json:"name"`
	Role      string   `json:"role"`       // quota role: tester, analyst, admin
	Scopes    []string `json:"scopes"`     // ["test", "admin"]
	ExpiresIn *int     `json:"expires_in"` // Seconds until expiry (optional)
}

// CreateAPIKeyResponse includes the plaintext key (shown only once).
type CreateAPIKeyResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Key       string     `json:"key"` // Plaintext - shown only once!
	KeyPrefix string     `json:"key_prefix"`
	Role      string     `json:"role"`
	Scopes    []string   `json:"scopes"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UpdateAPIKeyRequest carries partial API key updates.
type UpdateAPIKeyRequest struct {
	Name     *string  `json:"name"`
	Role     *string  `json:"role"`
	Scopes   []string `json:"scopes"`
	IsActive *bool    `json:"is_active"`
}

// CreateAPIKey handles POST /api/admin/apikeys.
func (h *Handlers) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = "tester"
	}
	if !validRoles[req.Role] {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid role: "+req.Role)
		return
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{"test"}
	}
	for _, scope := range req.Scopes {
		if !validScopes[scope] {
			shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid scope: "+scope)
			return
		}
	}

	plainKey, err := storage.GenerateAPIKey()
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to generate key")
		return
	}

	hash, err := storage.HashPassword(plainKey, storage.DefaultArgon2Params())
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to hash key")
		return
	}

	var expiresAt *time.Time
	if req.ExpiresIn != nil && *req.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(*req.ExpiresIn) * time.Second)
		expiresAt = &t
	}

	apiKey := &storage.ClientAPIKey{
		Name:      req.Name,
		KeyHash:   hash,
		KeyPrefix: storage.ExtractKeyPrefix(plainKey),
		Role:      req.Role,
		Scopes:    req.Scopes,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}

	if err := h.Storage.CreateAPIKey(apiKey); err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to create key")
		return
	}

	shared.WriteJSON(w, CreateAPIKeyResponse{
		ID:        apiKey.ID,
		Name:      apiKey.Name,
		Key:       plainKey,
		KeyPrefix: apiKey.KeyPrefix,
		Role:      apiKey.Role,
		Scopes:    apiKey.Scopes,
		IsActive:  apiKey.IsActive,
		CreatedAt: apiKey.CreatedAt,
		ExpiresAt: apiKey.ExpiresAt,
	}, http.StatusCreated)
}

// ListAPIKeys handles GET /api/admin/apikeys.
func (h *Handlers) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Storage.ListAPIKeys()
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to list keys")
		return
	}

	previews := make([]*storage.ClientAPIKeyPreview, len(keys))
	for i, k := range keys {
		previews[i] = k.ToPreview()
	}
	shared.WriteJSON(w, map[string]any{"keys": previews, "total": len(previews)}, http.StatusOK)
}

// GetAPIKeyByID handles GET /api/admin/apikeys/{id}.
func (h *Handlers) GetAPIKeyByID(w http.ResponseWriter, r *http.Request) {
	key, err := h.Storage.GetAPIKey(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "API key not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load key")
		return
	}
	shared.WriteJSON(w, key.ToPreview(), http.StatusOK)
}

// UpdateAPIKey handles PUT /api/admin/apikeys/{id}.
func (h *Handlers) UpdateAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.Storage.GetAPIKey(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "API key not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load key")
		return
	}

	var req UpdateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		key.Name = *req.Name
	}
	if req.Role != nil {
		if !validRoles[*req.Role] {
			shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid role: "+*req.Role)
			return
		}
		key.Role = *req.Role
	}
	if req.Scopes != nil {
		for _, scope := range req.Scopes {
			if !validScopes[scope] {
				shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid scope: "+scope)
				return
			}
		}
		key.Scopes = req.Scopes
	}
	if req.IsActive != nil {
		key.IsActive = *req.IsActive
	}

	if err := h.Storage.UpdateAPIKey(key); err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to update key")
		return
	}

	h.InvalidateAPIKeyCache(key.KeyPrefix)
	shared.WriteJSON(w, key.ToPreview(), http.StatusOK)
}

// DeleteAPIKey handles DELETE /api/admin/apikeys/{id}.
func (h *Handlers) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.Storage.GetAPIKey(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "API key not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load key")
		return
	}

	if err := h.Storage.DeleteAPIKey(key.ID); err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to delete key")
		return
	}

	h.InvalidateAPIKeyCache(key.KeyPrefix)
	w.WriteHeader(http.StatusNoContent)
}

// RotateAPIKey handles POST /api/admin/apikeys/{id}/rotate: a new secret is
// generated for the same record and returned once.
func (h *Handlers) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.Storage.GetAPIKey(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, shared.KindNotFound, "API key not found")
		return
	}
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load key")
		return
	}

	plainKey, err := storage.GenerateAPIKey()
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to generate key")
		return
	}
	hash, err := storage.HashPassword(plainKey, storage.DefaultArgon2Params())
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to hash key")
		return
	}

	oldPrefix := key.KeyPrefix
	key.KeyHash = hash
	key.KeyPrefix = storage.ExtractKeyPrefix(plainKey)

	if err := h.Storage.UpdateAPIKey(key); err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to rotate key")
		return
	}

	h.InvalidateAPIKeyCache(oldPrefix)

	shared.WriteJSON(w, CreateAPIKeyResponse{
		ID:        key.ID,
		Name:      key.Name,
		Key:       plainKey,
		KeyPrefix: key.KeyPrefix,
		Role:      key.Role,
		Scopes:    key.Scopes,
		IsActive:  key.IsActive,
		CreatedAt: key.CreatedAt,
		ExpiresAt: key.ExpiresAt,
	}, http.StatusOK)
}

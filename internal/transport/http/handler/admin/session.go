package admin

import (
	"encoding/json"
	"net/http"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
	"github.com/calyptra/modelbench/internal/transport/http/middleware/auth"
)

// LoginRequest is the body for POST /api/admin/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the admin password for a session cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}

	hash, err := h.Storage.GetAdminPasswordHash()
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, "failed to load admin settings")
		return
	}

	ok, err := storage.VerifyPassword(req.Password, hash)
	if err != nil || !ok {
		shared.WriteError(w, http.StatusUnauthorized, shared.KindAuthentication, "invalid password")
		return
	}

	session := h.Sessions.Create()
	auth.SetSessionCookie(w, r, session)
	shared.WriteJSON(w, map[string]string{"message": "logged in"}, http.StatusOK)
}

// Logout destroys the current session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		h.Sessions.Delete(cookie.Value)
	}
	auth.ClearSessionCookie(w)
	shared.WriteJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// Package shared holds response helpers used by every handler package.
package shared

import (
	"encoding/json"
	"net/http"
)

// Error kinds surfaced on the wire. Every error response names its kind so
// callers can decide whether to retry, adjust parameters, or escalate.
const (
	KindInvalidRequest  = "invalid_request_error"
	KindAuthentication  = "authentication_error"
	KindPermission      = "permission_error"
	KindNotFound        = "not_found_error"
	KindUnknownModel    = "unknown_model"
	KindInvalidOverride = "invalid_override"
	KindQuotaExceeded   = "quota_exceeded"
	KindCostCeiling     = "cost_ceiling_exceeded"
	KindGuardrail       = "guardrail_blocked"
	KindAdapterFailure  = "adapter_failure"
	KindAuditFailure    = "audit_write_failed"
	KindServer          = "server_error"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error kind plus the offending scope or field when
// one exists.
type ErrorDetail struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Param   string `json:"param,omitempty"`
	Scope   string `json:"scope,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, status int, kind, message string) {
	WriteJSON(w, ErrorBody{Error: ErrorDetail{Message: message, Kind: kind}}, status)
}

// WriteErrorDetail writes a JSON error envelope with full detail.
func WriteErrorDetail(w http.ResponseWriter, status int, detail ErrorDetail) {
	WriteJSON(w, ErrorBody{Error: detail}, status)
}

// IsValidAdminPassword validates the admin password format.
// Password must be alphanumeric (a-z, A-Z, 0-9) with minimum 8 characters.
func IsValidAdminPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	for _, c := range password {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

// Package testrun serves the public test endpoints: single invocations,
// multi-model comparisons, and the bounded test history.
package testrun

import (
	"errors"
	"net/http"

	"github.com/calyptra/modelbench/internal/adapter"
	"github.com/calyptra/modelbench/internal/audit"
	"github.com/calyptra/modelbench/internal/harness"
	"github.com/calyptra/modelbench/internal/modelconf"
	"github.com/calyptra/modelbench/internal/quota"
	"github.com/calyptra/modelbench/internal/registry"
	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
)

// Handlers holds the dependencies for the test endpoints.
type Handlers struct {
	Harness      *harness.Harness
	Storage      storage.Storage
	HistoryLimit int
}

// New creates the test run handlers.
func New(h *harness.Harness, store storage.Storage, historyLimit int) *Handlers {
	return &Handlers{Harness: h, Storage: store, HistoryLimit: historyLimit}
}

// writePipelineError maps a harness error to the wire error envelope.
func writePipelineError(w http.ResponseWriter, err error) {
	var invalid *modelconf.InvalidOverrideError
	var denied *quota.DeniedError

	switch {
	case errors.Is(err, harness.ErrEmptyPrompt),
		errors.Is(err, harness.ErrInvalidComparisonSize):
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, err.Error())
	case errors.Is(err, registry.ErrUnknownModel),
		errors.Is(err, registry.ErrModelDisabled):
		shared.WriteError(w, http.StatusNotFound, shared.KindUnknownModel, err.Error())
	case errors.As(err, &invalid):
		shared.WriteErrorDetail(w, http.StatusBadRequest, shared.ErrorDetail{
			Message: err.Error(),
			Kind:    shared.KindInvalidOverride,
			Param:   invalid.Field,
		})
	case errors.Is(err, modelconf.ErrAccessDenied):
		shared.WriteError(w, http.StatusForbidden, shared.KindPermission, err.Error())
	case errors.As(err, &denied):
		kind := shared.KindQuotaExceeded
		status := http.StatusTooManyRequests
		if denied.Reason == quota.DenialCostCeiling {
			kind = shared.KindCostCeiling
			status = http.StatusPaymentRequired
		}
		shared.WriteErrorDetail(w, status, shared.ErrorDetail{
			Message: err.Error(),
			Kind:    kind,
			Scope:   string(denied.Scope),
		})
	case errors.Is(err, audit.ErrAuditWriteFailed):
		shared.WriteError(w, http.StatusInternalServerError, shared.KindAuditFailure, err.Error())
	case errors.Is(err, adapter.ErrNoAPIKey),
		errors.Is(err, adapter.ErrUnknownProvider):
		shared.WriteError(w, http.StatusBadGateway, shared.KindAdapterFailure, err.Error())
	default:
		shared.WriteError(w, http.StatusInternalServerError, shared.KindServer, err.Error())
	}
}

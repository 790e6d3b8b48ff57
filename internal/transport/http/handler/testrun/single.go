package testrun

import (
	"encoding/json"
	"net/http"

	"github.com/calyptra/modelbench/internal/harness"
	"github.com/calyptra/modelbench/internal/modelconf"
	"github.com/calyptra/modelbench/internal/storage/models"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
	"github.com/calyptra/modelbench/internal/transport/http/middleware/auth"
)

// SingleTestRequest is the body for POST /v1/test/single. Optional fields
// act as runtime-tier overrides on top of the persisted configuration.
type SingleTestRequest struct {
	Model         string   `json:"model"`
	Prompt        string   `json:"prompt"`
	UseCase       string   `json:"use_case,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	UseGuardrails *bool    `json:"use_guardrails,omitempty"`
}

// QualityMetrics are the derived per-response quality figures reported
// alongside the raw score.
type QualityMetrics struct {
	ResponseLength   int     `json:"response_length"`
	TokensEfficiency float64 `json:"tokens_efficiency"`
	CostEfficiency   float64 `json:"cost_efficiency"`
	SpeedScore       float64 `json:"speed_score"`
}

// SingleTestResponse wraps the harness result with quality metrics.
type SingleTestResponse struct {
	*harness.TestResult
	QualityMetrics QualityMetrics `json:"quality_metrics"`
}

// SingleTest handles POST /v1/test/single. A guardrail block returns the
// result with outcome "blocked"; an adapter failure is surfaced as a 502
// since a single test has no sibling results to fall back on.
func (h *Handlers) SingleTest(w http.ResponseWriter, r *http.Request) {
	var req SingleTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}
	if req.Model == "" || req.Prompt == "" {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "model and prompt are required")
		return
	}

	userID, role := auth.CallerIdentity(r.Context())

	result, err := h.Harness.RunSingle(r.Context(), &harness.SingleRequest{
		UserID:  userID,
		Role:    role,
		Model:   req.Model,
		UseCase: req.UseCase,
		Prompt:  req.Prompt,
		Runtime: runtimeOverrides(req.Temperature, req.TopP, req.MaxTokens, req.UseGuardrails),
	})
	if err != nil {
		writePipelineError(w, err)
		return
	}

	resp := SingleTestResponse{
		TestResult:     result,
		QualityMetrics: computeMetrics(result),
	}

	if result.Outcome == models.OutcomeFailure {
		shared.WriteJSON(w, map[string]any{
			"error": shared.ErrorDetail{
				Message: result.ErrorMessage,
				Kind:    shared.KindAdapterFailure,
			},
			"result": resp,
		}, http.StatusBadGateway)
		return
	}

	shared.WriteJSON(w, resp, http.StatusOK)
}

// runtimeOverrides builds the RUNTIME tier from the optional request fields.
// Returns nil when nothing was overridden.
func runtimeOverrides(temperature, topP *float64, maxTokens *int, useGuardrails *bool) *modelconf.RuntimeOverrides {
	if temperature == nil && topP == nil && maxTokens == nil && useGuardrails == nil {
		return nil
	}
	return &modelconf.RuntimeOverrides{
		Temperature:   temperature,
		TopP:          topP,
		MaxTokens:     maxTokens,
		UseGuardrails: useGuardrails,
	}
}

// computeMetrics derives the reported quality figures from a result.
func computeMetrics(r *harness.TestResult) QualityMetrics {
	m := QualityMetrics{ResponseLength: len(r.ResponseText)}
	if r.Effective != nil && r.Effective.MaxTokens > 0 {
		m.TokensEfficiency = 1.0 - float64(r.CompletionTokens)/float64(r.Effective.MaxTokens)
		if m.TokensEfficiency < 0 {
			m.TokensEfficiency = 0
		}
	}
	if r.TotalTokens > 0 {
		// Cost per 1k tokens actually observed; zero cost is perfect
		// efficiency.
		m.CostEfficiency = r.Cost / float64(r.TotalTokens) * 1000
	}
	if r.DurationMs > 0 {
		m.SpeedScore = 1000.0 / float64(r.DurationMs)
		if m.SpeedScore > 1 {
			m.SpeedScore = 1
		}
	}
	return m
}

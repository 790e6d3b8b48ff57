package testrun

import (
	"encoding/json"
	"net/http"

	"github.com/calyptra/modelbench/internal/harness"
	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
	"github.com/calyptra/modelbench/internal/transport/http/middleware/auth"
)

// CompareRequest is the body for POST /v1/test/compare. The optional
// override fields form one shared runtime configuration applied to every
// model in the comparison.
type CompareRequest struct {
	Models        []string `json:"models"`
	Prompt        string   `json:"prompt"`
	UseCase       string   `json:"use_case,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	UseGuardrails *bool    `json:"use_guardrails,omitempty"`
}

// CompareWinners names the per-axis winning models.
type CompareWinners struct {
	BestScore string `json:"best_score,omitempty"`
	Fastest   string `json:"fastest,omitempty"`
	Cheapest  string `json:"cheapest,omitempty"`
}

// CompareResponse is the wire shape for a comparison run.
type CompareResponse struct {
	Results     []*SingleTestResponse `json:"results"`
	TotalModels int                   `json:"total_models"`
	Successful  int                   `json:"successful"`
	Failed      int                   `json:"failed"`
	Winners     CompareWinners        `json:"winners"`
}

// CompareTest handles POST /v1/test/compare. Per-model failures are
// isolated: a failing model appears as a failed slot and does not abort
// its siblings.
func (h *Handlers) CompareTest(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		shared.WriteError(w, http.StatusBadRequest, shared.KindInvalidRequest, "prompt is required")
		return
	}

	userID, role := auth.CallerIdentity(r.Context())

	cmp, err := h.Harness.RunComparison(r.Context(), &harness.ComparisonRequest{
		UserID:  userID,
		Role:    role,
		Models:  req.Models,
		UseCase: req.UseCase,
		Prompt:  req.Prompt,
		Runtime: runtimeOverrides(req.Temperature, req.TopP, req.MaxTokens, req.UseGuardrails),
	})
	if err != nil {
		writePipelineError(w, err)
		return
	}

	resp := CompareResponse{
		Results:     make([]*SingleTestResponse, len(cmp.Results)),
		TotalModels: len(cmp.Results),
		Successful:  cmp.SuccessCount,
		Failed:      cmp.FailureCount,
		Winners: CompareWinners{
			BestScore: cmp.BestQuality,
			Fastest:   cmp.FastestModel,
			Cheapest:  cmp.LowestCost,
		},
	}
	for i, res := range cmp.Results {
		resp.Results[i] = &SingleTestResponse{
			TestResult:     res,
			QualityMetrics: computeMetrics(res),
		}
	}

	shared.WriteJSON(w, resp, http.StatusOK)
}

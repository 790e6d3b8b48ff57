package harness

import (
	"context"
	"errors"
	"sync"

	"github.com/calyptra/modelbench/internal/modelconf"
	"github.com/calyptra/modelbench/internal/storage/models"
)

// Comparison size bounds.
const (
	MinComparisonModels = 2
	MaxComparisonModels = 5
)

// ErrInvalidComparisonSize is returned when the model list is out of bounds
// or contains duplicates.
var ErrInvalidComparisonSize = errors.New("comparison requires 2 to 5 distinct models")

// ComparisonRequest runs the same prompt against several models. Runtime
// overrides apply to every model identically, so results differ only by
// the model under test and its persisted tiers.
type ComparisonRequest struct {
	UserID  string
	Role    string
	Models  []string
	UseCase string
	Prompt  string
	Runtime *modelconf.RuntimeOverrides
}

// ComparisonResult aggregates the per-model results with per-axis winners.
// A model that failed or was blocked is present in Results but can never
// win an axis.
type ComparisonResult struct {
	Results      []*TestResult `json:"results"`
	BestQuality  string        `json:"best_quality,omitempty"`
	LowestCost   string        `json:"lowest_cost,omitempty"`
	FastestModel string        `json:"fastest_model,omitempty"`
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
}

// RunComparison invokes every model concurrently with the same prompt and
// use case. Each model passes through the full single-test pipeline
// independently: one model being denied quota or failing does not stop the
// others. Results preserve the request's model order.
func (h *Harness) RunComparison(ctx context.Context, req *ComparisonRequest) (*ComparisonResult, error) {
	if len(req.Models) < MinComparisonModels || len(req.Models) > MaxComparisonModels {
		return nil, ErrInvalidComparisonSize
	}
	seen := make(map[string]bool, len(req.Models))
	for _, m := range req.Models {
		if seen[m] {
			return nil, ErrInvalidComparisonSize
		}
		seen[m] = true
	}

	results := make([]*TestResult, len(req.Models))
	var wg sync.WaitGroup
	for i, model := range req.Models {
		wg.Add(1)
		go func(i int, model string) {
			defer wg.Done()
			res, err := h.RunSingle(ctx, &SingleRequest{
				UserID:  req.UserID,
				Role:    req.Role,
				Model:   model,
				UseCase: req.UseCase,
				Prompt:  req.Prompt,
				Runtime: req.Runtime,
			})
			if err != nil {
				// Pre-admission rejection: surface it as a failed slot so
				// the comparison still reports every requested model.
				res = &TestResult{
					Model:        model,
					Outcome:      models.OutcomeFailure,
					ErrorMessage: err.Error(),
				}
			}
			results[i] = res
		}(i, model)
	}
	wg.Wait()

	out := &ComparisonResult{Results: results}
	var best *TestResult
	var cheapest *TestResult
	var fastest *TestResult
	for _, r := range results {
		if r.Outcome != models.OutcomeSuccess {
			out.FailureCount++
			continue
		}
		out.SuccessCount++
		if betterQuality(r, best) {
			best = r
		}
		if cheapest == nil || r.Cost < cheapest.Cost {
			cheapest = r
		}
		if fastest == nil || r.DurationMs < fastest.DurationMs {
			fastest = r
		}
	}
	if best != nil {
		out.BestQuality = best.Model
		out.LowestCost = cheapest.Model
		out.FastestModel = fastest.Model
	}
	return out, nil
}

// betterQuality reports whether a beats the current best on score, breaking
// ties by lower latency, then lower cost.
func betterQuality(a, best *TestResult) bool {
	if best == nil {
		return true
	}
	if a.QualityScore != best.QualityScore {
		return a.QualityScore > best.QualityScore
	}
	if a.DurationMs != best.DurationMs {
		return a.DurationMs < best.DurationMs
	}
	return a.Cost < best.Cost
}

// Package harness orchestrates test invocations end to end: whitelist
// lookup, configuration resolution, quota admission, dispatch, guardrails,
// scoring, and the audit/history/usage writes that follow.
package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calyptra/modelbench/internal/adapter"
	"github.com/calyptra/modelbench/internal/audit"
	"github.com/calyptra/modelbench/internal/guardrail"
	"github.com/calyptra/modelbench/internal/modelconf"
	"github.com/calyptra/modelbench/internal/quota"
	"github.com/calyptra/modelbench/internal/registry"
	"github.com/calyptra/modelbench/internal/score"
	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/storage/models"
	"github.com/calyptra/modelbench/internal/tokenizer"
)

// ErrEmptyPrompt rejects requests with no prompt before any quota is spent.
var ErrEmptyPrompt = errors.New("prompt must not be empty")

// SingleRequest is one test invocation to run.
type SingleRequest struct {
	UserID  string
	Role    string
	Model   string
	UseCase string
	Prompt  string
	Runtime *modelconf.RuntimeOverrides
}

// TestResult is the outcome of one invocation, successful or not. The wire
// names match the history entry: tokens_used is the full exchange
// (prompt plus completion) and response_time_ms is end-to-end latency.
type TestResult struct {
	RequestID        string               `json:"request_id"`
	Model            string               `json:"model"`
	Provider         string               `json:"provider"`
	UseCase          string               `json:"use_case,omitempty"`
	ResponseText     string               `json:"response,omitempty"`
	Effective        *modelconf.Effective `json:"effective_config"`
	PromptTokens     int                  `json:"prompt_tokens"`
	CompletionTokens int                  `json:"completion_tokens"`
	TotalTokens      int                  `json:"tokens_used"`
	Cost             float64              `json:"cost"`
	DurationMs       int64                `json:"response_time_ms"`
	Outcome          string               `json:"outcome"`
	GuardrailPassed  bool                 `json:"guardrails_passed"`
	QualityScore     int                  `json:"quality_score"`
	ErrorMessage     string               `json:"error_message,omitempty"`

	// FallbackFrom names the originally requested model when quota denial
	// substituted the configured fallback.
	FallbackFrom string `json:"fallback_from,omitempty"`
}

// Harness wires the pipeline stages together.
type Harness struct {
	registry     *registry.Registry
	resolver     *modelconf.Resolver
	guard        *quota.Guard
	ledger       *audit.Ledger
	guardrails   *guardrail.Registry
	adapters     *adapter.Registry
	counter      tokenizer.Tokenizer
	store        storage.Storage
	timeout      time.Duration
	historyLimit int
	logger       *slog.Logger
}

// Options collects the harness dependencies.
type Options struct {
	Registry     *registry.Registry
	Resolver     *modelconf.Resolver
	Guard        *quota.Guard
	Ledger       *audit.Ledger
	Guardrails   *guardrail.Registry
	Adapters     *adapter.Registry
	Counter      tokenizer.Tokenizer
	Store        storage.Storage
	Timeout      time.Duration
	HistoryLimit int
	Logger       *slog.Logger
}

// New creates a test harness.
func New(opts Options) *Harness {
	return &Harness{
		registry:     opts.Registry,
		resolver:     opts.Resolver,
		guard:        opts.Guard,
		ledger:       opts.Ledger,
		guardrails:   opts.Guardrails,
		adapters:     opts.Adapters,
		counter:      opts.Counter,
		store:        opts.Store,
		timeout:      opts.Timeout,
		historyLimit: opts.HistoryLimit,
		logger:       opts.Logger,
	}
}

// RunSingle executes one test invocation through the full pipeline.
//
// Pre-admission rejections (unknown model, invalid override, access denial,
// quota denial) return an error and touch nothing. Once quota is reserved,
// every outcome produces exactly one audit entry, one history entry, and one
// usage rollup; adapter failures refund the reservation, guardrail blocks do
// not.
func (h *Harness) RunSingle(ctx context.Context, req *SingleRequest) (*TestResult, error) {
	return h.run(ctx, req, true)
}

func (h *Harness) run(ctx context.Context, req *SingleRequest, allowFallback bool) (*TestResult, error) {
	if req.Prompt == "" {
		return nil, ErrEmptyPrompt
	}

	desc, err := h.registry.ResolveEnabled(req.Model)
	if err != nil {
		return nil, err
	}

	eff, err := h.resolver.Resolve(req.Model, req.UseCase, req.UserID, req.Role, req.Runtime)
	if err != nil {
		return nil, err
	}

	promptTokens, err := h.counter.CountPrompt(req.Prompt, req.Model)
	if err != nil {
		promptTokens = tokenizer.EstimateTokens(req.Prompt)
	}
	estimatedCost := desc.EstimateCost(promptTokens + eff.MaxTokens)

	adm, err := h.guard.Admit(req.UserID, req.Role, estimatedCost, eff.MaxCostPerRequest)
	if err != nil {
		// Denial attempts fallback substitution once: the configured
		// fallback (typically cheaper or local-free) runs the full
		// pipeline under its own configuration.
		var denied *quota.DeniedError
		if allowFallback && errors.As(err, &denied) &&
			eff.FallbackModel != "" && eff.FallbackModel != req.Model {
			fbReq := *req
			fbReq.Model = eff.FallbackModel
			res, fbErr := h.run(ctx, &fbReq, false)
			if fbErr != nil {
				return nil, err // surface the original denial
			}
			res.FallbackFrom = req.Model
			h.logger.Info("quota denial substituted fallback model",
				"requested", req.Model, "fallback", eff.FallbackModel,
				"reason", string(denied.Reason))
			return res, nil
		}
		return nil, err
	}

	result := &TestResult{
		RequestID:       uuid.New().String(),
		Model:           req.Model,
		Provider:        desc.Provider,
		UseCase:         req.UseCase,
		Effective:       eff,
		PromptTokens:    promptTokens,
		GuardrailPassed: true,
	}

	start := time.Now()

	if eff.RequireGuardrails {
		if err := h.guardrails.RunPreCall(ctx, req.Prompt); err != nil {
			var blocked *guardrail.BlockedError
			if errors.As(err, &blocked) {
				// Policy block: the reservation is consumed, not refunded.
				return h.finishBlocked(req, desc, result, start, blocked)
			}
			h.guard.Refund(adm)
			return nil, err
		}
	}

	resp, invokeErr := h.invoke(ctx, desc, req, eff)
	result.DurationMs = time.Since(start).Milliseconds()

	if invokeErr != nil {
		h.guard.Refund(adm)
		return h.finishFailure(req, desc, result, invokeErr)
	}

	result.ResponseText = resp.Text
	if resp.PromptTokens > 0 {
		result.PromptTokens = resp.PromptTokens
	}
	result.CompletionTokens = resp.CompletionTokens
	result.TotalTokens = resp.TotalTokens
	if result.TotalTokens == 0 {
		result.TotalTokens = result.PromptTokens + result.CompletionTokens
	}
	result.Cost = desc.EstimateCost(result.TotalTokens)
	h.guard.Settle(adm, result.Cost)

	if eff.RequireGuardrails {
		if err := h.guardrails.RunPostCall(ctx, req.Prompt, resp.Text); err != nil {
			var blocked *guardrail.BlockedError
			if errors.As(err, &blocked) {
				result.ResponseText = ""
				return h.finishBlocked(req, desc, result, start, blocked)
			}
			return h.finishFailure(req, desc, result, err)
		}
	}

	result.Outcome = models.OutcomeSuccess
	result.QualityScore = score.Compute(score.Input{
		Successful:      true,
		GuardrailPassed: result.GuardrailPassed,
		TokensUsed:      result.TotalTokens,
		MaxTokens:       eff.MaxTokens,
		LatencyMs:       result.DurationMs,
	})

	if err := h.recordOutcome(req, desc, result); err != nil {
		return nil, err
	}
	return result, nil
}

// invoke dispatches to the provider adapter under the configured timeout.
func (h *Harness) invoke(ctx context.Context, desc *models.ModelDescriptor,
	req *SingleRequest, eff *modelconf.Effective) (*adapter.Response, error) {

	ad, err := h.adapters.For(desc.Provider)
	if err != nil {
		return nil, err
	}

	apiKey := ""
	if desc.Provider != "local" {
		cred, err := h.store.GetDefaultCredential(desc.Provider)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, adapter.ErrNoAPIKey
			}
			return nil, fmt.Errorf("failed to load credential: %w", err)
		}
		apiKey = cred.APIKey
	}

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	return ad.Invoke(callCtx, apiKey, &adapter.Request{
		Model:            req.Model,
		Prompt:           req.Prompt,
		Temperature:      eff.Temperature,
		TopP:             eff.TopP,
		MaxTokens:        eff.MaxTokens,
		FrequencyPenalty: eff.FrequencyPenalty,
		PresencePenalty:  eff.PresencePenalty,
	})
}

// finishBlocked records a guardrail block: outcome blocked, score zero,
// quota kept.
func (h *Harness) finishBlocked(req *SingleRequest, desc *models.ModelDescriptor,
	result *TestResult, start time.Time, blocked *guardrail.BlockedError) (*TestResult, error) {

	result.Outcome = models.OutcomeBlocked
	result.GuardrailPassed = false
	result.QualityScore = 0
	result.ErrorMessage = blocked.Error()
	if result.DurationMs == 0 {
		result.DurationMs = time.Since(start).Milliseconds()
	}
	if err := h.recordOutcome(req, desc, result); err != nil {
		return nil, err
	}
	return result, nil
}

// finishFailure records an invocation failure: outcome failure, score zero.
func (h *Harness) finishFailure(req *SingleRequest, desc *models.ModelDescriptor,
	result *TestResult, cause error) (*TestResult, error) {

	result.Outcome = models.OutcomeFailure
	result.QualityScore = 0
	result.ErrorMessage = cause.Error()
	result.ResponseText = ""
	result.Cost = 0
	if err := h.recordOutcome(req, desc, result); err != nil {
		return nil, err
	}
	return result, nil
}

// recordOutcome performs the post-invocation writes. The audit append is
// load-bearing: if it fails the whole request fails. History and usage
// writes are best-effort and logged.
func (h *Harness) recordOutcome(req *SingleRequest, desc *models.ModelDescriptor, result *TestResult) error {
	entry := &models.RequestLogEntry{
		RequestID:        result.RequestID,
		UserID:           req.UserID,
		Role:             req.Role,
		Model:            req.Model,
		Provider:         desc.Provider,
		UseCase:          req.UseCase,
		EffectiveParams:  audit.MarshalParams(result.Effective),
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
		Outcome:          result.Outcome,
		GuardrailPassed:  result.GuardrailPassed,
		Cost:             result.Cost,
		DurationMs:       result.DurationMs,
		ErrorMessage:     result.ErrorMessage,
	}
	if err := h.ledger.Record(entry); err != nil {
		return err
	}

	hist := &models.TestHistoryEntry{
		Model:         req.Model,
		Provider:      desc.Provider,
		UseCase:       req.UseCase,
		ConfigTier:    highestTier(result.Effective),
		TokensUsed:    result.TotalTokens,
		Cost:          result.Cost,
		DurationMs:    result.DurationMs,
		QualityScore:  result.QualityScore,
		WasSuccessful: result.Outcome == models.OutcomeSuccess,
	}
	if err := h.store.AppendTestHistory(hist, h.historyLimit); err != nil {
		h.logger.Error("failed to append test history", "error", err)
	}

	usage := &models.DailyUsage{
		Date:         time.Now().UTC().Format("2006-01-02"),
		UserID:       req.UserID,
		Model:        req.Model,
		RequestCount: 1,
		TotalTokens:  result.TotalTokens,
		TotalCost:    result.Cost,
	}
	switch result.Outcome {
	case models.OutcomeFailure:
		usage.ErrorCount = 1
	case models.OutcomeBlocked:
		usage.BlockedCount = 1
	}
	if err := h.store.UpdateDailyUsage(usage); err != nil {
		h.logger.Error("failed to update usage rollup", "error", err)
	}

	return nil
}

// highestTier reports the highest tier that contributed any parameter to the
// effective configuration.
func highestTier(eff *modelconf.Effective) string {
	rank := map[string]int{
		string(models.TierGlobal):  1,
		string(models.TierModel):   2,
		string(models.TierUseCase): 3,
		string(models.TierRuntime): 4,
	}
	best, bestRank := "", 0
	for _, tier := range eff.SourceTiers {
		if r := rank[tier]; r > bestRank {
			best, bestRank = tier, r
		}
	}
	return best
}

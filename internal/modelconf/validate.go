package modelconf

import (
	"fmt"
	"strings"

	"github.com/calyptra/modelbench/internal/storage/models"
)

// Parameter bounds enforced on every tier, including runtime overrides.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 100000
	MinPenalty     = -2.0
	MaxPenalty     = 2.0
)

// InvalidOverrideError reports a parameter that failed range validation.
// The whole override set is rejected; nothing is partially applied.
type InvalidOverrideError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("invalid override %s=%v: %s", e.Field, e.Value, e.Reason)
}

// ValidateRecord checks every set field of a configuration record against the
// engine's parameter bounds. Returns the first violation found.
func ValidateRecord(rec *models.ConfigRecord) error {
	if rec.Temperature != nil && (*rec.Temperature < MinTemperature || *rec.Temperature > MaxTemperature) {
		return &InvalidOverrideError{
			Field: "temperature", Value: *rec.Temperature,
			Reason: fmt.Sprintf("must be in [%g, %g]", MinTemperature, MaxTemperature),
		}
	}
	if rec.TopP != nil && (*rec.TopP < MinTopP || *rec.TopP > MaxTopP) {
		return &InvalidOverrideError{
			Field: "top_p", Value: *rec.TopP,
			Reason: fmt.Sprintf("must be in [%g, %g]", MinTopP, MaxTopP),
		}
	}
	if rec.MaxTokens != nil && (*rec.MaxTokens < MinMaxTokens || *rec.MaxTokens > MaxMaxTokens) {
		return &InvalidOverrideError{
			Field: "max_tokens", Value: *rec.MaxTokens,
			Reason: fmt.Sprintf("must be in [%d, %d]", MinMaxTokens, MaxMaxTokens),
		}
	}
	if rec.FrequencyPenalty != nil && (*rec.FrequencyPenalty < MinPenalty || *rec.FrequencyPenalty > MaxPenalty) {
		return &InvalidOverrideError{
			Field: "frequency_penalty", Value: *rec.FrequencyPenalty,
			Reason: fmt.Sprintf("must be in [%g, %g]", MinPenalty, MaxPenalty),
		}
	}
	if rec.PresencePenalty != nil && (*rec.PresencePenalty < MinPenalty || *rec.PresencePenalty > MaxPenalty) {
		return &InvalidOverrideError{
			Field: "presence_penalty", Value: *rec.PresencePenalty,
			Reason: fmt.Sprintf("must be in [%g, %g]", MinPenalty, MaxPenalty),
		}
	}
	if rec.MaxCostPerRequest != nil && *rec.MaxCostPerRequest < 0 {
		return &InvalidOverrideError{
			Field: "max_cost_per_request", Value: *rec.MaxCostPerRequest,
			Reason: "must not be negative",
		}
	}
	return nil
}

// ValidateTierScope checks the tier/scope pairing rules: GLOBAL records carry
// no scope, MODEL and USE_CASE records require one, and RUNTIME overrides are
// never persisted as records.
func ValidateTierScope(tier models.ConfigTier, scope string) error {
	switch tier {
	case models.TierGlobal:
		if scope != "" {
			return &InvalidOverrideError{Field: "scope", Value: scope,
				Reason: "global records must not carry a scope"}
		}
	case models.TierModel, models.TierUseCase:
		if strings.TrimSpace(scope) == "" {
			return &InvalidOverrideError{Field: "scope", Value: scope,
				Reason: fmt.Sprintf("%s records require a scope", tier)}
		}
	case models.TierRuntime:
		return &InvalidOverrideError{Field: "tier", Value: tier,
			Reason: "runtime overrides are per-request and cannot be persisted"}
	default:
		return &InvalidOverrideError{Field: "tier", Value: tier,
			Reason: "unknown tier"}
	}
	return nil
}

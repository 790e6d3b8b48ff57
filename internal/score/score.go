// Package score computes the heuristic quality score for a completed test
// invocation. The score is deterministic: the same outcome always yields
// the same number, so runs are comparable across models and time.
package score

// Bonus thresholds. A response earns each bonus independently.
const (
	BaseScore          = 70
	GuardrailBonus     = 10
	TokenEfficiencyMax = 0.8 // tokens used below this fraction of max_tokens
	TokenBonus         = 10
	LatencyThresholdMs = 3000
	LatencyBonus       = 10
)

// Input describes one finished invocation. TokensUsed is the total token
// count of the exchange (prompt plus completion), matching the tokens_used
// figure reported on the wire and in history.
type Input struct {
	Successful      bool
	GuardrailPassed bool
	TokensUsed      int
	MaxTokens       int
	LatencyMs       int64
}

// Compute returns the quality score in [0, 100]. A failed invocation scores
// zero regardless of anything else.
func Compute(in Input) int {
	if !in.Successful {
		return 0
	}
	s := BaseScore
	if in.GuardrailPassed {
		s += GuardrailBonus
	}
	if in.MaxTokens > 0 && float64(in.TokensUsed) < TokenEfficiencyMax*float64(in.MaxTokens) {
		s += TokenBonus
	}
	if in.LatencyMs < LatencyThresholdMs {
		s += LatencyBonus
	}
	return s
}

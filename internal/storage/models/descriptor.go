// Package models contains data models for storage operations.
package models

import "time"

// ModelDescriptor is one entry in the model whitelist. Models are registered
// by an administrative action and are never auto-created from unrecognized
// identifiers; invocation against an unregistered or disabled model is rejected.
type ModelDescriptor struct {
	ID              string    `json:"id"`       // e.g. "gpt-4", "claude-3-haiku"
	Provider        string    `json:"provider"` // openai, anthropic, local
	DisplayName     string    `json:"display_name"`
	CostPer1KTokens float64   `json:"cost_per_1k_tokens"`
	MaxContext      int       `json:"max_context"`
	SupportsStream  bool      `json:"supports_streaming"`
	SupportsTools   bool      `json:"supports_functions"`
	SupportsVision  bool      `json:"supports_vision"`
	Enabled         bool      `json:"enabled"`
	IsLocalFree     bool      `json:"is_local_free"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EstimateCost returns the estimated USD cost for a token count.
// Local free models always cost zero regardless of their configured rate.
func (m *ModelDescriptor) EstimateCost(tokens int) float64 {
	if m.IsLocalFree {
		return 0
	}
	return float64(tokens) / 1000.0 * m.CostPer1KTokens
}

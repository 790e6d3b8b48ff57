package models

import "time"

// ConfigTier identifies one level of the override hierarchy, in increasing
// priority order: GLOBAL → MODEL → USE_CASE → RUNTIME. RUNTIME overrides are
// supplied per request and never persisted.
type ConfigTier string

const (
	TierGlobal  ConfigTier = "GLOBAL"
	TierModel   ConfigTier = "MODEL"
	TierUseCase ConfigTier = "USE_CASE"
	TierRuntime ConfigTier = "RUNTIME"
)

// ConfigRecord is a partial parameter set at one tier. Nil fields are not set
// at this tier and retain the value merged from lower tiers. Scope is empty
// for GLOBAL, a model id for MODEL, and a use-case name for USE_CASE.
type ConfigRecord struct {
	ID                string     `json:"id"`
	Tier              ConfigTier `json:"tier"`
	Scope             string     `json:"scope"`
	Temperature       *float64   `json:"temperature,omitempty"`
	TopP              *float64   `json:"top_p,omitempty"`
	MaxTokens         *int       `json:"max_tokens,omitempty"`
	FrequencyPenalty  *float64   `json:"frequency_penalty,omitempty"`
	PresencePenalty   *float64   `json:"presence_penalty,omitempty"`
	MaxCostPerRequest *float64   `json:"max_cost_per_request,omitempty"`
	AllowedRoles      []string   `json:"allowed_roles,omitempty"`
	AllowedUsers      []string   `json:"allowed_users,omitempty"`
	FallbackModel     string     `json:"fallback_model,omitempty"`
	RequireGuardrails *bool      `json:"requires_guardrails,omitempty"`
	IsDefault         bool       `json:"is_default"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

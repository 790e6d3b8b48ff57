package models

import "time"

// Request outcomes recorded in the audit log.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBlocked = "blocked"
)

// RequestLogEntry is one immutable audit record. Exactly one entry is written
// per dispatched-or-rejected request; entries are never mutated and are only
// removed by the explicit retention purge.
type RequestLogEntry struct {
	ID               string    `json:"id"`
	RequestID        string    `json:"request_id"`
	UserID           string    `json:"user_id"`
	Role             string    `json:"role"`
	Model            string    `json:"model"`
	Provider         string    `json:"provider"`
	UseCase          string    `json:"use_case,omitempty"`
	EffectiveParams  string    `json:"effective_params"` // resolved config, JSON-encoded
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Outcome          string    `json:"outcome"` // success, failure, blocked
	GuardrailPassed  bool      `json:"guardrail_passed"`
	Cost             float64   `json:"cost"`
	DurationMs       int64     `json:"duration_ms"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// LogFilter contains parameters for filtering audit log queries.
type LogFilter struct {
	UserID    string
	Role      string
	Model     string
	Provider  string
	Outcome   string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

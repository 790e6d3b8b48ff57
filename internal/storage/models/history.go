package models

import "time"

// TestHistoryEntry is a durable, size-bounded summary of one test invocation.
// The store keeps the most recent entries only; eviction is strict insertion
// order (FIFO), never score-based.
type TestHistoryEntry struct {
	ID            string    `json:"id"`
	Model         string    `json:"model"`
	Provider      string    `json:"provider"`
	UseCase       string    `json:"use_case,omitempty"`
	ConfigTier    string    `json:"config_tier,omitempty"` // highest tier that contributed
	TokensUsed    int       `json:"tokens_used"`
	Cost          float64   `json:"cost"`
	DurationMs    int64     `json:"response_time_ms"`
	QualityScore  int       `json:"quality_score"`
	WasSuccessful bool      `json:"was_successful"`
	CreatedAt     time.Time `json:"created_at"`
}

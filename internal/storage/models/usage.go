package models

import "time"

// DailyUsage represents aggregated usage stats for a day, derived from the
// audit log at write time (one upsert per recorded request).
type DailyUsage struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	UserID       string  `json:"user_id,omitempty"`
	Model        string  `json:"model"`
	RequestCount int     `json:"request_count"`
	TotalTokens  int     `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
	ErrorCount   int     `json:"error_count"`
	BlockedCount int     `json:"blocked_count"`
}

// ModelStats represents usage statistics for a specific model
type ModelStats struct {
	Model        string  `json:"model"`
	RequestCount int     `json:"request_count"`
	TotalTokens  int     `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
	ErrorCount   int     `json:"error_count"`
	BlockedCount int     `json:"blocked_count"`
}

// UsageStats represents aggregated usage statistics
type UsageStats struct {
	TotalRequests  int                    `json:"total_requests"`
	TotalTokens    int                    `json:"total_tokens"`
	TotalCost      float64                `json:"total_cost"`
	ErrorCount     int                    `json:"error_count"`
	BlockedCount   int                    `json:"blocked_count"`
	ModelBreakdown map[string]*ModelStats `json:"models,omitempty"`
}

// StatsFilter contains parameters for filtering usage statistics
type StatsFilter struct {
	UserID    string
	Model     string
	StartDate *time.Time
	EndDate   *time.Time
}

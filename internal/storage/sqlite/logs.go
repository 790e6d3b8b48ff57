package sqlite

import (
	"fmt"
	"time"

	"github.com/calyptra/modelbench/internal/storage/models"
)

// AppendRequestLog stores one immutable audit entry. Errors are returned to
// the caller, never swallowed: the audit ledger treats a failed append as
// fatal for the request it describes.
func (s *Storage) AppendRequestLog(entry *models.RequestLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if entry.UserID == "" || entry.Model == "" || entry.Outcome == "" {
		return ErrInvalidInput
	}

	if entry.ID == "" {
		entry.ID = generateID("log")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO request_logs (id, request_id, user_id, role, model, provider, use_case,
			effective_params, prompt_tokens, completion_tokens, total_tokens,
			outcome, guardrail_passed, cost, duration_ms, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.RequestID, entry.UserID, entry.Role, entry.Model, entry.Provider,
		entry.UseCase, entry.EffectiveParams, entry.PromptTokens, entry.CompletionTokens,
		entry.TotalTokens, entry.Outcome, boolToInt(entry.GuardrailPassed), entry.Cost,
		entry.DurationMs, nullString(entry.ErrorMessage), entry.CreatedAt)

	return err
}

// GetRequestLogs retrieves audit entries with filtering
func (s *Storage) GetRequestLogs(filter models.LogFilter) ([]*models.RequestLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query := `SELECT id, request_id, user_id, role, model, provider, use_case,
		effective_params, prompt_tokens, completion_tokens, total_tokens,
		outcome, guardrail_passed, cost, duration_ms, COALESCE(error_message, ''), created_at
		FROM request_logs WHERE 1=1`

	var args []interface{}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.Role != "" {
		query += " AND role = ?"
		args = append(args, filter.Role)
	}
	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	if filter.Provider != "" {
		query += " AND provider = ?"
		args = append(args, filter.Provider)
	}
	if filter.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, filter.Outcome)
	}
	if filter.StartDate != nil {
		query += " AND created_at >= ?"
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += " AND created_at <= ?"
		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.RequestLogEntry
	for rows.Next() {
		var entry models.RequestLogEntry
		var guardrailPassed int

		err := rows.Scan(&entry.ID, &entry.RequestID, &entry.UserID, &entry.Role,
			&entry.Model, &entry.Provider, &entry.UseCase, &entry.EffectiveParams,
			&entry.PromptTokens, &entry.CompletionTokens, &entry.TotalTokens,
			&entry.Outcome, &guardrailPassed, &entry.Cost, &entry.DurationMs,
			&entry.ErrorMessage, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}

		entry.GuardrailPassed = guardrailPassed == 1
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// DeleteRequestLogs removes entries older than the specified date. This is
// the only deletion path for the audit log (explicit retention purge).
func (s *Storage) DeleteRequestLogs(olderThan string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	result, err := s.db.Exec("DELETE FROM request_logs WHERE DATE(created_at) < ?", olderThan)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

package sqlite

import (
	"database/sql"

	"github.com/calyptra/modelbench/internal/storage/models"
)

// SetQuotaLimit upserts an administrator-configured quota limit
func (s *Storage) SetQuotaLimit(limit *models.QuotaLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if limit.Scope == "" || limit.Period == "" {
		return ErrInvalidInput
	}

	_, err := s.db.Exec(`
		INSERT INTO quota_limits (scope, scope_id, period, max_requests, max_cost)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(scope, scope_id, period) DO UPDATE SET
			max_requests = excluded.max_requests,
			max_cost = excluded.max_cost
	`, limit.Scope, limit.ScopeID, limit.Period, limit.MaxRequests, limit.MaxCost)

	return err
}

// GetQuotaLimit retrieves the limit for one scope key, or ErrNotFound if the
// scope is unlimited (no limit configured).
func (s *Storage) GetQuotaLimit(scope models.QuotaScope, scopeID string, period models.QuotaPeriod) (*models.QuotaLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	var limit models.QuotaLimit
	err := s.db.QueryRow(`
		SELECT scope, scope_id, period, max_requests, max_cost
		FROM quota_limits WHERE scope = ? AND scope_id = ? AND period = ?
	`, scope, scopeID, period).Scan(
		&limit.Scope, &limit.ScopeID, &limit.Period, &limit.MaxRequests, &limit.MaxCost)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &limit, nil
}

// ListQuotaLimits retrieves all configured quota limits
func (s *Storage) ListQuotaLimits() ([]*models.QuotaLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT scope, scope_id, period, max_requests, max_cost
		FROM quota_limits ORDER BY scope ASC, scope_id ASC, period ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var limits []*models.QuotaLimit
	for rows.Next() {
		var limit models.QuotaLimit
		if err := rows.Scan(&limit.Scope, &limit.ScopeID, &limit.Period,
			&limit.MaxRequests, &limit.MaxCost); err != nil {
			return nil, err
		}
		limits = append(limits, &limit)
	}

	return limits, rows.Err()
}

// DeleteQuotaLimit removes a quota limit
func (s *Storage) DeleteQuotaLimit(scope models.QuotaScope, scopeID string, period models.QuotaPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	result, err := s.db.Exec(
		"DELETE FROM quota_limits WHERE scope = ? AND scope_id = ? AND period = ?",
		scope, scopeID, period)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetQuotaCounter retrieves the consumed amount for one scope key within the
// given window. A stored counter from an earlier window reads as zero: the
// window boundary has been crossed and consumption starts over.
func (s *Storage) GetQuotaCounter(scope models.QuotaScope, scopeID string, period models.QuotaPeriod, window string) (*models.QuotaCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	counter := &models.QuotaCounter{
		Scope:   scope,
		ScopeID: scopeID,
		Period:  period,
		Window:  window,
	}

	var storedWindow string
	var requestCount int
	var costUsed float64

	err := s.db.QueryRow(`
		SELECT window, request_count, cost_used
		FROM quota_counters WHERE scope = ? AND scope_id = ? AND period = ?
	`, scope, scopeID, period).Scan(&storedWindow, &requestCount, &costUsed)

	if err == sql.ErrNoRows {
		return counter, nil
	}
	if err != nil {
		return nil, err
	}

	if storedWindow == window {
		counter.RequestCount = requestCount
		counter.CostUsed = costUsed
	}

	return counter, nil
}

// ApplyQuotaUsage increments every counter in the admission chain in a single
// transaction. A counter whose stored window differs from the key's window is
// reset to the increment (the old window's consumption expires).
func (s *Storage) ApplyQuotaUsage(keys []models.CounterKey, requests int, cost float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.Exec(`
			INSERT INTO quota_counters (scope, scope_id, period, window, request_count, cost_used)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(scope, scope_id, period) DO UPDATE SET
				request_count = CASE WHEN window = excluded.window
					THEN request_count + excluded.request_count
					ELSE excluded.request_count END,
				cost_used = CASE WHEN window = excluded.window
					THEN cost_used + excluded.cost_used
					ELSE excluded.cost_used END,
				window = excluded.window
		`, key.Scope, key.ScopeID, key.Period, key.Window, requests, cost); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RefundQuotaUsage decrements counters after an adapter failure, flooring at
// zero. Counters whose window has since rolled over are left untouched.
func (s *Storage) RefundQuotaUsage(keys []models.CounterKey, requests int, cost float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.Exec(`
			UPDATE quota_counters
			SET request_count = MAX(request_count - ?, 0),
				cost_used = MAX(cost_used - ?, 0)
			WHERE scope = ? AND scope_id = ? AND period = ? AND window = ?
		`, requests, cost, key.Scope, key.ScopeID, key.Period, key.Window); err != nil {
			return err
		}
	}

	return tx.Commit()
}

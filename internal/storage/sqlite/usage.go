package sqlite

import (
	"github.com/calyptra/modelbench/internal/storage/models"
)

// UpdateDailyUsage upserts daily usage data
func (s *Storage) UpdateDailyUsage(usage *models.DailyUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO usage_daily (date, user_id, model, request_count,
			total_tokens, total_cost, error_count, blocked_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, user_id, model) DO UPDATE SET
			request_count = request_count + excluded.request_count,
			total_tokens = total_tokens + excluded.total_tokens,
			total_cost = total_cost + excluded.total_cost,
			error_count = error_count + excluded.error_count,
			blocked_count = blocked_count + excluded.blocked_count
	`, usage.Date, usage.UserID, usage.Model, usage.RequestCount,
		usage.TotalTokens, usage.TotalCost, usage.ErrorCount, usage.BlockedCount)

	return err
}

// GetUsageStats retrieves aggregated usage statistics
func (s *Storage) GetUsageStats(filter models.StatsFilter) (*models.UsageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query := `SELECT
		COALESCE(SUM(request_count), 0),
		COALESCE(SUM(total_tokens), 0),
		COALESCE(SUM(total_cost), 0),
		COALESCE(SUM(error_count), 0),
		COALESCE(SUM(blocked_count), 0)
		FROM usage_daily WHERE 1=1`

	var args []interface{}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	if filter.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, filter.StartDate.Format("2006-01-02"))
	}
	if filter.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, filter.EndDate.Format("2006-01-02"))
	}

	stats := &models.UsageStats{
		ModelBreakdown: make(map[string]*models.ModelStats),
	}

	err := s.db.QueryRow(query, args...).Scan(
		&stats.TotalRequests,
		&stats.TotalTokens,
		&stats.TotalCost,
		&stats.ErrorCount,
		&stats.BlockedCount,
	)
	if err != nil {
		return nil, err
	}

	// Get model breakdown
	modelQuery := `SELECT model,
		COALESCE(SUM(request_count), 0),
		COALESCE(SUM(total_tokens), 0),
		COALESCE(SUM(total_cost), 0),
		COALESCE(SUM(error_count), 0),
		COALESCE(SUM(blocked_count), 0)
		FROM usage_daily WHERE 1=1`

	if filter.UserID != "" {
		modelQuery += " AND user_id = ?"
	}
	if filter.Model != "" {
		modelQuery += " AND model = ?"
	}
	if filter.StartDate != nil {
		modelQuery += " AND date >= ?"
	}
	if filter.EndDate != nil {
		modelQuery += " AND date <= ?"
	}
	modelQuery += " GROUP BY model"

	rows, err := s.db.Query(modelQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ms models.ModelStats
		err := rows.Scan(&ms.Model, &ms.RequestCount, &ms.TotalTokens,
			&ms.TotalCost, &ms.ErrorCount, &ms.BlockedCount)
		if err != nil {
			return nil, err
		}
		stats.ModelBreakdown[ms.Model] = &ms
	}

	return stats, rows.Err()
}

// GetDailyUsage retrieves daily usage data for a date range
func (s *Storage) GetDailyUsage(startDate, endDate string) ([]*models.DailyUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT date, user_id, model, request_count, total_tokens,
			total_cost, error_count, blocked_count
		FROM usage_daily
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, model ASC
	`, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []*models.DailyUsage
	for rows.Next() {
		var u models.DailyUsage
		err := rows.Scan(&u.Date, &u.UserID, &u.Model, &u.RequestCount,
			&u.TotalTokens, &u.TotalCost, &u.ErrorCount, &u.BlockedCount)
		if err != nil {
			return nil, err
		}
		usage = append(usage, &u)
	}

	return usage, rows.Err()
}

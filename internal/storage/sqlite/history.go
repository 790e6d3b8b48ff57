package sqlite

import (
	"time"

	"github.com/calyptra/modelbench/internal/storage/models"
)

// AppendTestHistory stores one history entry and evicts the oldest entries
// beyond limit in the same transaction. Eviction is strict insertion order.
func (s *Storage) AppendTestHistory(entry *models.TestHistoryEntry, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if entry.Model == "" {
		return ErrInvalidInput
	}

	if entry.ID == "" {
		entry.ID = generateID("hist")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO test_history (id, model, provider, use_case, config_tier,
			tokens_used, cost, duration_ms, quality_score, was_successful, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Model, entry.Provider, entry.UseCase, entry.ConfigTier,
		entry.TokensUsed, entry.Cost, entry.DurationMs, entry.QualityScore,
		boolToInt(entry.WasSuccessful), entry.CreatedAt); err != nil {
		return err
	}

	if limit > 0 {
		if _, err := tx.Exec(`
			DELETE FROM test_history WHERE seq NOT IN (
				SELECT seq FROM test_history ORDER BY seq DESC LIMIT ?
			)
		`, limit); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListTestHistory retrieves up to limit entries, most recent first
func (s *Storage) ListTestHistory(limit int) ([]*models.TestHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT id, model, provider, use_case, config_tier, tokens_used, cost,
			duration_ms, quality_score, was_successful, created_at
		FROM test_history ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.TestHistoryEntry
	for rows.Next() {
		var entry models.TestHistoryEntry
		var wasSuccessful int

		err := rows.Scan(&entry.ID, &entry.Model, &entry.Provider, &entry.UseCase,
			&entry.ConfigTier, &entry.TokensUsed, &entry.Cost, &entry.DurationMs,
			&entry.QualityScore, &wasSuccessful, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}

		entry.WasSuccessful = wasSuccessful == 1
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// CountTestHistory returns the number of stored history entries
func (s *Storage) CountTestHistory() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM test_history").Scan(&count)
	return count, err
}

// ClearTestHistory drops all history entries
func (s *Storage) ClearTestHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec("DELETE FROM test_history")
	return err
}

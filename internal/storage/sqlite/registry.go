package sqlite

import (
	"database/sql"
	"time"

	"github.com/calyptra/modelbench/internal/storage/models"
)

const descriptorColumns = `id, provider, display_name, cost_per_1k_tokens, max_context,
	supports_streaming, supports_functions, supports_vision, enabled, is_local_free,
	created_at, updated_at`

// CreateModel registers a new model descriptor in the whitelist
func (s *Storage) CreateModel(m *models.ModelDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if m.ID == "" || m.Provider == "" || m.DisplayName == "" {
		return ErrInvalidInput
	}

	var exists int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM model_registry WHERE id = ?", m.ID).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return ErrDuplicateKey
	}

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO model_registry (`+descriptorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Provider, m.DisplayName, m.CostPer1KTokens, m.MaxContext,
		boolToInt(m.SupportsStream), boolToInt(m.SupportsTools), boolToInt(m.SupportsVision),
		boolToInt(m.Enabled), boolToInt(m.IsLocalFree), m.CreatedAt, m.UpdatedAt)

	return err
}

// GetModel retrieves a model descriptor by ID
func (s *Storage) GetModel(id string) (*models.ModelDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	row := s.db.QueryRow(`SELECT `+descriptorColumns+` FROM model_registry WHERE id = ?`, id)
	m, err := scanDescriptor(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

// ListModels retrieves model descriptors, optionally filtered to enabled
// models and/or a single provider.
func (s *Storage) ListModels(enabledOnly bool, provider string) ([]*models.ModelDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query := `SELECT ` + descriptorColumns + ` FROM model_registry WHERE 1=1`
	var args []interface{}

	if enabledOnly {
		query += " AND enabled = 1"
	}
	if provider != "" {
		query += " AND provider = ?"
		args = append(args, provider)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.ModelDescriptor
	for rows.Next() {
		m, err := scanDescriptor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}

	return list, rows.Err()
}

// SetModelEnabled toggles a model's enablement state. This is the only
// mutation path after registration.
func (s *Storage) SetModelEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	result, err := s.db.Exec(`
		UPDATE model_registry SET enabled = ?, updated_at = ? WHERE id = ?
	`, boolToInt(enabled), time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteModel removes a model descriptor by ID
func (s *Storage) DeleteModel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	result, err := s.db.Exec("DELETE FROM model_registry WHERE id = ?", id)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDescriptor(row rowScanner) (*models.ModelDescriptor, error) {
	var m models.ModelDescriptor
	var stream, tools, vision, enabled, localFree int

	err := row.Scan(&m.ID, &m.Provider, &m.DisplayName, &m.CostPer1KTokens, &m.MaxContext,
		&stream, &tools, &vision, &enabled, &localFree, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.SupportsStream = stream == 1
	m.SupportsTools = tools == 1
	m.SupportsVision = vision == 1
	m.Enabled = enabled == 1
	m.IsLocalFree = localFree == 1

	return &m, nil
}

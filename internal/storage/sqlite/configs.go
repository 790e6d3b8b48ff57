package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/calyptra/modelbench/internal/storage/models"
)

const configColumns = `id, tier, scope, temperature, top_p, max_tokens, frequency_penalty,
	presence_penalty, max_cost_per_request, allowed_roles, allowed_users, fallback_model,
	requires_guardrails, is_default, created_at, updated_at`

// CreateConfigRecord stores a new tiered configuration record. If the record
// is marked default, any previous default for the same tier-scope is unset.
func (s *Storage) CreateConfigRecord(rec *models.ConfigRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if rec.Tier == "" {
		return ErrInvalidInput
	}

	if rec.ID == "" {
		rec.ID = generateID("cfg")
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	rolesJSON, usersJSON, err := marshalAllowLists(rec)
	if err != nil {
		return err
	}

	if rec.IsDefault {
		if _, err := s.db.Exec(
			"UPDATE config_records SET is_default = 0 WHERE tier = ? AND scope = ?",
			rec.Tier, rec.Scope,
		); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(`
		INSERT INTO config_records (`+configColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Tier, rec.Scope, rec.Temperature, rec.TopP, rec.MaxTokens,
		rec.FrequencyPenalty, rec.PresencePenalty, rec.MaxCostPerRequest,
		rolesJSON, usersJSON, rec.FallbackModel, nullableBool(rec.RequireGuardrails),
		boolToInt(rec.IsDefault), rec.CreatedAt, rec.UpdatedAt)

	return err
}

// GetConfigRecord retrieves a configuration record by ID
func (s *Storage) GetConfigRecord(id string) (*models.ConfigRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	row := s.db.QueryRow(`SELECT `+configColumns+` FROM config_records WHERE id = ?`, id)
	rec, err := scanConfigRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

// FindDefaultConfigRecord returns the default record for a tier-scope, or
// ErrNotFound if that tier has no record (the resolver treats it as a no-op).
func (s *Storage) FindDefaultConfigRecord(tier models.ConfigTier, scope string) (*models.ConfigRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	row := s.db.QueryRow(`
		SELECT `+configColumns+` FROM config_records
		WHERE tier = ? AND scope = ? AND is_default = 1
	`, tier, scope)
	rec, err := scanConfigRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListConfigRecords retrieves all records for a tier (all tiers if empty)
func (s *Storage) ListConfigRecords(tier models.ConfigTier) ([]*models.ConfigRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query := `SELECT ` + configColumns + ` FROM config_records`
	var args []interface{}
	if tier != "" {
		query += " WHERE tier = ?"
		args = append(args, tier)
	}
	query += " ORDER BY tier ASC, scope ASC, created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ConfigRecord
	for rows.Next() {
		rec, err := scanConfigRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpdateConfigRecord updates an existing configuration record
func (s *Storage) UpdateConfigRecord(rec *models.ConfigRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if rec.ID == "" {
		return ErrInvalidInput
	}

	rec.UpdatedAt = time.Now().UTC()

	rolesJSON, usersJSON, err := marshalAllowLists(rec)
	if err != nil {
		return err
	}

	if rec.IsDefault {
		if _, err := s.db.Exec(
			"UPDATE config_records SET is_default = 0 WHERE tier = ? AND scope = ? AND id != ?",
			rec.Tier, rec.Scope, rec.ID,
		); err != nil {
			return err
		}
	}

	result, err := s.db.Exec(`
		UPDATE config_records
		SET tier = ?, scope = ?, temperature = ?, top_p = ?, max_tokens = ?,
			frequency_penalty = ?, presence_penalty = ?, max_cost_per_request = ?,
			allowed_roles = ?, allowed_users = ?, fallback_model = ?,
			requires_guardrails = ?, is_default = ?, updated_at = ?
		WHERE id = ?
	`, rec.Tier, rec.Scope, rec.Temperature, rec.TopP, rec.MaxTokens,
		rec.FrequencyPenalty, rec.PresencePenalty, rec.MaxCostPerRequest,
		rolesJSON, usersJSON, rec.FallbackModel, nullableBool(rec.RequireGuardrails),
		boolToInt(rec.IsDefault), rec.UpdatedAt, rec.ID)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteConfigRecord removes a configuration record by ID
func (s *Storage) DeleteConfigRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	result, err := s.db.Exec("DELETE FROM config_records WHERE id = ?", id)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func marshalAllowLists(rec *models.ConfigRecord) (interface{}, interface{}, error) {
	var rolesJSON, usersJSON interface{}
	if rec.AllowedRoles != nil {
		b, err := json.Marshal(rec.AllowedRoles)
		if err != nil {
			return nil, nil, err
		}
		rolesJSON = string(b)
	}
	if rec.AllowedUsers != nil {
		b, err := json.Marshal(rec.AllowedUsers)
		if err != nil {
			return nil, nil, err
		}
		usersJSON = string(b)
	}
	return rolesJSON, usersJSON, nil
}

func nullableBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}

func scanConfigRecord(row rowScanner) (*models.ConfigRecord, error) {
	var rec models.ConfigRecord
	var rolesJSON, usersJSON sql.NullString
	var requireGuardrails sql.NullInt64
	var isDefault int

	err := row.Scan(&rec.ID, &rec.Tier, &rec.Scope, &rec.Temperature, &rec.TopP,
		&rec.MaxTokens, &rec.FrequencyPenalty, &rec.PresencePenalty, &rec.MaxCostPerRequest,
		&rolesJSON, &usersJSON, &rec.FallbackModel, &requireGuardrails,
		&isDefault, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if rolesJSON.Valid {
		if err := json.Unmarshal([]byte(rolesJSON.String), &rec.AllowedRoles); err != nil {
			return nil, err
		}
	}
	if usersJSON.Valid {
		if err := json.Unmarshal([]byte(usersJSON.String), &rec.AllowedUsers); err != nil {
			return nil, err
		}
	}
	if requireGuardrails.Valid {
		v := requireGuardrails.Int64 == 1
		rec.RequireGuardrails = &v
	}
	rec.IsDefault = isDefault == 1

	return &rec, nil
}

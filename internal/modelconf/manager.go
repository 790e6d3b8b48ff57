package modelconf

import (
	"errors"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/storage/models"
)

// Manager performs validated writes to the persisted configuration tiers
// and keeps the resolver cache coherent.
type Manager struct {
	store    storage.Storage
	resolver *Resolver
}

// NewManager creates a configuration manager bound to a resolver.
func NewManager(store storage.Storage, resolver *Resolver) *Manager {
	return &Manager{store: store, resolver: resolver}
}

// validate runs the shared write-time checks: parameter ranges, tier/scope
// pairing, and that any fallback reference points at an enabled model.
func (m *Manager) validate(rec *models.ConfigRecord) error {
	if err := ValidateTierScope(rec.Tier, rec.Scope); err != nil {
		return err
	}
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	if rec.FallbackModel != "" {
		desc, err := m.store.GetModel(rec.FallbackModel)
		if errors.Is(err, storage.ErrNotFound) {
			return &InvalidOverrideError{Field: "fallback_model", Value: rec.FallbackModel,
				Reason: "referenced model is not registered"}
		}
		if err != nil {
			return err
		}
		if !desc.Enabled {
			return &InvalidOverrideError{Field: "fallback_model", Value: rec.FallbackModel,
				Reason: "referenced model is disabled"}
		}
	}
	return nil
}

// Create validates and persists a new configuration record.
func (m *Manager) Create(rec *models.ConfigRecord) error {
	if err := m.validate(rec); err != nil {
		return err
	}
	if err := m.store.CreateConfigRecord(rec); err != nil {
		return err
	}
	m.resolver.Invalidate()
	return nil
}

// Update validates and persists changes to an existing record.
func (m *Manager) Update(rec *models.ConfigRecord) error {
	if err := m.validate(rec); err != nil {
		return err
	}
	if err := m.store.UpdateConfigRecord(rec); err != nil {
		return err
	}
	m.resolver.Invalidate()
	return nil
}

// Delete removes a record by id.
func (m *Manager) Delete(id string) error {
	if err := m.store.DeleteConfigRecord(id); err != nil {
		return err
	}
	m.resolver.Invalidate()
	return nil
}

// Get returns a record by id.
func (m *Manager) Get(id string) (*models.ConfigRecord, error) {
	return m.store.GetConfigRecord(id)
}

// List returns records, optionally restricted to one tier (empty = all).
func (m *Manager) List(tier models.ConfigTier) ([]*models.ConfigRecord, error) {
	return m.store.ListConfigRecords(tier)
}

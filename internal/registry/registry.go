// Package registry maintains the whitelist of invokable models.
//
// A model reaches an invocation adapter only if it was registered by an
// administrative action and is currently enabled. Unknown identifiers are
// rejected, never auto-created.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/calyptra/modelbench/internal/storage"
)

// ErrUnknownModel is returned when a model id is not in the whitelist.
var ErrUnknownModel = errors.New("unknown model")

// ErrModelDisabled is returned when a registered model is disabled.
var ErrModelDisabled = errors.New("model disabled")

// Registry wraps the persisted model whitelist with validation.
type Registry struct {
	store  storage.Storage
	logger *slog.Logger
}

// New creates a model registry over the given store.
func New(store storage.Storage, logger *slog.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// Register adds a model descriptor to the whitelist. All static metadata
// fields are required.
func (r *Registry) Register(m *storage.ModelDescriptor) error {
	if m.ID == "" || m.Provider == "" || m.DisplayName == "" {
		return fmt.Errorf("%w: id, provider and display_name are required", storage.ErrInvalidInput)
	}
	if m.CostPer1KTokens < 0 {
		return fmt.Errorf("%w: cost_per_1k_tokens must not be negative", storage.ErrInvalidInput)
	}
	if m.MaxContext <= 0 {
		return fmt.Errorf("%w: max_context must be positive", storage.ErrInvalidInput)
	}
	return r.store.CreateModel(m)
}

// Resolve returns the descriptor for id, or ErrUnknownModel.
// Disabled models still resolve so admin surfaces can show them; the
// invocation path must use ResolveEnabled.
func (r *Registry) Resolve(id string) (*storage.ModelDescriptor, error) {
	m, err := r.store.GetModel(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ResolveEnabled returns the descriptor for id if it is registered and
// enabled; the only lookup the dispatch pipeline is allowed to use.
func (r *Registry) ResolveEnabled(id string) (*storage.ModelDescriptor, error) {
	m, err := r.Resolve(id)
	if err != nil {
		return nil, err
	}
	if !m.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrModelDisabled, id)
	}
	return m, nil
}

// SetEnabled toggles a model's enablement state, attributed to the acting
// administrator. This is the only mutation path for registered models.
func (r *Registry) SetEnabled(id string, enabled bool, actor string) error {
	err := r.store.SetModelEnabled(id, enabled)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	if err != nil {
		return err
	}
	r.logger.Info("model enablement changed",
		"model", id, "enabled", enabled, "actor", actor)
	return nil
}

// ListEnabled returns enabled models, optionally filtered by provider.
func (r *Registry) ListEnabled(provider string) ([]*storage.ModelDescriptor, error) {
	return r.store.ListModels(true, provider)
}

// ListAll returns every registered model regardless of enablement.
func (r *Registry) ListAll() ([]*storage.ModelDescriptor, error) {
	return r.store.ListModels(false, "")
}

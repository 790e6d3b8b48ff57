package registry

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/modelbench/internal/storage"
)

func setupRegistry(t *testing.T) *Registry {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store, slog.Default())
}

func TestRegisterValidation(t *testing.T) {
	reg := setupRegistry(t)

	err := reg.Register(&storage.ModelDescriptor{Provider: "openai", DisplayName: "GPT-4", MaxContext: 8192})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = reg.Register(&storage.ModelDescriptor{ID: "gpt-4", Provider: "openai", DisplayName: "GPT-4", MaxContext: 0})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = reg.Register(&storage.ModelDescriptor{
		ID: "gpt-4", Provider: "openai", DisplayName: "GPT-4",
		CostPer1KTokens: -1, MaxContext: 8192,
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = reg.Register(&storage.ModelDescriptor{
		ID: "gpt-4", Provider: "openai", DisplayName: "GPT-4",
		CostPer1KTokens: 0.03, MaxContext: 8192, Enabled: true,
	})
	assert.NoError(t, err)

	err = reg.Register(&storage.ModelDescriptor{
		ID: "gpt-4", Provider: "openai", DisplayName: "GPT-4 again",
		CostPer1KTokens: 0.03, MaxContext: 8192,
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestResolveEnabledGate(t *testing.T) {
	reg := setupRegistry(t)

	require.NoError(t, reg.Register(&storage.ModelDescriptor{
		ID: "gpt-4", Provider: "openai", DisplayName: "GPT-4",
		CostPer1KTokens: 0.03, MaxContext: 8192, Enabled: true,
	}))

	_, err := reg.ResolveEnabled("gpt-4")
	assert.NoError(t, err)

	// Unknown identifiers are rejected, never auto-created
	_, err = reg.ResolveEnabled("gpt-99")
	assert.ErrorIs(t, err, ErrUnknownModel)

	require.NoError(t, reg.SetEnabled("gpt-4", false, "admin"))

	_, err = reg.ResolveEnabled("gpt-4")
	assert.ErrorIs(t, err, ErrModelDisabled)

	// Resolve still works for admin surfaces
	desc, err := reg.Resolve("gpt-4")
	require.NoError(t, err)
	assert.False(t, desc.Enabled)

	assert.ErrorIs(t, reg.SetEnabled("gpt-99", true, "admin"), ErrUnknownModel)
}

func TestListEnabled(t *testing.T) {
	reg := setupRegistry(t)

	require.NoError(t, reg.Register(&storage.ModelDescriptor{
		ID: "gpt-4", Provider: "openai", DisplayName: "GPT-4",
		CostPer1KTokens: 0.03, MaxContext: 8192, Enabled: true,
	}))
	require.NoError(t, reg.Register(&storage.ModelDescriptor{
		ID: "llama-local", Provider: "local", DisplayName: "Local Llama",
		MaxContext: 4096, Enabled: true, IsLocalFree: true,
	}))
	require.NoError(t, reg.SetEnabled("gpt-4", false, "admin"))

	enabled, err := reg.ListEnabled("")
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "llama-local", enabled[0].ID)

	all, err := reg.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEstimateCostLocalFree(t *testing.T) {
	paid := &storage.ModelDescriptor{CostPer1KTokens: 0.03}
	assert.InDelta(t, 0.06, paid.EstimateCost(2000), 1e-9)

	free := &storage.ModelDescriptor{CostPer1KTokens: 0.03, IsLocalFree: true}
	assert.Equal(t, 0.0, free.EstimateCost(2000))
}

package modelconf

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/storage/models"
)

func setupResolver(t *testing.T) (storage.Storage, *Resolver, *Manager) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	resolver, err := NewResolver(store, slog.Default())
	require.NoError(t, err)
	t.Cleanup(resolver.Close)

	return store, resolver, NewManager(store, resolver)
}

func TestResolveDefaultsOnly(t *testing.T) {
	_, resolver, _ := setupResolver(t)

	eff, err := resolver.Resolve("gpt-4", "", "alice", "tester", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultTemperature, eff.Temperature)
	assert.Equal(t, DefaultTopP, eff.TopP)
	assert.Equal(t, DefaultMaxTokens, eff.MaxTokens)
	assert.Equal(t, 0.0, eff.MaxCostPerRequest)
	assert.False(t, eff.RequireGuardrails)
	assert.Equal(t, "default", eff.SourceTiers["temperature"])
	assert.Equal(t, "default", eff.SourceTiers["max_tokens"])
}

func TestResolveFourTierMerge(t *testing.T) {
	_, resolver, mgr := setupResolver(t)

	// GLOBAL: temperature 0.3, max_tokens 2000
	require.NoError(t, mgr.Create(&models.ConfigRecord{
		Tier:        models.TierGlobal,
		Temperature: fptr(0.3),
		MaxTokens:   iptr(2000),
		IsDefault:   true,
	}))
	// MODEL gpt-4: max_tokens 4000
	require.NoError(t, mgr.Create(&models.ConfigRecord{
		Tier:      models.TierModel,
		Scope:     "gpt-4",
		MaxTokens: iptr(4000),
		IsDefault: true,
	}))
	// USE_CASE extraction: temperature 0.1
	require.NoError(t, mgr.Create(&models.ConfigRecord{
		Tier:        models.TierUseCase,
		Scope:       "extraction",
		Temperature: fptr(0.1),
		IsDefault:   true,
	}))

	// RUNTIME: top_p 0.9
	eff, err := resolver.Resolve("gpt-4", "extraction", "alice", "tester",
		&RuntimeOverrides{TopP: fptr(0.9)})
	require.NoError(t, err)

	assert.Equal(t, 0.1, eff.Temperature, "use-case tier overrides global")
	assert.Equal(t, 4000, eff.MaxTokens, "model tier overrides global")
	assert.Equal(t, 0.9, eff.TopP, "runtime tier wins")

	assert.Equal(t, "USE_CASE", eff.SourceTiers["temperature"])
	assert.Equal(t, "MODEL", eff.SourceTiers["max_tokens"])
	assert.Equal(t, "RUNTIME", eff.SourceTiers["top_p"])

	// Without the use case, global temperature applies
	eff, err = resolver.Resolve("gpt-4", "", "alice", "tester", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.3, eff.Temperature)
	assert.Equal(t, "GLOBAL", eff.SourceTiers["temperature"])
}

func TestResolveInvalidRuntimeOverride(t *testing.T) {
	_, resolver, _ := setupResolver(t)

	_, err := resolver.Resolve("gpt-4", "", "alice", "tester",
		&RuntimeOverrides{Temperature: fptr(3.5)})

	var invalid *InvalidOverrideError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "temperature", invalid.Field)
}

func TestResolveAccessControl(t *testing.T) {
	_, resolver, mgr := setupResolver(t)

	require.NoError(t, mgr.Create(&models.ConfigRecord{
		Tier:         models.TierModel,
		Scope:        "gpt-4",
		AllowedRoles: []string{"admin"},
		IsDefault:    true,
	}))

	_, err := resolver.Resolve("gpt-4", "", "alice", "tester", nil)
	assert.ErrorIs(t, err, ErrAccessDenied)

	eff, err := resolver.Resolve("gpt-4", "", "root", "admin", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, eff.AllowedRoles)

	// Another model without an allow list stays open
	_, err = resolver.Resolve("gpt-3.5-turbo", "", "alice", "tester", nil)
	assert.NoError(t, err)
}

func TestResolveUseGuardrailsOverride(t *testing.T) {
	_, resolver, mgr := setupResolver(t)

	on := true
	require.NoError(t, mgr.Create(&models.ConfigRecord{
		Tier:              models.TierGlobal,
		RequireGuardrails: &on,
		IsDefault:         true,
	}))

	eff, err := resolver.Resolve("gpt-4", "", "alice", "tester", nil)
	require.NoError(t, err)
	assert.True(t, eff.RequireGuardrails)

	off := false
	eff, err = resolver.Resolve("gpt-4", "", "alice", "tester",
		&RuntimeOverrides{UseGuardrails: &off})
	require.NoError(t, err)
	assert.False(t, eff.RequireGuardrails)
}

func TestResolverCacheInvalidation(t *testing.T) {
	_, resolver, mgr := setupResolver(t)

	rec := &models.ConfigRecord{
		Tier:        models.TierGlobal,
		Temperature: fptr(0.5),
		IsDefault:   true,
	}
	require.NoError(t, mgr.Create(rec))

	eff, err := resolver.Resolve("gpt-4", "", "alice", "tester", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, eff.Temperature)

	// A write through the manager must be visible on the next resolve
	rec.Temperature = fptr(0.9)
	require.NoError(t, mgr.Update(rec))

	eff, err = resolver.Resolve("gpt-4", "", "alice", "tester", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.9, eff.Temperature)
}

func TestManagerRejectsBadWrites(t *testing.T) {
	store, _, mgr := setupResolver(t)

	// Tier/scope pairing
	err := mgr.Create(&models.ConfigRecord{Tier: models.TierGlobal, Scope: "gpt-4"})
	var invalid *InvalidOverrideError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "scope", invalid.Field)

	// Runtime records are never persisted
	err = mgr.Create(&models.ConfigRecord{Tier: models.TierRuntime})
	assert.Error(t, err)

	// Fallback must reference a registered, enabled model
	err = mgr.Create(&models.ConfigRecord{
		Tier: models.TierGlobal, FallbackModel: "ghost", IsDefault: true,
	})
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "fallback_model", invalid.Field)

	require.NoError(t, store.CreateModel(&models.ModelDescriptor{
		ID: "llama-local", Provider: "local", DisplayName: "Local",
		MaxContext: 4096, Enabled: false, IsLocalFree: true,
	}))
	err = mgr.Create(&models.ConfigRecord{
		Tier: models.TierGlobal, FallbackModel: "llama-local", IsDefault: true,
	})
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "fallback_model", invalid.Field)

	require.NoError(t, store.SetModelEnabled("llama-local", true))
	assert.NoError(t, mgr.Create(&models.ConfigRecord{
		Tier: models.TierGlobal, FallbackModel: "llama-local", IsDefault: true,
	}))
}

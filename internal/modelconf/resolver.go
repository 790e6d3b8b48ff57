// Package modelconf resolves effective invocation parameters from the
// tiered configuration hierarchy: GLOBAL → MODEL → USE_CASE → RUNTIME,
// where a higher tier overrides only the fields it explicitly sets.
package modelconf

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/storage/models"
)

// ErrAccessDenied is returned when the caller's role/user is excluded by the
// effective allow lists.
var ErrAccessDenied = errors.New("access denied by configuration")

// Engine defaults applied when no tier sets a field.
const (
	DefaultTemperature = 1.0
	DefaultTopP        = 1.0
	DefaultMaxTokens   = 1024
)

// RuntimeOverrides are per-request parameter overrides. They form the
// highest-priority tier, are validated like any record, and are never
// persisted.
type RuntimeOverrides struct {
	Temperature       *float64 `json:"temperature,omitempty"`
	TopP              *float64 `json:"top_p,omitempty"`
	MaxTokens         *int     `json:"max_tokens,omitempty"`
	FrequencyPenalty  *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty   *float64 `json:"presence_penalty,omitempty"`
	MaxCostPerRequest *float64 `json:"max_cost_per_request,omitempty"`
	UseGuardrails     *bool    `json:"use_guardrails,omitempty"`
}

// Effective is the fully merged parameter set for one invocation, after
// all four tiers and engine defaults have been applied.
type Effective struct {
	Temperature       float64  `json:"temperature"`
	TopP              float64  `json:"top_p"`
	MaxTokens         int      `json:"max_tokens"`
	FrequencyPenalty  float64  `json:"frequency_penalty"`
	PresencePenalty   float64  `json:"presence_penalty"`
	MaxCostPerRequest float64  `json:"max_cost_per_request"` // 0 = no ceiling
	AllowedRoles      []string `json:"allowed_roles,omitempty"`
	AllowedUsers      []string `json:"allowed_users,omitempty"`
	FallbackModel     string   `json:"fallback_model,omitempty"`
	RequireGuardrails bool     `json:"require_guardrails"`

	// SourceTiers records, per parameter, which tier supplied the winning
	// value ("default" when no tier set it). Useful for debugging merges.
	SourceTiers map[string]string `json:"source_tiers,omitempty"`
}

// Resolver merges persisted configuration tiers with per-request overrides.
// Persisted-tier merges are cached; any configuration write invalidates the
// whole cache.
type Resolver struct {
	store  storage.Storage
	cache  *ristretto.Cache[string, *merged]
	logger *slog.Logger
}

// merged is the cacheable result of folding the persisted tiers together.
type merged struct {
	rec models.ConfigRecord
	src map[string]string
}

// NewResolver creates a resolver with an in-memory cache for persisted-tier
// merges.
func NewResolver(store storage.Storage, logger *slog.Logger) (*Resolver, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *merged]{
		NumCounters: 10_000,
		MaxCost:     1 << 20, // ~1MB of merged records
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config cache: %w", err)
	}
	return &Resolver{store: store, cache: cache, logger: logger}, nil
}

// Resolve computes the effective parameters for invoking model on behalf of
// userID/role for the given use case. useCase may be empty; runtime may be
// nil. Runtime overrides are validated before merging; an invalid override
// rejects the whole request.
func (r *Resolver) Resolve(model, useCase, userID, role string, runtime *RuntimeOverrides) (*Effective, error) {
	base, err := r.persistedMerge(model, useCase)
	if err != nil {
		return nil, err
	}

	// Copy before applying runtime overrides so the cached merge stays
	// untouched.
	rec := base.rec
	src := make(map[string]string, len(base.src))
	for k, v := range base.src {
		src[k] = v
	}

	if runtime != nil {
		rt := &models.ConfigRecord{
			Tier:              models.TierRuntime,
			Temperature:       runtime.Temperature,
			TopP:              runtime.TopP,
			MaxTokens:         runtime.MaxTokens,
			FrequencyPenalty:  runtime.FrequencyPenalty,
			PresencePenalty:   runtime.PresencePenalty,
			MaxCostPerRequest: runtime.MaxCostPerRequest,
			RequireGuardrails: runtime.UseGuardrails,
		}
		if err := ValidateRecord(rt); err != nil {
			return nil, err
		}
		overlay(&rec, rt, src, string(models.TierRuntime))
	}

	eff := materialize(&rec, src)

	if err := checkAccess(eff, userID, role); err != nil {
		return nil, err
	}
	return eff, nil
}

// persistedMerge folds GLOBAL, MODEL and USE_CASE defaults for the given
// model and use case, consulting the cache first.
func (r *Resolver) persistedMerge(model, useCase string) (*merged, error) {
	key := model + "\x00" + useCase
	if m, ok := r.cache.Get(key); ok {
		return m, nil
	}

	m := &merged{src: make(map[string]string)}
	tiers := []struct {
		tier  models.ConfigTier
		scope string
	}{
		{models.TierGlobal, ""},
		{models.TierModel, model},
		{models.TierUseCase, useCase},
	}
	for _, t := range tiers {
		if t.tier != models.TierGlobal && t.scope == "" {
			continue
		}
		rec, err := r.store.FindDefaultConfigRecord(t.tier, t.scope)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		overlay(&m.rec, rec, m.src, string(t.tier))
	}

	// Wait so a later Invalidate cannot race a buffered write.
	r.cache.Set(key, m, 1)
	r.cache.Wait()
	return m, nil
}

// Invalidate drops all cached merges. Called after every configuration
// write so subsequent resolutions see the new records.
func (r *Resolver) Invalidate() {
	r.cache.Clear()
	if r.logger != nil {
		r.logger.Debug("configuration cache invalidated")
	}
}

// Close releases the cache's background goroutines.
func (r *Resolver) Close() {
	r.cache.Close()
}

// overlay applies the set fields of hi on top of lo, recording the source
// tier of every field hi wins.
func overlay(lo, hi *models.ConfigRecord, src map[string]string, tier string) {
	if hi.Temperature != nil {
		lo.Temperature = hi.Temperature
		src["temperature"] = tier
	}
	if hi.TopP != nil {
		lo.TopP = hi.TopP
		src["top_p"] = tier
	}
	if hi.MaxTokens != nil {
		lo.MaxTokens = hi.MaxTokens
		src["max_tokens"] = tier
	}
	if hi.FrequencyPenalty != nil {
		lo.FrequencyPenalty = hi.FrequencyPenalty
		src["frequency_penalty"] = tier
	}
	if hi.PresencePenalty != nil {
		lo.PresencePenalty = hi.PresencePenalty
		src["presence_penalty"] = tier
	}
	if hi.MaxCostPerRequest != nil {
		lo.MaxCostPerRequest = hi.MaxCostPerRequest
		src["max_cost_per_request"] = tier
	}
	if hi.AllowedRoles != nil {
		lo.AllowedRoles = hi.AllowedRoles
		src["allowed_roles"] = tier
	}
	if hi.AllowedUsers != nil {
		lo.AllowedUsers = hi.AllowedUsers
		src["allowed_users"] = tier
	}
	if hi.FallbackModel != "" {
		lo.FallbackModel = hi.FallbackModel
		src["fallback_model"] = tier
	}
	if hi.RequireGuardrails != nil {
		lo.RequireGuardrails = hi.RequireGuardrails
		src["require_guardrails"] = tier
	}
}

// materialize fills engine defaults for fields no tier set.
func materialize(rec *models.ConfigRecord, src map[string]string) *Effective {
	eff := &Effective{
		Temperature:   DefaultTemperature,
		TopP:          DefaultTopP,
		MaxTokens:     DefaultMaxTokens,
		AllowedRoles:  rec.AllowedRoles,
		AllowedUsers:  rec.AllowedUsers,
		FallbackModel: rec.FallbackModel,
		SourceTiers:   src,
	}
	if rec.Temperature != nil {
		eff.Temperature = *rec.Temperature
	} else {
		src["temperature"] = "default"
	}
	if rec.TopP != nil {
		eff.TopP = *rec.TopP
	} else {
		src["top_p"] = "default"
	}
	if rec.MaxTokens != nil {
		eff.MaxTokens = *rec.MaxTokens
	} else {
		src["max_tokens"] = "default"
	}
	if rec.FrequencyPenalty != nil {
		eff.FrequencyPenalty = *rec.FrequencyPenalty
	}
	if rec.PresencePenalty != nil {
		eff.PresencePenalty = *rec.PresencePenalty
	}
	if rec.MaxCostPerRequest != nil {
		eff.MaxCostPerRequest = *rec.MaxCostPerRequest
	}
	if rec.RequireGuardrails != nil {
		eff.RequireGuardrails = *rec.RequireGuardrails
	}
	return eff
}

// checkAccess enforces the effective allow lists. An empty list places no
// restriction; a populated one is exhaustive.
func checkAccess(eff *Effective, userID, role string) error {
	if len(eff.AllowedUsers) > 0 && !slices.Contains(eff.AllowedUsers, userID) {
		return fmt.Errorf("%w: user %q not in allow list", ErrAccessDenied, userID)
	}
	if len(eff.AllowedRoles) > 0 && !slices.Contains(eff.AllowedRoles, role) {
		return fmt.Errorf("%w: role %q not in allow list", ErrAccessDenied, role)
	}
	return nil
}

// Package admin serves the administrative surface: model registry, tiered
// configuration records, quota limits, the audit log, usage reporting,
// provider credentials, and client API keys.
package admin

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/calyptra/modelbench/internal/audit"
	"github.com/calyptra/modelbench/internal/modelconf"
	"github.com/calyptra/modelbench/internal/registry"
	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/middleware/auth"
)

// Handlers holds the dependencies for admin HTTP handlers.
type Handlers struct {
	Storage     storage.Storage
	Registry    *registry.Registry
	Configs     *modelconf.Manager
	Ledger      *audit.Ledger
	StartTime   time.Time
	APIKeyCache *ristretto.Cache[string, *auth.CachedAPIKey]
	Sessions    *auth.SessionStore
}

// New creates the admin handlers.
func New(store storage.Storage, reg *registry.Registry, cfgs *modelconf.Manager,
	ledger *audit.Ledger, startTime time.Time,
	apiKeyCache *ristretto.Cache[string, *auth.CachedAPIKey],
	sessions *auth.SessionStore) *Handlers {
	return &Handlers{
		Storage:     store,
		Registry:    reg,
		Configs:     cfgs,
		Ledger:      ledger,
		StartTime:   startTime,
		APIKeyCache: apiKeyCache,
		Sessions:    sessions,
	}
}

// InvalidateAPIKeyCache removes a cached API key entry by its prefix.
func (h *Handlers) InvalidateAPIKeyCache(keyPrefix string) {
	if h.APIKeyCache != nil && keyPrefix != "" {
		h.APIKeyCache.Del("apikey:" + keyPrefix)
	}
}

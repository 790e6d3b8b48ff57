package main

import (
	"log"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/calyptra/modelbench/internal/adapter"
	"github.com/calyptra/modelbench/internal/app"
	"github.com/calyptra/modelbench/internal/audit"
	"github.com/calyptra/modelbench/internal/config"
	"github.com/calyptra/modelbench/internal/guardrail"
	"github.com/calyptra/modelbench/internal/harness"
	"github.com/calyptra/modelbench/internal/modelconf"
	"github.com/calyptra/modelbench/internal/quota"
	"github.com/calyptra/modelbench/internal/registry"
	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/tokenizer"
	"github.com/calyptra/modelbench/internal/transport/http/handler"
	"github.com/calyptra/modelbench/internal/transport/http/middleware/auth"
)

func main() {
	logger := setupLogger()

	// Data directory and config file (~/.modelbench)
	if err := config.EnsureDataDir(); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	if err := config.EnsureConfigFile(); err != nil {
		log.Fatalf("failed to create config file: %v", err)
	}
	cfg := config.Load()

	// Storage
	store, err := storage.NewSQLiteStorage(config.DBPath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	// First-run admin password prompt
	if err := ensureAdminPassword(store); err != nil {
		log.Fatalf("admin setup failed: %v", err)
	}

	// API key auth cache
	apiKeyCache, err := ristretto.NewCache(&ristretto.Config[string, *auth.CachedAPIKey]{
		NumCounters: 1e6,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		log.Fatalf("failed to create API key cache: %v", err)
	}
	defer apiKeyCache.Close()

	sessions := auth.NewSessionStore(24 * time.Hour)

	// Engine components
	reg := registry.New(store, logger)

	resolver, err := modelconf.NewResolver(store, logger)
	if err != nil {
		log.Fatalf("failed to create config resolver: %v", err)
	}
	defer resolver.Close()

	configs := modelconf.NewManager(store, resolver)
	guard := quota.NewGuard(store, logger)
	ledger := audit.NewLedger(store, logger)
	guardrails := guardrail.NewDefaultRegistry(cfg.Guardrail, logger)
	counter := tokenizer.New()

	adapters := adapter.NewRegistry()
	adapters.Register(adapter.NewLocal(counter))
	for _, provider := range []string{"openai", "openrouter", "anthropic"} {
		adapters.Register(adapter.NewOpenAICompat(provider, baseURLFor(cfg, provider), cfg.AdapterTimeout))
	}

	bench := harness.New(harness.Options{
		Registry:     reg,
		Resolver:     resolver,
		Guard:        guard,
		Ledger:       ledger,
		Guardrails:   guardrails,
		Adapters:     adapters,
		Counter:      counter,
		Store:        store,
		Timeout:      cfg.AdapterTimeout,
		HistoryLimit: cfg.HistoryLimit,
		Logger:       logger,
	})

	// HTTP layer
	repo := handler.NewRepo(handler.RepoOptions{
		Store:        store,
		Harness:      bench,
		Registry:     reg,
		Configs:      configs,
		Ledger:       ledger,
		HistoryLimit: cfg.HistoryLimit,
		APIKeyCache:  apiKeyCache,
		Sessions:     sessions,
	})

	router := app.NewRouter(repo, &app.RouterOptions{
		Logger:       logger,
		Storage:      store,
		APIKeyCache:  apiKeyCache,
		SessionStore: sessions,
	})

	printStartupBanner(cfg)

	srv := app.NewServer(cfg, router)
	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}

// baseURLFor returns the configured base URL override for a provider, if any.
func baseURLFor(cfg *config.Config, provider string) string {
	for _, p := range cfg.Providers {
		if p.Provider == provider {
			return p.BaseURL
		}
	}
	return ""
}

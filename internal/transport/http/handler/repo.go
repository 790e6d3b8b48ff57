// Package handler composes the HTTP handler groups.
package handler

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/calyptra/modelbench/internal/audit"
	"github.com/calyptra/modelbench/internal/harness"
	"github.com/calyptra/modelbench/internal/modelconf"
	"github.com/calyptra/modelbench/internal/registry"
	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/handler/admin"
	"github.com/calyptra/modelbench/internal/transport/http/handler/infra"
	"github.com/calyptra/modelbench/internal/transport/http/handler/testrun"
	"github.com/calyptra/modelbench/internal/transport/http/middleware/auth"
)

// Repo composes all domain-specific handlers.
type Repo struct {
	Test  *testrun.Handlers
	Admin *admin.Handlers
	Infra *infra.Handlers
}

// RepoOptions carries the dependencies the handler groups need.
type RepoOptions struct {
	Store        storage.Storage
	Harness      *harness.Harness
	Registry     *registry.Registry
	Configs      *modelconf.Manager
	Ledger       *audit.Ledger
	HistoryLimit int
	APIKeyCache  *ristretto.Cache[string, *auth.CachedAPIKey]
	Sessions     *auth.SessionStore
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(opts RepoOptions) *Repo {
	startTime := time.Now()
	return &Repo{
		Test:  testrun.New(opts.Harness, opts.Store, opts.HistoryLimit),
		Admin: admin.New(opts.Store, opts.Registry, opts.Configs, opts.Ledger, startTime, opts.APIKeyCache, opts.Sessions),
		Infra: infra.New(startTime),
	}
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/transport/http/handler"
	"github.com/calyptra/modelbench/internal/transport/http/middleware"
	"github.com/calyptra/modelbench/internal/transport/http/middleware/auth"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger       *slog.Logger
	Storage      storage.Storage
	APIKeyCache  *ristretto.Cache[string, *auth.CachedAPIKey]
	SessionStore *auth.SessionStore
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
// opts must not be nil - all routes require authentication configuration.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth)
	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	mux.HandleFunc("POST /api/admin/login", repo.Admin.Login)
	mux.HandleFunc("POST /api/admin/logout", repo.Admin.Logout)

	// Test routes (require API key auth with the "test" scope)
	apiKeyAuth := auth.APIKeyAuth(opts.Storage, opts.APIKeyCache)
	testScope := auth.RequireScope("test")
	withKey := func(h http.HandlerFunc) http.Handler {
		return apiKeyAuth(testScope(h))
	}

	mux.Handle("POST /v1/test/single", withKey(repo.Test.SingleTest))
	mux.Handle("POST /v1/test/compare", withKey(repo.Test.CompareTest))
	mux.Handle("GET /v1/test/history", withKey(repo.Test.GetHistory))
	mux.Handle("DELETE /v1/test/history", withKey(repo.Test.ClearHistory))

	// Admin API routes (require admin auth)
	registerAdminRoutes(mux, repo, opts)

	// Root returns JSON status
	mux.HandleFunc("GET /", repo.Infra.RootStatus)

	// Apply middleware chain (order: outer to inner)
	var h http.Handler = mux

	// Request logging (if logger provided)
	if opts.Logger != nil {
		h = middleware.RequestLogger(opts.Logger)(h)
	}

	// Request ID (always applied)
	h = middleware.RequestID(h)

	// CORS (always applied)
	h = middleware.CORS(h)

	return h
}

// registerAdminRoutes adds all admin API routes to the router.
func registerAdminRoutes(mux *http.ServeMux, repo *handler.Repo, opts *RouterOptions) {
	// Create admin auth middleware using stored password hash and session store
	adminAuth := auth.AdminAuth(opts.Storage, opts.SessionStore)

	// Helper to wrap handler with admin auth
	withAuth := func(h http.HandlerFunc) http.Handler {
		return adminAuth(h)
	}

	// Model registry
	mux.Handle("POST /api/admin/models", withAuth(repo.Admin.RegisterModel))
	mux.Handle("GET /api/admin/models", withAuth(repo.Admin.ListModels))
	mux.Handle("GET /api/admin/models/{id}", withAuth(repo.Admin.GetModel))
	mux.Handle("PUT /api/admin/models/{id}/enabled", withAuth(repo.Admin.SetModelEnabled))
	mux.Handle("DELETE /api/admin/models/{id}", withAuth(repo.Admin.DeleteModel))

	// Tiered configuration records
	mux.Handle("POST /api/admin/configs", withAuth(repo.Admin.CreateConfigRecord))
	mux.Handle("GET /api/admin/configs", withAuth(repo.Admin.ListConfigRecords))
	mux.Handle("GET /api/admin/configs/{id}", withAuth(repo.Admin.GetConfigRecord))
	mux.Handle("PUT /api/admin/configs/{id}", withAuth(repo.Admin.UpdateConfigRecord))
	mux.Handle("DELETE /api/admin/configs/{id}", withAuth(repo.Admin.DeleteConfigRecord))

	// Quota limits and live counters
	mux.Handle("PUT /api/admin/quotas", withAuth(repo.Admin.SetQuotaLimit))
	mux.Handle("GET /api/admin/quotas", withAuth(repo.Admin.ListQuotaLimits))
	mux.Handle("DELETE /api/admin/quotas", withAuth(repo.Admin.DeleteQuotaLimit))
	mux.Handle("GET /api/admin/quotas/status", withAuth(repo.Admin.GetQuotaStatus))

	// Audit log
	mux.Handle("GET /api/admin/logs", withAuth(repo.Admin.GetRequestLogs))
	mux.Handle("DELETE /api/admin/logs", withAuth(repo.Admin.PurgeRequestLogs))

	// Usage reporting
	mux.Handle("GET /api/admin/usage", withAuth(repo.Admin.GetUsageStats))
	mux.Handle("GET /api/admin/usage/daily", withAuth(repo.Admin.GetDailyUsage))

	// Credential management
	mux.Handle("POST /api/admin/credentials", withAuth(repo.Admin.CreateCredential))
	mux.Handle("GET /api/admin/credentials", withAuth(repo.Admin.ListCredentials))
	mux.Handle("GET /api/admin/credentials/{id}", withAuth(repo.Admin.GetCredential))
	mux.Handle("PUT /api/admin/credentials/{id}", withAuth(repo.Admin.UpdateCredential))
	mux.Handle("DELETE /api/admin/credentials/{id}", withAuth(repo.Admin.DeleteCredential))
	mux.Handle("POST /api/admin/credentials/{id}/default", withAuth(repo.Admin.SetDefaultCredential))

	// API key management
	mux.Handle("POST /api/admin/apikeys", withAuth(repo.Admin.CreateAPIKey))
	mux.Handle("GET /api/admin/apikeys", withAuth(repo.Admin.ListAPIKeys))
	mux.Handle("GET /api/admin/apikeys/{id}", withAuth(repo.Admin.GetAPIKeyByID))
	mux.Handle("PUT /api/admin/apikeys/{id}", withAuth(repo.Admin.UpdateAPIKey))
	mux.Handle("DELETE /api/admin/apikeys/{id}", withAuth(repo.Admin.DeleteAPIKey))
	mux.Handle("POST /api/admin/apikeys/{id}/rotate", withAuth(repo.Admin.RotateAPIKey))

	// Password management
	mux.Handle("PUT /api/admin/password", withAuth(repo.Admin.ChangeAdminPassword))

	// System info
	mux.Handle("GET /api/admin/health", withAuth(repo.Admin.AdminHealth))
	mux.Handle("GET /api/admin/info", withAuth(repo.Admin.AdminInfo))
}

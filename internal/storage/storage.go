// Package storage provides the storage interface and implementations.
package storage

import (
	"github.com/calyptra/modelbench/internal/storage/models"
	"github.com/calyptra/modelbench/internal/storage/sqlite"
)

// Re-export types from models package for convenience
type (
	ModelDescriptor     = models.ModelDescriptor
	ConfigRecord        = models.ConfigRecord
	ConfigTier          = models.ConfigTier
	QuotaScope          = models.QuotaScope
	QuotaPeriod         = models.QuotaPeriod
	QuotaLimit          = models.QuotaLimit
	QuotaCounter        = models.QuotaCounter
	CounterKey          = models.CounterKey
	RequestLogEntry     = models.RequestLogEntry
	LogFilter           = models.LogFilter
	TestHistoryEntry    = models.TestHistoryEntry
	Credential          = models.Credential
	CredentialPreview   = models.CredentialPreview
	ClientAPIKey        = models.ClientAPIKey
	ClientAPIKeyPreview = models.ClientAPIKeyPreview
	DailyUsage          = models.DailyUsage
	ModelStats          = models.ModelStats
	UsageStats          = models.UsageStats
	StatsFilter         = models.StatsFilter
)

// Re-export constants from models package
const (
	TierGlobal  = models.TierGlobal
	TierModel   = models.TierModel
	TierUseCase = models.TierUseCase
	TierRuntime = models.TierRuntime

	ScopeUser   = models.ScopeUser
	ScopeRole   = models.ScopeRole
	ScopeGlobal = models.ScopeGlobal

	PeriodDaily   = models.PeriodDaily
	PeriodMonthly = models.PeriodMonthly

	OutcomeSuccess = models.OutcomeSuccess
	OutcomeFailure = models.OutcomeFailure
	OutcomeBlocked = models.OutcomeBlocked
)

// Re-export functions from models package
var MaskAPIKey = models.MaskAPIKey

// Re-export errors from sqlite package
var (
	ErrNotFound        = sqlite.ErrNotFound
	ErrDuplicateKey    = sqlite.ErrDuplicateKey
	ErrInvalidInput    = sqlite.ErrInvalidInput
	ErrStorageClosed   = sqlite.ErrStorageClosed
	ErrEncryptionError = sqlite.ErrEncryptionError
)

// Storage defines the interface for persistent data storage
type Storage interface {
	// Model registry operations
	CreateModel(m *models.ModelDescriptor) error
	GetModel(id string) (*models.ModelDescriptor, error)
	ListModels(enabledOnly bool, provider string) ([]*models.ModelDescriptor, error)
	SetModelEnabled(id string, enabled bool) error
	DeleteModel(id string) error

	// Configuration record operations
	CreateConfigRecord(rec *models.ConfigRecord) error
	GetConfigRecord(id string) (*models.ConfigRecord, error)
	FindDefaultConfigRecord(tier models.ConfigTier, scope string) (*models.ConfigRecord, error)
	ListConfigRecords(tier models.ConfigTier) ([]*models.ConfigRecord, error)
	UpdateConfigRecord(rec *models.ConfigRecord) error
	DeleteConfigRecord(id string) error

	// Quota operations
	SetQuotaLimit(limit *models.QuotaLimit) error
	GetQuotaLimit(scope models.QuotaScope, scopeID string, period models.QuotaPeriod) (*models.QuotaLimit, error)
	ListQuotaLimits() ([]*models.QuotaLimit, error)
	DeleteQuotaLimit(scope models.QuotaScope, scopeID string, period models.QuotaPeriod) error
	GetQuotaCounter(scope models.QuotaScope, scopeID string, period models.QuotaPeriod, window string) (*models.QuotaCounter, error)
	ApplyQuotaUsage(keys []models.CounterKey, requests int, cost float64) error
	RefundQuotaUsage(keys []models.CounterKey, requests int, cost float64) error

	// Audit log operations
	AppendRequestLog(entry *models.RequestLogEntry) error
	GetRequestLogs(filter models.LogFilter) ([]*models.RequestLogEntry, error)
	DeleteRequestLogs(olderThan string) (int64, error)

	// Test history operations
	AppendTestHistory(entry *models.TestHistoryEntry, limit int) error
	ListTestHistory(limit int) ([]*models.TestHistoryEntry, error)
	CountTestHistory() (int, error)
	ClearTestHistory() error

	// Usage statistics operations
	UpdateDailyUsage(usage *models.DailyUsage) error
	GetUsageStats(filter models.StatsFilter) (*models.UsageStats, error)
	GetDailyUsage(startDate, endDate string) ([]*models.DailyUsage, error)

	// Provider credential operations
	CreateCredential(cred *models.Credential) error
	GetCredential(id string) (*models.Credential, error)
	GetDefaultCredential(provider string) (*models.Credential, error)
	ListCredentials() ([]*models.Credential, error)
	UpdateCredential(cred *models.Credential) error
	DeleteCredential(id string) error
	SetDefaultCredential(id string) error

	// Client API key operations
	CreateAPIKey(key *models.ClientAPIKey) error
	GetAPIKey(id string) (*models.ClientAPIKey, error)
	GetAPIKeyByPrefix(prefix string) ([]*models.ClientAPIKey, error)
	ListAPIKeys() ([]*models.ClientAPIKey, error)
	UpdateAPIKey(key *models.ClientAPIKey) error
	DeleteAPIKey(id string) error
	UpdateAPIKeyLastUsed(id string) error

	// Admin password operations
	GetAdminPasswordHash() (string, error)
	SetAdminPasswordHash(hash string) error
	HasAdminPassword() (bool, error)

	// Maintenance operations
	Close() error
}

// NewSQLiteStorage creates a new SQLite storage instance
// This is the main factory function for creating storage
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}

// Package sqlite provides SQLite-based storage implementation.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/calyptra/modelbench/internal/storage/encryption"
)

// Storage implements the storage.Storage interface using SQLite
type Storage struct {
	db        *sql.DB
	encryptor *encryption.AES
	mu        sync.RWMutex
	closed    bool
}

// New creates a new SQLite storage instance
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings for better concurrency
	db.SetMaxOpenConns(1) // SQLite works best with single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	enc, err := encryption.New()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	storage := &Storage{
		db:        db,
		encryptor: enc,
	}

	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return storage, nil
}

// createSchema creates the database schema
func (s *Storage) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS model_registry (
		id                 TEXT PRIMARY KEY,
		provider           TEXT NOT NULL,
		display_name       TEXT NOT NULL,
		cost_per_1k_tokens REAL DEFAULT 0,
		max_context        INTEGER DEFAULT 0,
		supports_streaming INTEGER DEFAULT 0,
		supports_functions INTEGER DEFAULT 0,
		supports_vision    INTEGER DEFAULT 0,
		enabled            INTEGER DEFAULT 1,
		is_local_free      INTEGER DEFAULT 0,
		created_at         DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at         DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS config_records (
		id                   TEXT PRIMARY KEY,
		tier                 TEXT NOT NULL,
		scope                TEXT NOT NULL DEFAULT '',
		temperature          REAL,
		top_p                REAL,
		max_tokens           INTEGER,
		frequency_penalty    REAL,
		presence_penalty     REAL,
		max_cost_per_request REAL,
		allowed_roles        TEXT,
		allowed_users        TEXT,
		fallback_model       TEXT NOT NULL DEFAULT '',
		requires_guardrails  INTEGER,
		is_default           INTEGER DEFAULT 0,
		created_at           DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at           DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS quota_limits (
		scope        TEXT NOT NULL,
		scope_id     TEXT NOT NULL DEFAULT '',
		period       TEXT NOT NULL,
		max_requests INTEGER DEFAULT 0,
		max_cost     REAL DEFAULT 0,
		PRIMARY KEY (scope, scope_id, period)
	);

	CREATE TABLE IF NOT EXISTS quota_counters (
		scope         TEXT NOT NULL,
		scope_id      TEXT NOT NULL DEFAULT '',
		period        TEXT NOT NULL,
		window        TEXT NOT NULL,
		request_count INTEGER DEFAULT 0,
		cost_used     REAL DEFAULT 0,
		PRIMARY KEY (scope, scope_id, period)
	);

	CREATE TABLE IF NOT EXISTS request_logs (
		id                TEXT PRIMARY KEY,
		request_id        TEXT NOT NULL,
		user_id           TEXT NOT NULL,
		role              TEXT NOT NULL DEFAULT '',
		model             TEXT NOT NULL,
		provider          TEXT NOT NULL,
		use_case          TEXT NOT NULL DEFAULT '',
		effective_params  TEXT NOT NULL DEFAULT '{}',
		prompt_tokens     INTEGER DEFAULT 0,
		completion_tokens INTEGER DEFAULT 0,
		total_tokens      INTEGER DEFAULT 0,
		outcome           TEXT NOT NULL,
		guardrail_passed  INTEGER DEFAULT 1,
		cost              REAL DEFAULT 0,
		duration_ms       INTEGER DEFAULT 0,
		error_message     TEXT,
		created_at        DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS test_history (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		id             TEXT NOT NULL,
		model          TEXT NOT NULL,
		provider       TEXT NOT NULL,
		use_case       TEXT NOT NULL DEFAULT '',
		config_tier    TEXT NOT NULL DEFAULT '',
		tokens_used    INTEGER DEFAULT 0,
		cost           REAL DEFAULT 0,
		duration_ms    INTEGER DEFAULT 0,
		quality_score  INTEGER DEFAULT 0,
		was_successful INTEGER DEFAULT 0,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS usage_daily (
		date          TEXT NOT NULL,
		user_id       TEXT NOT NULL DEFAULT '',
		model         TEXT NOT NULL,
		request_count INTEGER DEFAULT 0,
		total_tokens  INTEGER DEFAULT 0,
		total_cost    REAL DEFAULT 0,
		error_count   INTEGER DEFAULT 0,
		blocked_count INTEGER DEFAULT 0,
		PRIMARY KEY (date, user_id, model)
	);

	CREATE TABLE IF NOT EXISTS credentials (
		id          TEXT PRIMARY KEY,
		provider    TEXT NOT NULL,
		name        TEXT NOT NULL UNIQUE,
		api_key     TEXT NOT NULL,
		is_default  INTEGER DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS api_keys (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		key_hash     TEXT NOT NULL,
		key_prefix   TEXT NOT NULL,
		role         TEXT NOT NULL DEFAULT 'tester',
		scopes       TEXT NOT NULL,
		is_active    INTEGER DEFAULT 1,
		last_used_at DATETIME,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		expires_at   DATETIME
	);

	CREATE TABLE IF NOT EXISTS admin_settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_configs_tier_scope ON config_records(tier, scope);
	CREATE INDEX IF NOT EXISTS idx_logs_created ON request_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_logs_model ON request_logs(model);
	CREATE INDEX IF NOT EXISTS idx_logs_user ON request_logs(user_id);
	CREATE INDEX IF NOT EXISTS idx_history_seq ON test_history(seq);
	CREATE INDEX IF NOT EXISTS idx_usage_date ON usage_daily(date);
	CREATE INDEX IF NOT EXISTS idx_registry_provider ON model_registry(provider);
	CREATE INDEX IF NOT EXISTS idx_api_keys_prefix ON api_keys(key_prefix);
	CREATE INDEX IF NOT EXISTS idx_api_keys_active ON api_keys(is_active);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// generateID creates a new unique ID with a prefix
func generateID(prefix string) string {
	return prefix + "_" + uuid.New().String()[:8]
}

// Helper functions

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

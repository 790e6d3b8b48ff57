// Package audit maintains the append-only request ledger. Every invocation
// attempt that passes admission is recorded, whatever its outcome, and a
// ledger write failure fails the request rather than being swallowed.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/storage/models"
)

// ErrAuditWriteFailed wraps any storage error from appending to the ledger.
// Callers treat it as fatal for the request: an invocation that cannot be
// recorded is reported as failed even if the model call itself succeeded.
var ErrAuditWriteFailed = errors.New("audit write failed")

// Ledger is the append-only audit trail of invocation attempts.
type Ledger struct {
	store  storage.Storage
	logger *slog.Logger
}

// NewLedger creates a ledger over the given store.
func NewLedger(store storage.Storage, logger *slog.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// Record appends one entry. Entries are immutable once written; there is no
// update or single-entry delete path.
func (l *Ledger) Record(entry *models.RequestLogEntry) error {
	if err := l.store.AppendRequestLog(entry); err != nil {
		l.logger.Error("audit ledger append failed",
			"user_id", entry.UserID,
			"model", entry.Model,
			"outcome", entry.Outcome,
			"error", err)
		return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	}
	return nil
}

// Query returns ledger entries matching the filter, newest first.
func (l *Ledger) Query(filter models.LogFilter) ([]*models.RequestLogEntry, error) {
	return l.store.GetRequestLogs(filter)
}

// Purge removes entries older than the retention horizon. This is the only
// deletion path and exists for retention policy, not for editing history.
func (l *Ledger) Purge(olderThan time.Time) (int64, error) {
	n, err := l.store.DeleteRequestLogs(olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit ledger: %w", err)
	}
	if n > 0 {
		l.logger.Info("purged audit ledger entries", "count", n, "older_than", olderThan)
	}
	return n, nil
}

// MarshalParams serializes the effective parameter set for storage in an
// entry. The ledger stores the exact parameters the invocation ran with.
func MarshalParams(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

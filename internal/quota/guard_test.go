package quota

import (
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/storage/models"
)

func setupGuard(t *testing.T) (storage.Storage, *Guard) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, NewGuard(store, slog.Default())
}

func TestAdmitUnlimitedByDefault(t *testing.T) {
	_, guard := setupGuard(t)

	for i := 0; i < 20; i++ {
		adm, err := guard.Admit("alice", "tester", 0.5, 0)
		require.NoError(t, err)
		require.NotNil(t, adm)
	}
}

func TestAdmitCostCeiling(t *testing.T) {
	_, guard := setupGuard(t)

	_, err := guard.Admit("alice", "tester", 0.10, 0.05)
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, DenialCostCeiling, denied.Reason)
	assert.Equal(t, 0.05, denied.Limit)
	assert.Equal(t, 0.10, denied.Requested)

	// At or under the ceiling admits
	_, err = guard.Admit("alice", "tester", 0.05, 0.05)
	assert.NoError(t, err)
}

func TestAdmitUserQuotaBoundary(t *testing.T) {
	store, guard := setupGuard(t)

	require.NoError(t, store.SetQuotaLimit(&models.QuotaLimit{
		Scope: models.ScopeUser, ScopeID: "alice", Period: models.PeriodDaily,
		MaxRequests: 3,
	}))

	for i := 0; i < 3; i++ {
		_, err := guard.Admit("alice", "tester", 0, 0)
		require.NoError(t, err, "request %d should admit", i)
	}

	_, err := guard.Admit("alice", "tester", 0, 0)
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, DenialUserQuota, denied.Reason)
	assert.Equal(t, models.ScopeUser, denied.Scope)
	assert.Equal(t, "alice", denied.ScopeID)

	// Other users are unaffected
	_, err = guard.Admit("bob", "tester", 0, 0)
	assert.NoError(t, err)
}

func TestAdmitRoleCostQuota(t *testing.T) {
	store, guard := setupGuard(t)

	require.NoError(t, store.SetQuotaLimit(&models.QuotaLimit{
		Scope: models.ScopeRole, ScopeID: "tester", Period: models.PeriodMonthly,
		MaxCost: 1.0,
	}))

	_, err := guard.Admit("alice", "tester", 0.6, 0)
	require.NoError(t, err)

	// 0.6 + 0.6 > 1.0
	_, err = guard.Admit("bob", "tester", 0.6, 0)
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, DenialRoleQuota, denied.Reason)
	assert.Equal(t, models.PeriodMonthly, denied.Period)

	// A different role shares nothing with it
	_, err = guard.Admit("carol", "analyst", 0.6, 0)
	assert.NoError(t, err)
}

func TestAdmitGlobalQuota(t *testing.T) {
	store, guard := setupGuard(t)

	require.NoError(t, store.SetQuotaLimit(&models.QuotaLimit{
		Scope: models.ScopeGlobal, Period: models.PeriodDaily, MaxRequests: 2,
	}))

	_, err := guard.Admit("alice", "tester", 0, 0)
	require.NoError(t, err)
	_, err = guard.Admit("bob", "analyst", 0, 0)
	require.NoError(t, err)

	_, err = guard.Admit("carol", "admin", 0, 0)
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, DenialGlobalQuota, denied.Reason)
}

func TestAdmitConcurrentBoundary(t *testing.T) {
	store, guard := setupGuard(t)

	require.NoError(t, store.SetQuotaLimit(&models.QuotaLimit{
		Scope: models.ScopeUser, ScopeID: "alice", Period: models.PeriodDaily,
		MaxRequests: 10,
	}))

	const workers = 25
	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := guard.Admit("alice", "tester", 0, 0); err == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), admitted.Load(), "exactly the limit must admit")
}

func TestRefundRestoresHeadroom(t *testing.T) {
	store, guard := setupGuard(t)

	require.NoError(t, store.SetQuotaLimit(&models.QuotaLimit{
		Scope: models.ScopeUser, ScopeID: "alice", Period: models.PeriodDaily,
		MaxRequests: 1,
	}))

	adm, err := guard.Admit("alice", "tester", 0.2, 0)
	require.NoError(t, err)

	_, err = guard.Admit("alice", "tester", 0, 0)
	require.Error(t, err)

	guard.Refund(adm)

	_, err = guard.Admit("alice", "tester", 0, 0)
	assert.NoError(t, err, "refund must restore the slot")
}

func TestSettleReturnsEstimateDelta(t *testing.T) {
	store, guard := setupGuard(t)

	adm, err := guard.Admit("alice", "tester", 1.0, 0)
	require.NoError(t, err)

	// Actual cost came in lower: the difference goes back
	guard.Settle(adm, 0.25)

	window := WindowFor(models.PeriodDaily, time.Now())
	counter, err := store.GetQuotaCounter(models.ScopeUser, "alice", models.PeriodDaily, window)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, counter.CostUsed, 1e-9)
	assert.Equal(t, 1, counter.RequestCount, "settle never touches the request count")
}

func TestSettleChargesOverrun(t *testing.T) {
	store, guard := setupGuard(t)

	adm, err := guard.Admit("alice", "tester", 0.1, 0)
	require.NoError(t, err)

	guard.Settle(adm, 0.3)

	window := WindowFor(models.PeriodDaily, time.Now())
	counter, err := store.GetQuotaCounter(models.ScopeUser, "alice", models.PeriodDaily, window)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, counter.CostUsed, 1e-9)
}

func TestWindowFor(t *testing.T) {
	ts := time.Date(2026, 8, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-31", WindowFor(models.PeriodDaily, ts))
	assert.Equal(t, "2026-08", WindowFor(models.PeriodMonthly, ts))
}

func TestWindowRollover(t *testing.T) {
	store, _ := setupGuard(t)
	guard := NewGuard(store, slog.Default())

	day1 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return day1 }

	require.NoError(t, store.SetQuotaLimit(&models.QuotaLimit{
		Scope: models.ScopeUser, ScopeID: "alice", Period: models.PeriodDaily,
		MaxRequests: 1,
	}))

	_, err := guard.Admit("alice", "tester", 0, 0)
	require.NoError(t, err)
	_, err = guard.Admit("alice", "tester", 0, 0)
	require.Error(t, err)

	// The next day the counter starts fresh
	guard.now = func() time.Time { return day1.Add(24 * time.Hour) }
	_, err = guard.Admit("alice", "tester", 0, 0)
	assert.NoError(t, err)
}

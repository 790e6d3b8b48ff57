// Package quota enforces request-count and cost ceilings before any model
// invocation is dispatched. Admission reserves quota up front; a failed
// invocation is refunded, a guardrail block is not.
package quota

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/calyptra/modelbench/internal/storage"
	"github.com/calyptra/modelbench/internal/storage/models"
)

// DenialReason identifies which check rejected the request.
type DenialReason string

const (
	DenialCostCeiling DenialReason = "cost_ceiling"
	DenialUserQuota   DenialReason = "user_quota"
	DenialRoleQuota   DenialReason = "role_quota"
	DenialGlobalQuota DenialReason = "global_quota"
)

// DeniedError is returned when admission fails. It carries enough detail for
// the caller to report which limit was hit without another lookup.
type DeniedError struct {
	Reason    DenialReason
	Scope     models.QuotaScope
	ScopeID   string
	Period    models.QuotaPeriod
	Limit     float64
	Used      float64
	Requested float64
}

func (e *DeniedError) Error() string {
	if e.Reason == DenialCostCeiling {
		return fmt.Sprintf("quota denied (%s): estimated cost %.4f exceeds per-request ceiling %.4f",
			e.Reason, e.Requested, e.Limit)
	}
	return fmt.Sprintf("quota denied (%s): %s/%s %s used %.4f + requested %.4f exceeds limit %.4f",
		e.Reason, e.Scope, e.ScopeID, e.Period, e.Used, e.Requested, e.Limit)
}

// Admission is the record of a successful reservation, needed to refund it.
type Admission struct {
	Keys          []models.CounterKey
	EstimatedCost float64
	AdmittedAt    time.Time
}

// Guard admits or denies requests against the configured quota limits.
//
// Check-and-reserve runs under a single mutex so that N concurrent requests
// against a limit with headroom for exactly N admit all N and deny the rest;
// the reservation itself is one storage transaction across every counter in
// the chain.
type Guard struct {
	mu     sync.Mutex
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time // test seam
}

// NewGuard creates a quota guard over the given store.
func NewGuard(store storage.Storage, logger *slog.Logger) *Guard {
	return &Guard{store: store, logger: logger, now: time.Now}
}

// Admit reserves one request plus estimatedCost against every applicable
// counter, in fixed order: per-request cost ceiling, then user, role, and
// global quotas, each daily before monthly. The first violated limit denies
// the request and nothing is reserved.
//
// maxCostPerRequest <= 0 means no per-request ceiling.
func (g *Guard) Admit(userID, role string, estimatedCost, maxCostPerRequest float64) (*Admission, error) {
	if maxCostPerRequest > 0 && estimatedCost > maxCostPerRequest {
		return nil, &DeniedError{
			Reason:    DenialCostCeiling,
			Limit:     maxCostPerRequest,
			Requested: estimatedCost,
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	chain := []struct {
		reason  DenialReason
		scope   models.QuotaScope
		scopeID string
	}{
		{DenialUserQuota, models.ScopeUser, userID},
		{DenialRoleQuota, models.ScopeRole, role},
		{DenialGlobalQuota, models.ScopeGlobal, ""},
	}

	var keys []models.CounterKey
	for _, link := range chain {
		if link.scope != models.ScopeGlobal && link.scopeID == "" {
			continue
		}
		for _, period := range []models.QuotaPeriod{models.PeriodDaily, models.PeriodMonthly} {
			window := WindowFor(period, now)
			if err := g.checkLimit(link.reason, link.scope, link.scopeID, period, window, estimatedCost); err != nil {
				return nil, err
			}
			keys = append(keys, models.CounterKey{
				Scope: link.scope, ScopeID: link.scopeID, Period: period, Window: window,
			})
		}
	}

	if err := g.store.ApplyQuotaUsage(keys, 1, estimatedCost); err != nil {
		return nil, fmt.Errorf("failed to reserve quota: %w", err)
	}

	return &Admission{Keys: keys, EstimatedCost: estimatedCost, AdmittedAt: now}, nil
}

// checkLimit verifies a single scope/period against its configured limit.
// No configured limit means unlimited.
func (g *Guard) checkLimit(reason DenialReason, scope models.QuotaScope, scopeID string,
	period models.QuotaPeriod, window string, cost float64) error {

	limit, err := g.store.GetQuotaLimit(scope, scopeID, period)
	if err == storage.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load quota limit: %w", err)
	}

	counter, err := g.store.GetQuotaCounter(scope, scopeID, period, window)
	if err != nil && err != storage.ErrNotFound {
		return fmt.Errorf("failed to load quota counter: %w", err)
	}
	var usedRequests int
	var usedCost float64
	if counter != nil {
		usedRequests = counter.RequestCount
		usedCost = counter.CostUsed
	}

	if limit.MaxRequests > 0 && usedRequests+1 > limit.MaxRequests {
		return &DeniedError{
			Reason: reason, Scope: scope, ScopeID: scopeID, Period: period,
			Limit: float64(limit.MaxRequests), Used: float64(usedRequests), Requested: 1,
		}
	}
	if limit.MaxCost > 0 && usedCost+cost > limit.MaxCost {
		return &DeniedError{
			Reason: reason, Scope: scope, ScopeID: scopeID, Period: period,
			Limit: limit.MaxCost, Used: usedCost, Requested: cost,
		}
	}
	return nil
}

// Settle reconciles a reservation with the actual invocation cost. The
// reservation was made from a pre-call estimate; when the real cost comes in
// lower the difference is returned to the counters. A higher real cost is
// charged in full.
func (g *Guard) Settle(adm *Admission, actualCost float64) {
	if adm == nil {
		return
	}
	delta := actualCost - adm.EstimatedCost
	if delta == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	var err error
	if delta < 0 {
		err = g.store.RefundQuotaUsage(adm.Keys, 0, -delta)
	} else {
		err = g.store.ApplyQuotaUsage(adm.Keys, 0, delta)
	}
	if err != nil {
		g.logger.Error("quota settlement failed", "error", err, "delta", delta)
	}
}

// Refund returns a reservation after an invocation failure. Counters whose
// window has rolled over since admission are left alone; partial refunds
// floor at zero.
func (g *Guard) Refund(adm *Admission) {
	if adm == nil || len(adm.Keys) == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.RefundQuotaUsage(adm.Keys, 1, adm.EstimatedCost); err != nil {
		// A failed refund over-counts usage, which is the safe direction.
		g.logger.Error("quota refund failed", "error", err, "cost", adm.EstimatedCost)
	}
}

// WindowFor formats the counter window for a period at the given time.
func WindowFor(period models.QuotaPeriod, t time.Time) string {
	if period == models.PeriodMonthly {
		return t.UTC().Format("2006-01")
	}
	return t.UTC().Format("2006-01-02")
}

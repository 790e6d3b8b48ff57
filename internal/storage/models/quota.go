package models

// QuotaScope is the dimension a consumption counter is tracked against.
type QuotaScope string

const (
	ScopeUser   QuotaScope = "user"
	ScopeRole   QuotaScope = "role"
	ScopeGlobal QuotaScope = "global"
)

// QuotaPeriod is the counter window.
type QuotaPeriod string

const (
	PeriodDaily   QuotaPeriod = "daily"
	PeriodMonthly QuotaPeriod = "monthly"
)

// QuotaLimit is an administrator-configured ceiling for one scope and period.
// A zero MaxRequests or MaxCost means that dimension is unlimited.
type QuotaLimit struct {
	Scope       QuotaScope  `json:"scope"`
	ScopeID     string      `json:"scope_id"` // user id, role name, or "" for global
	Period      QuotaPeriod `json:"period"`
	MaxRequests int         `json:"max_requests"`
	MaxCost     float64     `json:"max_cost"`
}

// QuotaCounter is the consumed amount for one scope key within its current
// window. Window is "2006-01-02" for daily and "2006-01" for monthly; a
// counter whose window no longer matches the current timestamp reads as zero.
type QuotaCounter struct {
	Scope        QuotaScope  `json:"scope"`
	ScopeID      string      `json:"scope_id"`
	Period       QuotaPeriod `json:"period"`
	Window       string      `json:"window"`
	RequestCount int         `json:"request_count"`
	CostUsed     float64     `json:"cost_used"`
}

// CounterKey identifies one counter to increment or refund.
type CounterKey struct {
	Scope   QuotaScope
	ScopeID string
	Period  QuotaPeriod
	Window  string
}

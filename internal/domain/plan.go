// Package domain contains core business types and interfaces.
//
// This file defines subscription plans and their quota limits. Plan
// definitions are immutable process-wide configuration: a PlanRegistry is
// seeded once at startup and only read afterward.
package domain

// PlanID identifies a subscription plan.
type PlanID string

const (
	PlanFree     PlanID = "free"
	PlanStarter  PlanID = "starter"
	PlanBusiness PlanID = "business"
)

// TierClass separates free plans (which carry extra per-call restrictions)
// from paid plans.
type TierClass string

const (
	TierFree TierClass = "free"
	TierPaid TierClass = "paid"
)

// Limit is a quota cap: either a non-negative integer or the unlimited
// sentinel. A zero Value with Unlimited=false means "feature disabled for
// this tier" and is never conflated with unlimited.
type Limit struct {
	Value     int
	Unlimited bool
}

// LimitOf returns a bounded limit of n units.
func LimitOf(n int) Limit {
	return Limit{Value: n}
}

// NoLimit returns the unlimited sentinel.
func NoLimit() Limit {
	return Limit{Unlimited: true}
}

// Cap returns the numeric cap as a nullable value: nil means unlimited.
func (l Limit) Cap() *int {
	if l.Unlimited {
		return nil
	}
	v := l.Value
	return &v
}

// PlanDefinition is the full quota configuration for one plan.
type PlanDefinition struct {
	ID   PlanID
	Tier TierClass

	SearchesPerMonth    Limit
	LeadCreditsPerMonth Limit
	AIMessagesPerDay    Limit
	MaxActiveTasks      Limit
	CSVExportsPerMonth  Limit

	// LeadsPerSearch is a per-call ceiling on leads saved from a single
	// search. Zero means no per-call ceiling; it only applies to free tiers.
	LeadsPerSearch int

	// UnlimitedExports bypasses the export counter entirely, independent of
	// CSVExportsPerMonth.
	UnlimitedExports bool

	// QueuePriority orders extraction jobs when capacity is contended.
	// Higher wins.
	QueuePriority int
}

// LimitFor returns the plan's cap for a metric.
func (p PlanDefinition) LimitFor(m Metric) Limit {
	switch m {
	case MetricSearches:
		return p.SearchesPerMonth
	case MetricLeads:
		return p.LeadCreditsPerMonth
	case MetricAIMessages:
		return p.AIMessagesPerDay
	case MetricTasks:
		return p.MaxActiveTasks
	case MetricCSVExports:
		if p.UnlimitedExports {
			return NoLimit()
		}
		return p.CSVExportsPerMonth
	default:
		return LimitOf(0)
	}
}

// PlanRegistry is the static plan table. Lookups for unknown identifiers
// fall back to the free plan; Get never fails.
type PlanRegistry struct {
	plans map[PlanID]PlanDefinition
}

// NewPlanRegistry builds a registry from the given definitions. The free
// plan must be present; it is the fallback for every unknown identifier.
func NewPlanRegistry(defs ...PlanDefinition) *PlanRegistry {
	plans := make(map[PlanID]PlanDefinition, len(defs))
	for _, d := range defs {
		plans[d.ID] = d
	}
	if _, ok := plans[PlanFree]; !ok {
		plans[PlanFree] = DefaultPlans()[0]
	}
	return &PlanRegistry{plans: plans}
}

// Get returns the definition for id, or the free plan for unknown ids.
func (r *PlanRegistry) Get(id PlanID) PlanDefinition {
	if def, ok := r.plans[id]; ok {
		return def
	}
	return r.plans[PlanFree]
}

// Known reports whether id is a registered plan.
func (r *PlanRegistry) Known(id PlanID) bool {
	_, ok := r.plans[id]
	return ok
}

// IDs returns the registered plan identifiers.
func (r *PlanRegistry) IDs() []PlanID {
	ids := make([]PlanID, 0, len(r.plans))
	for id := range r.plans {
		ids = append(ids, id)
	}
	return ids
}

// DefaultPlans returns the built-in plan table.
func DefaultPlans() []PlanDefinition {
	return []PlanDefinition{
		{
			ID:                  PlanFree,
			Tier:                TierFree,
			SearchesPerMonth:    LimitOf(4),
			LeadCreditsPerMonth: LimitOf(40),
			AIMessagesPerDay:    LimitOf(5),
			MaxActiveTasks:      LimitOf(3),
			CSVExportsPerMonth:  LimitOf(1),
			LeadsPerSearch:      10,
			QueuePriority:       0,
		},
		{
			ID:                  PlanStarter,
			Tier:                TierPaid,
			SearchesPerMonth:    LimitOf(100),
			LeadCreditsPerMonth: LimitOf(150),
			AIMessagesPerDay:    LimitOf(50),
			MaxActiveTasks:      LimitOf(25),
			CSVExportsPerMonth:  LimitOf(20),
			QueuePriority:       1,
		},
		{
			ID:                  PlanBusiness,
			Tier:                TierPaid,
			SearchesPerMonth:    NoLimit(),
			LeadCreditsPerMonth: NoLimit(),
			AIMessagesPerDay:    LimitOf(500),
			MaxActiveTasks:      NoLimit(),
			CSVExportsPerMonth:  NoLimit(),
			UnlimitedExports:    true,
			QueuePriority:       2,
		},
	}
}

// Package domain contains core business types and interfaces.
//
// This file defines quota decision and snapshot value types. Decisions are
// ephemeral: they are computed per request and never persisted.
package domain

// Decision is the outcome of a check-and-consume request for one metric.
type Decision struct {
	Allowed bool

	// Granted is how many units were approved. Equal to the requested amount
	// unless the request was truncated to the remaining quota.
	Granted int

	// Used is the counter value before this request.
	Used int

	// Cap is the plan's limit; nil means unlimited.
	Cap *int

	// Remaining is the balance after this request; nil means unlimited.
	Remaining *int

	// Truncated is set when 0 < remaining < requested and the request was
	// partially satisfied.
	Truncated bool
}

// QuotaSnapshot is the read-only usage summary for a tenant.
type QuotaSnapshot struct {
	Plan      PlanID          `json:"plan"`
	Limits    map[Metric]*int `json:"limits"`    // nil value = unlimited
	Usage     map[Metric]int  `json:"usage"`     //
	Remaining map[Metric]*int `json:"remaining"` // nil value = unlimited
	Meta      SnapshotMeta    `json:"meta"`
}

// SnapshotMeta carries snapshot health flags.
type SnapshotMeta struct {
	// Degraded is set when the counter store was unreachable and usage
	// figures default to zero. Enforcement fails open in that state.
	Degraded bool `json:"degraded"`
}

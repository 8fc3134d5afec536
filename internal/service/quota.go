// Package service contains the business logic layer.
//
// This file implements the quota engine: resolving a tenant's plan, reading
// period counters, and deciding whether a consumption request is allowed,
// denied, or truncated to the remaining balance.
//
// Failure policy: if the counter store is unreachable, metering degrades to
// zero usage with a logged warning and enforcement fails open. A metering
// outage must never block the feature it gates.
package service

import (
	"context"
	"log/slog"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/metrics"
	"github.com/leadgrid/leadgrid/internal/period"
)

// ActiveTaskCounter supplies the live count of non-completed tasks.
// Satisfied by *repository.Queries.
type ActiveTaskCounter interface {
	CountActiveTasks(ctx context.Context, tenantID int64) (int64, error)
}

// QuotaService answers "can tenant X consume N units of metric M now?" and
// performs the increment on approval.
type QuotaService interface {
	// ConsumeSearch meters one search reporting `found` new leads and
	// `duplicates` already-known ones. Applies the free tier's per-search
	// ceiling, then monthly lead-credit truncation. Returns a
	// *domain.QuotaExceededError when the monthly search count or the lead
	// credits are fully exhausted.
	ConsumeSearch(ctx context.Context, tenant *domain.Tenant, found, duplicates int) (*domain.SearchResult, error)

	// ConsumeAIMessage checks and consumes one unit of the daily AI message
	// quota. Boolean allow/deny; no truncation concept.
	ConsumeAIMessage(ctx context.Context, tenant *domain.Tenant) error

	// CheckTaskCreate verifies the tenant is under its active-task cap.
	// Computed live from non-completed rows, not from a counter.
	CheckTaskCreate(ctx context.Context, tenant *domain.Tenant) error

	// ConsumeExport checks and consumes one CSV export. Plans with the
	// unlimited-exports flag bypass the counter entirely.
	ConsumeExport(ctx context.Context, tenant *domain.Tenant) error

	// Snapshot returns the read-only quota summary for the tenant. Never
	// fails on counter store outage; Meta.Degraded is set instead.
	Snapshot(ctx context.Context, tenant *domain.Tenant) (*domain.QuotaSnapshot, error)
}

type quotaService struct {
	resolver PlanResolver
	counters CounterStore
	tasks    ActiveTaskCounter
	now      period.Clock
	logger   *slog.Logger
}

// NewQuotaService creates a QuotaService. now may be nil, defaulting to the
// system clock; tests inject a frozen clock.
func NewQuotaService(resolver PlanResolver, counters CounterStore, tasks ActiveTaskCounter, now period.Clock, logger *slog.Logger) QuotaService {
	if now == nil {
		now = period.SystemClock
	}
	return &quotaService{
		resolver: resolver,
		counters: counters,
		tasks:    tasks,
		now:      now,
		logger:   logger,
	}
}

// decide computes the allow/deny/truncate outcome for a consumption request
// against a limit and the current usage. Pure; the caller performs the
// increment for Granted units.
func decide(limit domain.Limit, used, requested int) domain.Decision {
	if limit.Unlimited {
		return domain.Decision{
			Allowed: true,
			Granted: requested,
			Used:    used,
		}
	}

	remaining := limit.Value - used
	if remaining < 0 {
		remaining = 0
	}

	d := domain.Decision{Used: used, Cap: limit.Cap()}
	if remaining <= 0 {
		after := 0
		d.Remaining = &after
		return d
	}

	granted := requested
	if granted > remaining {
		granted = remaining
		d.Truncated = true
	}
	after := remaining - granted
	d.Allowed = true
	d.Granted = granted
	d.Remaining = &after
	return d
}

// periodKey returns the counter bucket for the metric at the engine's
// current time.
func (s *quotaService) periodKey(m domain.Metric) string {
	if m.Granularity() == domain.GranularityDaily {
		return period.DailyKey(s.now())
	}
	return period.MonthlyKey(s.now())
}

// readUsage reads the counter, degrading to zero usage on storage failure.
func (s *quotaService) readUsage(ctx context.Context, tenantID int64, m domain.Metric, key string) (used int, degraded bool) {
	used, err := s.counters.Read(ctx, tenantID, m, key)
	if err != nil {
		s.logger.Warn("counter read failed, metering degraded to zero usage",
			"tenant_id", tenantID, "metric", m, "period", key, "error", err)
		metrics.QuotaDegradedReads.Inc()
		return 0, true
	}
	return used, false
}

// increment applies the approved amount. A failed increment is logged and
// dropped; it never surfaces to the caller.
func (s *quotaService) increment(ctx context.Context, tenantID int64, m domain.Metric, key string, amount int) {
	if amount <= 0 {
		return
	}
	if err := s.counters.Increment(ctx, tenantID, m, key, amount); err != nil {
		s.logger.Warn("counter increment failed",
			"tenant_id", tenantID, "metric", m, "period", key, "amount", amount, "error", err)
	}
}

func (s *quotaService) ConsumeSearch(ctx context.Context, tenant *domain.Tenant, found, duplicates int) (*domain.SearchResult, error) {
	const op = "quota.consume_search"

	if found < 0 || duplicates < 0 {
		return nil, domain.Invalid(op, "lead counts must be non-negative")
	}

	planID, def := s.resolver.Resolve(tenant)

	// Monthly search count: plain allow/deny, no truncation.
	searchKey := s.periodKey(domain.MetricSearches)
	searchDec := decide(def.SearchesPerMonth, s.mustRead(ctx, tenant.ID, domain.MetricSearches, searchKey), 1)
	if !searchDec.Allowed {
		s.logDenial(tenant.ID, planID, domain.MetricSearches, searchDec)
		return nil, domain.QuotaExceeded(op, domain.MetricSearches, planID, def.SearchesPerMonth.Value, searchDec.Used)
	}

	// Per-search ceiling: a narrower truncation rule applied before the
	// monthly credit rule. Only free plans carry one.
	eligible := found
	truncatedByCap := 0
	if def.LeadsPerSearch > 0 && eligible > def.LeadsPerSearch {
		truncatedByCap = eligible - def.LeadsPerSearch
		eligible = def.LeadsPerSearch
	}

	// Monthly lead credits.
	leadKey := s.periodKey(domain.MetricLeads)
	leadDec := decide(def.LeadCreditsPerMonth, s.mustRead(ctx, tenant.ID, domain.MetricLeads, leadKey), eligible)
	if !leadDec.Allowed && eligible > 0 {
		s.logDenial(tenant.ID, planID, domain.MetricLeads, leadDec)
		return nil, domain.QuotaExceeded(op, domain.MetricLeads, planID, def.LeadCreditsPerMonth.Value, leadDec.Used)
	}

	// Approved: the search counts as one unit, leads by what was granted.
	s.increment(ctx, tenant.ID, domain.MetricSearches, searchKey, 1)
	s.increment(ctx, tenant.ID, domain.MetricLeads, leadKey, leadDec.Granted)

	truncatedByCredits := eligible - leadDec.Granted
	result := &domain.SearchResult{
		Saved:              leadDec.Granted,
		Duplicates:         duplicates,
		TruncatedByCap:     truncatedByCap,
		TruncatedByCredits: truncatedByCredits,
		Discarded:          duplicates + truncatedByCap + truncatedByCredits,
		Truncated:          truncatedByCap > 0 || truncatedByCredits > 0,
		RemainingCredits:   leadDec.Remaining,
	}
	if searchDec.Remaining != nil {
		after := *searchDec.Remaining
		result.RemainingSearches = &after
	}

	outcome := "allowed"
	if result.Truncated {
		outcome = "truncated"
	}
	metrics.QuotaDecisions.WithLabelValues(string(domain.MetricSearches), outcome).Inc()
	return result, nil
}

func (s *quotaService) ConsumeAIMessage(ctx context.Context, tenant *domain.Tenant) error {
	const op = "quota.consume_ai_message"

	planID, def := s.resolver.Resolve(tenant)
	key := s.periodKey(domain.MetricAIMessages)

	dec := decide(def.AIMessagesPerDay, s.mustRead(ctx, tenant.ID, domain.MetricAIMessages, key), 1)
	if !dec.Allowed {
		s.logDenial(tenant.ID, planID, domain.MetricAIMessages, dec)
		return domain.QuotaExceeded(op, domain.MetricAIMessages, planID, def.AIMessagesPerDay.Value, dec.Used)
	}

	s.increment(ctx, tenant.ID, domain.MetricAIMessages, key, 1)
	metrics.QuotaDecisions.WithLabelValues(string(domain.MetricAIMessages), "allowed").Inc()
	return nil
}

func (s *quotaService) CheckTaskCreate(ctx context.Context, tenant *domain.Tenant) error {
	const op = "quota.check_task_create"

	planID, def := s.resolver.Resolve(tenant)
	if def.MaxActiveTasks.Unlimited {
		return nil
	}

	count, err := s.tasks.CountActiveTasks(ctx, tenant.ID)
	if err != nil {
		// Live counts share the metering failure policy: fail open.
		s.logger.Warn("active task count failed, allowing task creation",
			"tenant_id", tenant.ID, "error", err)
		metrics.QuotaDegradedReads.Inc()
		return nil
	}

	if int(count) >= def.MaxActiveTasks.Value {
		s.logger.Info("task quota exceeded",
			"tenant_id", tenant.ID, "plan", planID,
			"active", count, "limit", def.MaxActiveTasks.Value)
		metrics.QuotaDecisions.WithLabelValues(string(domain.MetricTasks), "denied").Inc()
		return domain.QuotaExceeded(op, domain.MetricTasks, planID, def.MaxActiveTasks.Value, int(count))
	}
	return nil
}

func (s *quotaService) ConsumeExport(ctx context.Context, tenant *domain.Tenant) error {
	const op = "quota.consume_export"

	planID, def := s.resolver.Resolve(tenant)

	// The unlimited-exports flag is independent of any numeric cap and
	// bypasses the counter check entirely.
	if def.UnlimitedExports {
		return nil
	}

	key := s.periodKey(domain.MetricCSVExports)
	dec := decide(def.CSVExportsPerMonth, s.mustRead(ctx, tenant.ID, domain.MetricCSVExports, key), 1)
	if !dec.Allowed {
		s.logDenial(tenant.ID, planID, domain.MetricCSVExports, dec)
		return domain.QuotaExceeded(op, domain.MetricCSVExports, planID, def.CSVExportsPerMonth.Value, dec.Used)
	}

	s.increment(ctx, tenant.ID, domain.MetricCSVExports, key, 1)
	metrics.QuotaDecisions.WithLabelValues(string(domain.MetricCSVExports), "allowed").Inc()
	return nil
}

func (s *quotaService) Snapshot(ctx context.Context, tenant *domain.Tenant) (*domain.QuotaSnapshot, error) {
	planID, def := s.resolver.Resolve(tenant)

	snap := &domain.QuotaSnapshot{
		Plan:      planID,
		Limits:    make(map[domain.Metric]*int),
		Usage:     make(map[domain.Metric]int),
		Remaining: make(map[domain.Metric]*int),
	}

	for _, m := range []domain.Metric{
		domain.MetricSearches, domain.MetricLeads, domain.MetricAIMessages, domain.MetricCSVExports,
	} {
		limit := def.LimitFor(m)
		used, degraded := s.readUsage(ctx, tenant.ID, m, s.periodKey(m))
		if degraded {
			snap.Meta.Degraded = true
		}
		snap.Limits[m] = limit.Cap()
		snap.Usage[m] = used
		snap.Remaining[m] = remainingOf(limit, used)
	}

	// Tasks: live count instead of a counter.
	taskLimit := def.LimitFor(domain.MetricTasks)
	active, err := s.tasks.CountActiveTasks(ctx, tenant.ID)
	if err != nil {
		s.logger.Warn("active task count failed in snapshot", "tenant_id", tenant.ID, "error", err)
		snap.Meta.Degraded = true
		active = 0
	}
	snap.Limits[domain.MetricTasks] = taskLimit.Cap()
	snap.Usage[domain.MetricTasks] = int(active)
	snap.Remaining[domain.MetricTasks] = remainingOf(taskLimit, int(active))

	return snap, nil
}

// mustRead is readUsage without the degraded flag, for consume paths where
// fail-open already implies zero usage.
func (s *quotaService) mustRead(ctx context.Context, tenantID int64, m domain.Metric, key string) int {
	used, _ := s.readUsage(ctx, tenantID, m, key)
	return used
}

func (s *quotaService) logDenial(tenantID int64, plan domain.PlanID, m domain.Metric, dec domain.Decision) {
	s.logger.Info("quota exceeded",
		"tenant_id", tenantID, "plan", plan, "metric", m,
		"used", dec.Used, "limit", dec.Cap)
	metrics.QuotaDecisions.WithLabelValues(string(m), "denied").Inc()
}

func remainingOf(limit domain.Limit, used int) *int {
	if limit.Unlimited {
		return nil
	}
	r := limit.Value - used
	if r < 0 {
		r = 0
	}
	return &r
}

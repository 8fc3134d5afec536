// Package service contains the business logic layer.
//
// This file implements plan resolution: mapping a tenant to its effective
// plan definition. Resolution is total (never fails) and re-computed on
// every call so that a billing webhook takes effect immediately.
package service

import (
	"log/slog"

	"github.com/leadgrid/leadgrid/internal/domain"
)

// PriceMapper maps a billing-provider price identifier to a plan.
// Returns the empty PlanID for unknown prices.
type PriceMapper interface {
	PlanForPriceID(priceID string) domain.PlanID
}

// PlanResolver determines a tenant's effective plan.
type PlanResolver interface {
	// Resolve returns the effective plan id and definition, in strict
	// priority order: stored plan field, billing price mapping, free.
	Resolve(tenant *domain.Tenant) (domain.PlanID, domain.PlanDefinition)
}

type planResolver struct {
	registry *domain.PlanRegistry
	prices   PriceMapper
	logger   *slog.Logger
}

// NewPlanResolver creates a PlanResolver. prices may be nil when billing is
// not configured; resolution then skips the price mapping step.
func NewPlanResolver(registry *domain.PlanRegistry, prices PriceMapper, logger *slog.Logger) PlanResolver {
	return &planResolver{
		registry: registry,
		prices:   prices,
		logger:   logger,
	}
}

func (r *planResolver) Resolve(tenant *domain.Tenant) (domain.PlanID, domain.PlanDefinition) {
	// 1. Stored plan field wins when it names a known plan.
	if tenant.HasStoredPlan() {
		id := domain.PlanID(tenant.Plan)
		if r.registry.Known(id) {
			return id, r.registry.Get(id)
		}
		r.logger.Warn("tenant has unknown stored plan, falling through",
			"tenant_id", tenant.ID, "plan", tenant.Plan)
	}

	// 2. Billing price id mapping.
	if tenant.BillingPriceID != "" && r.prices != nil {
		if id := r.prices.PlanForPriceID(tenant.BillingPriceID); id != "" && r.registry.Known(id) {
			return id, r.registry.Get(id)
		}
		r.logger.Warn("tenant billing price id does not map to a known plan, defaulting to free",
			"tenant_id", tenant.ID, "billing_price_id", tenant.BillingPriceID)
		return domain.PlanFree, r.registry.Get(domain.PlanFree)
	}

	// 3. Default to free. Only warn when the tenant looked like it should
	// have resolved to something else; a plain free tenant is not degraded.
	if tenant.HasStoredPlan() {
		r.logger.Warn("tenant plan resolution degraded to free",
			"tenant_id", tenant.ID, "stored_plan", tenant.Plan)
	}
	return domain.PlanFree, r.registry.Get(domain.PlanFree)
}

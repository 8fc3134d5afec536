package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leadgrid/leadgrid/internal/domain"
)

// mapMapper maps price ids from a fixed table.
type mapMapper map[string]domain.PlanID

func (m mapMapper) PlanForPriceID(priceID string) domain.PlanID {
	return m[priceID]
}

func TestPlanResolver(t *testing.T) {
	registry := domain.NewPlanRegistry(domain.DefaultPlans()...)
	prices := mapMapper{
		"price_starter":  domain.PlanStarter,
		"price_business": domain.PlanBusiness,
	}

	tests := []struct {
		name   string
		tenant domain.Tenant
		mapper PriceMapper
		want   domain.PlanID
	}{
		{
			name:   "stored plan wins over price mapping",
			tenant: domain.Tenant{Plan: "starter", BillingPriceID: "price_business"},
			mapper: prices,
			want:   domain.PlanStarter,
		},
		{
			name:   "unknown stored plan falls through to price",
			tenant: domain.Tenant{Plan: "legacy_gold", BillingPriceID: "price_business"},
			mapper: prices,
			want:   domain.PlanBusiness,
		},
		{
			name:   "price mapping when no stored plan",
			tenant: domain.Tenant{BillingPriceID: "price_starter"},
			mapper: prices,
			want:   domain.PlanStarter,
		},
		{
			name:   "unmapped price defaults to free",
			tenant: domain.Tenant{BillingPriceID: "price_retired"},
			mapper: prices,
			want:   domain.PlanFree,
		},
		{
			name:   "nil mapper skips price step",
			tenant: domain.Tenant{BillingPriceID: "price_starter"},
			mapper: nil,
			want:   domain.PlanFree,
		},
		{
			name:   "plain tenant resolves to free",
			tenant: domain.Tenant{},
			mapper: prices,
			want:   domain.PlanFree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewPlanResolver(registry, tt.mapper, discardLogger())
			id, def := resolver.Resolve(&tt.tenant)
			assert.Equal(t, tt.want, id)
			assert.Equal(t, tt.want, def.ID)
		})
	}
}

func TestPlanRegistryUnknownFallsBackToFree(t *testing.T) {
	registry := domain.NewPlanRegistry(domain.DefaultPlans()...)

	def := registry.Get("enterprise")
	assert.Equal(t, domain.PlanFree, def.ID)
	assert.False(t, registry.Known("enterprise"))
}

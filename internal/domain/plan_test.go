package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitCap(t *testing.T) {
	require.NotNil(t, LimitOf(5).Cap())
	assert.Equal(t, 5, *LimitOf(5).Cap())

	// Zero is a real cap, not unlimited.
	require.NotNil(t, LimitOf(0).Cap())
	assert.Equal(t, 0, *LimitOf(0).Cap())

	assert.Nil(t, NoLimit().Cap())
}

func TestLimitFor(t *testing.T) {
	plans := make(map[PlanID]PlanDefinition)
	for _, def := range DefaultPlans() {
		plans[def.ID] = def
	}

	free := plans[PlanFree]
	assert.Equal(t, LimitOf(4), free.LimitFor(MetricSearches))
	assert.Equal(t, LimitOf(40), free.LimitFor(MetricLeads))
	assert.Equal(t, LimitOf(5), free.LimitFor(MetricAIMessages))
	assert.Equal(t, LimitOf(3), free.LimitFor(MetricTasks))
	assert.Equal(t, LimitOf(1), free.LimitFor(MetricCSVExports))

	// The export bypass flag wins over the numeric cap.
	business := plans[PlanBusiness]
	assert.True(t, business.LimitFor(MetricCSVExports).Unlimited)
	assert.True(t, business.LimitFor(MetricSearches).Unlimited)
	assert.Equal(t, LimitOf(500), business.LimitFor(MetricAIMessages))
}

func TestPlanRegistryFallback(t *testing.T) {
	reg := NewPlanRegistry(DefaultPlans()...)

	assert.Equal(t, PlanStarter, reg.Get(PlanStarter).ID)
	assert.Equal(t, PlanFree, reg.Get(PlanID("enterprise")).ID)
	assert.False(t, reg.Known(PlanID("enterprise")))
	assert.True(t, reg.Known(PlanBusiness))
}

func TestNewPlanRegistryAlwaysHasFree(t *testing.T) {
	reg := NewPlanRegistry(DefaultPlans()[1]) // starter only

	assert.Equal(t, PlanFree, reg.Get(PlanFree).ID)
	assert.Equal(t, PlanFree, reg.Get(PlanID("unknown")).ID)
}

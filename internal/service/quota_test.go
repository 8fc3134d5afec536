package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/period"
)

// fixedResolver returns one plan definition for every tenant.
type fixedResolver struct {
	id  domain.PlanID
	def domain.PlanDefinition
}

func (r fixedResolver) Resolve(*domain.Tenant) (domain.PlanID, domain.PlanDefinition) {
	return r.id, r.def
}

// stubTaskCounter returns a fixed active-task count or an error.
type stubTaskCounter struct {
	count int64
	err   error
}

func (s stubTaskCounter) CountActiveTasks(context.Context, int64) (int64, error) {
	return s.count, s.err
}

// failingCounterStore errors on every operation, simulating an outage.
type failingCounterStore struct{}

func (failingCounterStore) Ensure(context.Context, int64, domain.Metric, string) error {
	return errors.New("store down")
}

func (failingCounterStore) Increment(context.Context, int64, domain.Metric, string, int) error {
	return errors.New("store down")
}

func (failingCounterStore) Read(context.Context, int64, domain.Metric, string) (int, error) {
	return 0, errors.New("store down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func planByID(t *testing.T, id domain.PlanID) domain.PlanDefinition {
	t.Helper()
	for _, def := range domain.DefaultPlans() {
		if def.ID == id {
			return def
		}
	}
	t.Fatalf("unknown plan %s", id)
	return domain.PlanDefinition{}
}

// frozenClock returns a settable clock starting at a mid-month instant.
func frozenClock() (period.Clock, *time.Time) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }, &now
}

func newQuotaForPlan(t *testing.T, id domain.PlanID, tasks ActiveTaskCounter) (QuotaService, *MemoryCounterStore, *time.Time) {
	t.Helper()
	counters := NewMemoryCounterStore()
	clock, now := frozenClock()
	svc := NewQuotaService(fixedResolver{id: id, def: planByID(t, id)}, counters, tasks, clock, discardLogger())
	return svc, counters, now
}

func TestDecide(t *testing.T) {
	intp := func(n int) *int { return &n }

	tests := []struct {
		name      string
		limit     domain.Limit
		used      int
		requested int
		want      domain.Decision
	}{
		{
			name:      "unlimited always grants in full",
			limit:     domain.NoLimit(),
			used:      1_000_000,
			requested: 50,
			want:      domain.Decision{Allowed: true, Granted: 50, Used: 1_000_000},
		},
		{
			name:      "zero cap denies, never unlimited",
			limit:     domain.LimitOf(0),
			used:      0,
			requested: 1,
			want:      domain.Decision{Cap: intp(0), Remaining: intp(0)},
		},
		{
			name:      "exact fit grants in full",
			limit:     domain.LimitOf(10),
			used:      5,
			requested: 5,
			want:      domain.Decision{Allowed: true, Granted: 5, Used: 5, Cap: intp(10), Remaining: intp(0)},
		},
		{
			name:      "partial fit truncates to remaining",
			limit:     domain.LimitOf(10),
			used:      7,
			requested: 5,
			want:      domain.Decision{Allowed: true, Granted: 3, Used: 7, Cap: intp(10), Remaining: intp(0), Truncated: true},
		},
		{
			name:      "exhausted denies",
			limit:     domain.LimitOf(10),
			used:      10,
			requested: 1,
			want:      domain.Decision{Used: 10, Cap: intp(10), Remaining: intp(0)},
		},
		{
			name:      "overshoot clamps remaining to zero",
			limit:     domain.LimitOf(10),
			used:      14,
			requested: 1,
			want:      domain.Decision{Used: 14, Cap: intp(10), Remaining: intp(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decide(tt.limit, tt.used, tt.requested))
		})
	}
}

func TestConsumeSearchFreeTierPerSearchCeiling(t *testing.T) {
	svc, _, _ := newQuotaForPlan(t, domain.PlanFree, stubTaskCounter{})
	tenant := &domain.Tenant{ID: 1}

	// 20 fresh leads, 3 duplicates. The free tier caps a single search at 10
	// leads before credits are even consulted.
	result, err := svc.ConsumeSearch(context.Background(), tenant, 20, 3)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Saved)
	assert.Equal(t, 3, result.Duplicates)
	assert.Equal(t, 10, result.TruncatedByCap)
	assert.Equal(t, 0, result.TruncatedByCredits)
	assert.Equal(t, 13, result.Discarded)
	assert.True(t, result.Truncated)
	require.NotNil(t, result.RemainingCredits)
	assert.Equal(t, 30, *result.RemainingCredits)
	require.NotNil(t, result.RemainingSearches)
	assert.Equal(t, 3, *result.RemainingSearches)
}

func TestConsumeSearchDeniedWhenSearchesExhausted(t *testing.T) {
	svc, _, _ := newQuotaForPlan(t, domain.PlanFree, stubTaskCounter{})
	tenant := &domain.Tenant{ID: 1}

	for i := 0; i < 4; i++ {
		_, err := svc.ConsumeSearch(context.Background(), tenant, 1, 0)
		require.NoError(t, err)
	}

	_, err := svc.ConsumeSearch(context.Background(), tenant, 1, 0)
	qe, ok := domain.IsQuotaExceeded(err)
	require.True(t, ok, "expected quota denial, got %v", err)
	assert.Equal(t, domain.MetricSearches, qe.Resource)
	assert.Equal(t, domain.PlanFree, qe.Plan)
	require.NotNil(t, qe.Remaining)
	assert.Equal(t, 0, *qe.Remaining)
}

func TestConsumeSearchCreditTruncation(t *testing.T) {
	svc, counters, now := newQuotaForPlan(t, domain.PlanStarter, stubTaskCounter{})
	tenant := &domain.Tenant{ID: 7}

	// 148 of 150 monthly credits already used.
	key := period.MonthlyKey(*now)
	require.NoError(t, counters.Increment(context.Background(), tenant.ID, domain.MetricLeads, key, 148))

	result, err := svc.ConsumeSearch(context.Background(), tenant, 5, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 3, result.TruncatedByCredits)
	assert.Equal(t, 0, result.TruncatedByCap, "paid plans carry no per-search ceiling")
	assert.True(t, result.Truncated)
	require.NotNil(t, result.RemainingCredits)
	assert.Equal(t, 0, *result.RemainingCredits)
}

func TestConsumeSearchZeroCreditsDenies(t *testing.T) {
	// A zero cap is "feature disabled", not unlimited.
	def := planByID(t, domain.PlanFree)
	def.LeadCreditsPerMonth = domain.LimitOf(0)

	counters := NewMemoryCounterStore()
	clock, _ := frozenClock()
	svc := NewQuotaService(fixedResolver{id: domain.PlanFree, def: def}, counters, stubTaskCounter{}, clock, discardLogger())

	_, err := svc.ConsumeSearch(context.Background(), &domain.Tenant{ID: 1}, 1, 0)
	qe, ok := domain.IsQuotaExceeded(err)
	require.True(t, ok)
	assert.Equal(t, domain.MetricLeads, qe.Resource)
}

func TestConsumeSearchUnlimitedPlan(t *testing.T) {
	svc, _, _ := newQuotaForPlan(t, domain.PlanBusiness, stubTaskCounter{})
	tenant := &domain.Tenant{ID: 2, Plan: string(domain.PlanBusiness)}

	result, err := svc.ConsumeSearch(context.Background(), tenant, 500, 0)
	require.NoError(t, err)

	assert.Equal(t, 500, result.Saved)
	assert.False(t, result.Truncated)
	assert.Nil(t, result.RemainingCredits)
	assert.Nil(t, result.RemainingSearches)
}

func TestConsumeSearchMonthlyRollover(t *testing.T) {
	svc, _, now := newQuotaForPlan(t, domain.PlanFree, stubTaskCounter{})
	tenant := &domain.Tenant{ID: 1}

	for i := 0; i < 4; i++ {
		_, err := svc.ConsumeSearch(context.Background(), tenant, 1, 0)
		require.NoError(t, err)
	}
	_, err := svc.ConsumeSearch(context.Background(), tenant, 1, 0)
	_, denied := domain.IsQuotaExceeded(err)
	require.True(t, denied)

	// New month, fresh bucket. Old counters are left behind untouched.
	*now = now.AddDate(0, 1, 0)
	result, err := svc.ConsumeSearch(context.Background(), tenant, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, result.RemainingSearches)
	assert.Equal(t, 3, *result.RemainingSearches)
}

func TestConsumeAIMessageDailyWindow(t *testing.T) {
	svc, _, now := newQuotaForPlan(t, domain.PlanFree, stubTaskCounter{})
	tenant := &domain.Tenant{ID: 1}

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.ConsumeAIMessage(context.Background(), tenant))
	}

	err := svc.ConsumeAIMessage(context.Background(), tenant)
	qe, ok := domain.IsQuotaExceeded(err)
	require.True(t, ok)
	assert.Equal(t, domain.MetricAIMessages, qe.Resource)

	// AI messages reset daily, not monthly.
	*now = now.AddDate(0, 0, 1)
	assert.NoError(t, svc.ConsumeAIMessage(context.Background(), tenant))
}

func TestCheckTaskCreate(t *testing.T) {
	tests := []struct {
		name    string
		plan    domain.PlanID
		counter stubTaskCounter
		denied  bool
	}{
		{name: "under cap allowed", plan: domain.PlanFree, counter: stubTaskCounter{count: 2}},
		{name: "at cap denied", plan: domain.PlanFree, counter: stubTaskCounter{count: 3}, denied: true},
		{name: "count failure fails open", plan: domain.PlanFree, counter: stubTaskCounter{err: errors.New("down")}},
		{name: "unlimited plan skips count", plan: domain.PlanBusiness, counter: stubTaskCounter{count: 10_000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newQuotaForPlan(t, tt.plan, tt.counter)
			err := svc.CheckTaskCreate(context.Background(), &domain.Tenant{ID: 1})
			if tt.denied {
				qe, ok := domain.IsQuotaExceeded(err)
				require.True(t, ok)
				assert.Equal(t, domain.MetricTasks, qe.Resource)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConsumeExport(t *testing.T) {
	t.Run("free tier consumes its single slot", func(t *testing.T) {
		svc, _, _ := newQuotaForPlan(t, domain.PlanFree, stubTaskCounter{})
		tenant := &domain.Tenant{ID: 1}

		require.NoError(t, svc.ConsumeExport(context.Background(), tenant))

		err := svc.ConsumeExport(context.Background(), tenant)
		qe, ok := domain.IsQuotaExceeded(err)
		require.True(t, ok)
		assert.Equal(t, domain.MetricCSVExports, qe.Resource)
	})

	t.Run("unlimited-exports flag bypasses the counter", func(t *testing.T) {
		svc, counters, _ := newQuotaForPlan(t, domain.PlanBusiness, stubTaskCounter{})
		tenant := &domain.Tenant{ID: 1}

		for i := 0; i < 10; i++ {
			require.NoError(t, svc.ConsumeExport(context.Background(), tenant))
		}
		assert.Equal(t, 0, counters.Len(), "bypass must not touch the store")
	})
}

func TestConsumeSearchFailsOpenOnStoreOutage(t *testing.T) {
	clock, _ := frozenClock()
	svc := NewQuotaService(
		fixedResolver{id: domain.PlanFree, def: planByID(t, domain.PlanFree)},
		failingCounterStore{}, stubTaskCounter{}, clock, discardLogger())

	// With the store down, usage degrades to zero and the request is allowed.
	result, err := svc.ConsumeSearch(context.Background(), &domain.Tenant{ID: 1}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
}

func TestSnapshot(t *testing.T) {
	svc, _, _ := newQuotaForPlan(t, domain.PlanFree, stubTaskCounter{count: 2})
	tenant := &domain.Tenant{ID: 1}

	_, err := svc.ConsumeSearch(context.Background(), tenant, 6, 0)
	require.NoError(t, err)
	require.NoError(t, svc.ConsumeAIMessage(context.Background(), tenant))

	snap, err := svc.Snapshot(context.Background(), tenant)
	require.NoError(t, err)

	assert.Equal(t, domain.PlanFree, snap.Plan)
	assert.False(t, snap.Meta.Degraded)

	assert.Equal(t, 1, snap.Usage[domain.MetricSearches])
	assert.Equal(t, 6, snap.Usage[domain.MetricLeads])
	assert.Equal(t, 1, snap.Usage[domain.MetricAIMessages])
	assert.Equal(t, 2, snap.Usage[domain.MetricTasks])

	require.NotNil(t, snap.Remaining[domain.MetricSearches])
	assert.Equal(t, 3, *snap.Remaining[domain.MetricSearches])
	require.NotNil(t, snap.Remaining[domain.MetricLeads])
	assert.Equal(t, 34, *snap.Remaining[domain.MetricLeads])
	require.NotNil(t, snap.Remaining[domain.MetricTasks])
	assert.Equal(t, 1, *snap.Remaining[domain.MetricTasks])
}

func TestSnapshotDegradedOnStoreOutage(t *testing.T) {
	clock, _ := frozenClock()
	svc := NewQuotaService(
		fixedResolver{id: domain.PlanBusiness, def: planByID(t, domain.PlanBusiness)},
		failingCounterStore{}, stubTaskCounter{}, clock, discardLogger())

	snap, err := svc.Snapshot(context.Background(), &domain.Tenant{ID: 1})
	require.NoError(t, err)

	assert.True(t, snap.Meta.Degraded)
	assert.Equal(t, 0, snap.Usage[domain.MetricSearches])
	assert.Nil(t, snap.Remaining[domain.MetricSearches], "unlimited stays nil")
}

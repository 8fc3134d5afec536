package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/service"
)

type stubQuota struct {
	service.QuotaService

	snapshot *domain.QuotaSnapshot
}

func (s *stubQuota) Snapshot(context.Context, *domain.Tenant) (*domain.QuotaSnapshot, error) {
	return s.snapshot, nil
}

func fullSnapshot() *domain.QuotaSnapshot {
	limit := func(n int) *int { return &n }
	return &domain.QuotaSnapshot{
		Plan: domain.PlanFree,
		Limits: map[domain.Metric]*int{
			domain.MetricSearches: limit(4),
			domain.MetricLeads:    limit(40),
		},
		Usage: map[domain.Metric]int{
			domain.MetricSearches: 2,
			domain.MetricLeads:    17,
		},
		Remaining: map[domain.Metric]*int{
			domain.MetricSearches: limit(2),
			domain.MetricLeads:    limit(23),
		},
	}
}

func TestQuotaSnapshot(t *testing.T) {
	tenant := &domain.Tenant{ID: 3}
	h := NewQuotaHandler(&stubQuota{snapshot: fullSnapshot()}, testLogger())

	t.Run("full snapshot", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleSnapshot(w, authed(httptest.NewRequest(http.MethodGet, "/api/quotas", nil), tenant))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"searches"`)
		assert.Contains(t, w.Body.String(), `"leads"`)
	})

	t.Run("metric filter accepts aliases", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleSnapshot(w, authed(httptest.NewRequest(http.MethodGet, "/api/quotas?metric=busquedas", nil), tenant))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"searches"`)
		assert.NotContains(t, w.Body.String(), `"leads"`)
	})

	t.Run("unknown metric rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleSnapshot(w, authed(httptest.NewRequest(http.MethodGet, "/api/quotas?metric=widgets", nil), tenant))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleSnapshot(w, httptest.NewRequest(http.MethodGet, "/api/quotas", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

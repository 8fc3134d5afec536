package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/service"
)

// stubTasks records the last create call and returns canned results.
type stubTasks struct {
	service.TaskService

	created *domain.CreateTaskParams
	task    *domain.Task
	err     error
}

func (s *stubTasks) Create(_ context.Context, _ *domain.Tenant, params domain.CreateTaskParams) (*domain.Task, error) {
	s.created = &params
	if s.err != nil {
		return nil, s.err
	}
	return s.task, nil
}

func authed(r *http.Request, tenant *domain.Tenant) *http.Request {
	return r.WithContext(ContextWithTenant(r.Context(), tenant))
}

func TestTaskCreate(t *testing.T) {
	tenant := &domain.Tenant{ID: 9}
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	t.Run("creates with parsed due date", func(t *testing.T) {
		stub := &stubTasks{task: &domain.Task{ID: 5, TenantID: 9, LeadID: 3, Title: "Call back", Status: domain.TaskStatusOpen, CreatedAt: now}}
		h := NewTaskHandler(stub, testLogger())

		body := `{"lead_id":3,"title":"Call back","due_at":"2025-03-10T09:00:00Z"}`
		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body)), tenant)

		h.HandleCreate(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, stub.created)
		assert.Equal(t, int64(3), stub.created.LeadID)
		require.NotNil(t, stub.created.DueAt)
		assert.Equal(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), *stub.created.DueAt)
	})

	t.Run("rejects malformed due date", func(t *testing.T) {
		h := NewTaskHandler(&stubTasks{}, testLogger())

		body := `{"lead_id":3,"title":"Call back","due_at":"tomorrow"}`
		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body)), tenant)

		h.HandleCreate(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("quota denial surfaces as structured payload", func(t *testing.T) {
		stub := &stubTasks{err: domain.QuotaExceeded("quota.check_task_create", domain.MetricTasks, domain.PlanFree, 3, 3)}
		h := NewTaskHandler(stub, testLogger())

		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"lead_id":3,"title":"x"}`)), tenant)

		h.HandleCreate(w, r)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), `"resource":"tasks"`)
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		h := NewTaskHandler(&stubTasks{}, testLogger())

		w := httptest.NewRecorder()
		h.HandleCreate(w, httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

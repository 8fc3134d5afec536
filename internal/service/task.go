package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/repository"
)

// TaskService defines the interface for follow-up task operations.
type TaskService interface {
	// Create adds a follow-up task after checking the active-task cap.
	// Returns a quota denial when the tenant is at its limit.
	Create(ctx context.Context, tenant *domain.Tenant, params domain.CreateTaskParams) (*domain.Task, error)

	// Complete marks a task done, freeing active-task capacity.
	// Returns domain.ENOTFOUND if the task does not exist, belongs to another
	// tenant, or was already completed.
	Complete(ctx context.Context, tenant *domain.Tenant, id int64) error

	// List returns all of the tenant's tasks, newest first.
	List(ctx context.Context, tenant *domain.Tenant) ([]domain.Task, error)
}

type taskService struct {
	queries *repository.Queries
	quota   QuotaService
	logger  *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(queries *repository.Queries, quota QuotaService, logger *slog.Logger) TaskService {
	return &taskService{queries: queries, quota: quota, logger: logger}
}

func (s *taskService) Create(ctx context.Context, tenant *domain.Tenant, params domain.CreateTaskParams) (*domain.Task, error) {
	const op = "task.create"

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, domain.Invalid(op, "title is required")
	}

	if params.LeadID != 0 {
		if _, err := s.queries.GetLeadByID(ctx, params.LeadID, tenant.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NotFound(op, "lead", formatID(params.LeadID))
			}
			return nil, domain.Internal(err, op, "failed to load lead")
		}
	}

	// The cap is a live count; a completed task makes room immediately.
	if err := s.quota.CheckTaskCreate(ctx, tenant); err != nil {
		return nil, err
	}

	dueAt := sql.NullTime{}
	if params.DueAt != nil {
		dueAt = sql.NullTime{Time: *params.DueAt, Valid: true}
	}

	row, err := s.queries.CreateTask(ctx, repository.CreateTaskParams{
		TenantID: tenant.ID,
		LeadID:   params.LeadID,
		Title:    title,
		Notes:    params.Notes,
		DueAt:    dueAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create task")
	}

	task := taskFromRow(row)
	s.logger.Info("Task created", "tenant_id", tenant.ID, "task_id", task.ID)
	return &task, nil
}

func (s *taskService) Complete(ctx context.Context, tenant *domain.Tenant, id int64) error {
	const op = "task.complete"

	if err := s.queries.CompleteTask(ctx, id, tenant.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "task", formatID(id))
		}
		return domain.Internal(err, op, "failed to complete task")
	}

	s.logger.Info("Task completed", "tenant_id", tenant.ID, "task_id", id)
	return nil
}

func (s *taskService) List(ctx context.Context, tenant *domain.Tenant) ([]domain.Task, error) {
	const op = "task.list"

	rows, err := s.queries.ListTasksByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list tasks")
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, taskFromRow(row))
	}
	return tasks, nil
}

func taskFromRow(row repository.Task) domain.Task {
	t := domain.Task{
		ID:        row.ID,
		TenantID:  row.TenantID,
		LeadID:    row.LeadID,
		Title:     row.Title,
		Notes:     row.Notes,
		Status:    domain.TaskStatus(row.Status),
		CreatedAt: row.CreatedAt,
	}
	if row.DueAt.Valid {
		due := row.DueAt.Time
		t.DueAt = &due
	}
	if row.CompletedAt.Valid {
		done := row.CompletedAt.Time
		t.CompletedAt = &done
	}
	return t
}

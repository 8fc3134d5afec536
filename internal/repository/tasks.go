package repository

import (
	"context"
	"database/sql"
	"time"
)

// Task is the database representation of a task row.
type Task struct {
	ID          int64
	TenantID    int64
	LeadID      int64
	Title       string
	Notes       string
	Status      string
	DueAt       sql.NullTime
	CreatedAt   time.Time
	CompletedAt sql.NullTime
}

const createTask = `
INSERT INTO tasks (tenant_id, lead_id, title, notes, status, due_at)
VALUES ($1, $2, $3, $4, 'open', $5)
RETURNING id, tenant_id, lead_id, title, notes, status, due_at, created_at, completed_at
`

// CreateTaskParams are the inputs for CreateTask.
type CreateTaskParams struct {
	TenantID int64
	LeadID   int64
	Title    string
	Notes    string
	DueAt    sql.NullTime
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (Task, error) {
	var t Task
	err := q.db.QueryRowContext(ctx, createTask,
		arg.TenantID, arg.LeadID, arg.Title, arg.Notes, arg.DueAt,
	).Scan(&t.ID, &t.TenantID, &t.LeadID, &t.Title, &t.Notes, &t.Status,
		&t.DueAt, &t.CreatedAt, &t.CompletedAt)
	return t, err
}

const countActiveTasks = `
SELECT COUNT(*) FROM tasks WHERE tenant_id = $1 AND status <> 'completed'
`

// CountActiveTasks counts non-completed tasks. The active-task quota is a
// live query rather than a counter because completions reduce it without an
// explicit decrement event.
func (q *Queries) CountActiveTasks(ctx context.Context, tenantID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActiveTasks, tenantID).Scan(&count)
	return count, err
}

const completeTask = `
UPDATE tasks
SET status = 'completed', completed_at = now()
WHERE id = $1 AND tenant_id = $2 AND status <> 'completed'
`

// CompleteTask marks a task completed. Returns sql.ErrNoRows when the task
// does not exist, belongs to another tenant, or was already completed.
func (q *Queries) CompleteTask(ctx context.Context, id, tenantID int64) error {
	res, err := q.db.ExecContext(ctx, completeTask, id, tenantID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const listTasksByTenant = `
SELECT id, tenant_id, lead_id, title, notes, status, due_at, created_at, completed_at
FROM tasks WHERE tenant_id = $1
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListTasksByTenant(ctx context.Context, tenantID int64) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, listTasksByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.TenantID, &t.LeadID, &t.Title, &t.Notes,
			&t.Status, &t.DueAt, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

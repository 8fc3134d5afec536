package domain

import "time"

// TaskStatus is the lifecycle state of a follow-up task.
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task is a follow-up action on a lead. The active-task quota is computed
// live as a count of non-completed rows, not as a counter: completing a task
// frees capacity without any explicit decrement event.
type Task struct {
	ID       int64
	TenantID int64
	LeadID   int64

	Title  string
	Notes  string
	Status TaskStatus
	DueAt  *time.Time

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// IsActive reports whether the task still counts against the active cap.
func (t *Task) IsActive() bool {
	return t.Status != TaskStatusCompleted
}

// CreateTaskParams contains validated parameters for task creation.
type CreateTaskParams struct {
	TenantID int64
	LeadID   int64
	Title    string
	Notes    string
	DueAt    *time.Time
}

package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/service"
)

// TaskHandler handles follow-up task endpoints.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// createTaskRequest is the task creation payload. DueAt is RFC3339.
type createTaskRequest struct {
	LeadID int64  `json:"lead_id"`
	Title  string `json:"title"`
	Notes  string `json:"notes"`
	DueAt  string `json:"due_at"`
}

// taskPayload is the public view of a task.
type taskPayload struct {
	ID          int64      `json:"id"`
	LeadID      int64      `json:"lead_id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes"`
	Status      string     `json:"status"`
	DueAt       *time.Time `json:"due_at"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// HandleCreate handles POST /api/tasks.
//
// The active-task cap is checked against a live count, so completing tasks
// frees capacity immediately.
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var dueAt *time.Time
	if req.DueAt != "" {
		t, err := time.Parse(time.RFC3339, req.DueAt)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("tasks.create", "due_at must be RFC3339"))
			return
		}
		dueAt = &t
	}

	task, err := h.tasks.Create(r.Context(), tenant, domain.CreateTaskParams{
		TenantID: tenant.ID,
		LeadID:   req.LeadID,
		Title:    req.Title,
		Notes:    req.Notes,
		DueAt:    dueAt,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, taskView(*task))
}

// HandleComplete handles POST /api/tasks/{id}/complete.
func (h *TaskHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.tasks.Complete(r.Context(), tenant, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /api/tasks.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	tasks, err := h.tasks.List(r.Context(), tenant)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	payload := make([]taskPayload, 0, len(tasks))
	for _, t := range tasks {
		payload = append(payload, taskView(t))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": payload})
}

func taskView(t domain.Task) taskPayload {
	return taskPayload{
		ID:          t.ID,
		LeadID:      t.LeadID,
		Title:       t.Title,
		Notes:       t.Notes,
		Status:      string(t.Status),
		DueAt:       t.DueAt,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Invalid("", "invalid "+name+" path parameter")
	}
	return id, nil
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/extract"
)

// ExtractionHandler handles asynchronous extraction job endpoints.
type ExtractionHandler struct {
	coordinator *extract.Coordinator
	logger      *slog.Logger
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(coordinator *extract.Coordinator, logger *slog.Logger) *ExtractionHandler {
	return &ExtractionHandler{coordinator: coordinator, logger: logger}
}

// submitExtractionRequest is the extraction submission payload.
type submitExtractionRequest struct {
	Niche    string   `json:"niche"`
	Geo      string   `json:"geo"`
	Variants []string `json:"variants"`
}

// extractionStatusPayload is the polling view of a job.
type extractionStatusPayload struct {
	RequestID string `json:"request_id"`

	Niche    string   `json:"niche"`
	Geo      string   `json:"geo"`
	Variants []string `json:"variants"`

	Phase        string `json:"phase"`
	Variant      int    `json:"variant"`
	VariantCount int    `json:"variant_count"`
	Page         int    `json:"page"`
	PageCount    int    `json:"page_count"`

	RawLeads    int `json:"raw_leads"`
	UniqueLeads int `json:"unique_leads"`

	Error string `json:"error,omitempty"`
	Done  bool   `json:"done"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// HandleSubmit handles POST /api/extractions.
//
// Submission is idempotent while a job runs: re-submitting an equivalent
// request (same niche, geo, and variant set after normalization) returns
// status "duplicate_ignored" with the original request id.
func (h *ExtractionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req submitExtractionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.coordinator.Submit(tenant, req.Niche, req.Geo, req.Variants)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	status := http.StatusAccepted
	if result.Status == domain.SubmitDuplicateIgnored {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// HandleStatus handles GET /api/extractions/{id}.
func (h *ExtractionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	job, err := h.jobForTenant(r, tenant)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, extractionView(job))
}

// HandleResults handles GET /api/extractions/{id}/results.
//
// Returns 400 until the job reaches a terminal phase.
func (h *ExtractionHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	if _, err := h.jobForTenant(r, tenant); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	totals, err := h.coordinator.Results(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, totals)
}

// jobForTenant fetches the job and hides other tenants' jobs behind 404.
func (h *ExtractionHandler) jobForTenant(r *http.Request, tenant *domain.Tenant) (*domain.ExtractionJob, error) {
	requestID := r.PathValue("id")
	job, err := h.coordinator.Job(requestID)
	if err != nil {
		return nil, err
	}
	if job.TenantID != tenant.ID {
		return nil, domain.NotFound("extractions.get", "extraction", requestID)
	}
	return job, nil
}

func extractionView(job *domain.ExtractionJob) extractionStatusPayload {
	return extractionStatusPayload{
		RequestID:    job.Fingerprint,
		Niche:        job.Niche,
		Geo:          job.Geo,
		Variants:     job.Variants,
		Phase:        string(job.Phase),
		Variant:      job.Variant,
		VariantCount: job.VariantCount,
		Page:         job.Page,
		PageCount:    job.PageCount,
		RawLeads:     job.RawLeads,
		UniqueLeads:  job.UniqueLeads,
		Error:        job.Error,
		Done:         job.Done,
		StartedAt:    job.StartedAt,
		FinishedAt:   job.FinishedAt,
	}
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/service"
)

// LeadHandler handles lead import, listing, and CSV export endpoints.
type LeadHandler struct {
	leads   service.LeadService
	exports service.ExportService
	logger  *slog.Logger
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leads service.LeadService, exports service.ExportService, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{leads: leads, exports: exports, logger: logger}
}

// importLeadsRequest is the manual import payload. Each entry is a lead
// candidate; duplicates against stored leads are detected server-side.
type importLeadsRequest struct {
	Niche string             `json:"niche"`
	Geo   string             `json:"geo"`
	Leads []leadCandidateDTO `json:"leads"`
}

type leadCandidateDTO struct {
	Domain  string `json:"domain"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// leadPayload is the public view of a saved lead.
type leadPayload struct {
	ID        int64     `json:"id"`
	Domain    string    `json:"domain"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Website   string    `json:"website"`
	Niche     string    `json:"niche"`
	Geo       string    `json:"geo"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleImport handles POST /api/leads/import.
//
// The response is the quota-metered save result: how many leads were saved,
// how many were duplicates, and how many were dropped by plan caps.
func (h *LeadHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req importLeadsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if len(req.Leads) == 0 {
		ErrorResponse(w, r, h.logger, domain.Invalid("leads.import", "leads must not be empty"))
		return
	}

	candidates := make([]domain.NewLead, 0, len(req.Leads))
	for _, l := range req.Leads {
		candidates = append(candidates, domain.NewLead{
			Domain:  l.Domain,
			Name:    l.Name,
			Email:   l.Email,
			Phone:   l.Phone,
			Website: l.Website,
		})
	}

	result, err := h.leads.SaveLeads(r.Context(), tenant, req.Niche, req.Geo, domain.LeadSourceImport, candidates)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleList handles GET /api/leads.
func (h *LeadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	leads, err := h.leads.List(r.Context(), tenant)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	payload := make([]leadPayload, 0, len(leads))
	for _, l := range leads {
		payload = append(payload, leadView(l))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leads": payload})
}

// HandleExport handles POST /api/exports.
//
// Generates a CSV of all the tenant's leads, uploads it to storage, and
// returns a signed download URL. Consumes one export slot even when the
// tenant has no leads.
func (h *LeadHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	result, err := h.exports.ExportLeads(r.Context(), tenant)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func leadView(l domain.Lead) leadPayload {
	return leadPayload{
		ID:        l.ID,
		Domain:    l.Domain,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		Website:   l.Website,
		Niche:     l.Niche,
		Geo:       l.Geo,
		Source:    l.Source,
		CreatedAt: l.CreatedAt,
	}
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/leadgrid/leadgrid/internal/ai"
	"github.com/leadgrid/leadgrid/internal/service"
)

// OutreachHandler handles AI outreach generation for saved leads.
type OutreachHandler struct {
	outreach service.OutreachService
	logger   *slog.Logger
}

// NewOutreachHandler creates a new OutreachHandler.
func NewOutreachHandler(outreach service.OutreachService, logger *slog.Logger) *OutreachHandler {
	return &OutreachHandler{outreach: outreach, logger: logger}
}

// generateOutreachRequest is the outreach generation payload.
type generateOutreachRequest struct {
	SenderName string `json:"sender_name"`
	Tone       string `json:"tone"`
}

// HandleGenerate handles POST /api/leads/{id}/outreach.
//
// Messages are not stored; regenerating for the same lead consumes another
// unit of the daily AI allowance.
func (h *OutreachHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	leadID, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req generateOutreachRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	message, err := h.outreach.Generate(r.Context(), tenant, service.GenerateOutreachParams{
		LeadID:     leadID,
		SenderName: req.SenderName,
		Tone:       ai.Tone(req.Tone),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, message)
}
